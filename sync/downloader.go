package sync

import (
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/fedisync/connection"
	"github.com/deemkeen/fedisync/data"
	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
)

// Limits are the page budgets of a sync pass. The defaults are tuned
// for interactive use: a small page when catching up from scratch, a
// large budget when resuming forward, a modest one for backfill.
type Limits struct {
	Latest  int
	Younger int
	Older   int

	// MaxIterations caps the paging loop against buggy pagination.
	MaxIterations int

	// StaleAfter forces a restart from latest when the last
	// successful sync is older than this. Zero disables the check.
	StaleAfter time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		Latest:        20,
		Younger:       200,
		Older:         40,
		MaxIterations: 100,
		StaleAfter:    24 * time.Hour,
	}
}

// Request describes one sync invocation from the scheduler.
type Request struct {
	TimelineType domain.TimelineType
	Direction    Direction
	ActorOid     string
	SearchQuery  string
}

// Downloader runs the paging loop for one account: it asks the
// connection for pages, feeds them to the merge engine and maintains
// the timeline cursor. One timeline is synced by at most one
// Downloader call at a time; that is the scheduler's job.
type Downloader struct {
	store        *db.DB
	conn         connection.Connection
	accountActor domain.Actor
	keywords     *data.KeywordsFilter
	limits       Limits

	// Stopping is polled between pages; a true return aborts the
	// loop early, keeping already-merged pages.
	Stopping func() bool
}

func NewDownloader(store *db.DB, conn connection.Connection, accountActor domain.Actor, keywords *data.KeywordsFilter, limits Limits) *Downloader {
	return &Downloader{
		store:        store,
		conn:         conn,
		accountActor: accountActor,
		keywords:     keywords,
		limits:       limits,
	}
}

func (d *Downloader) stopping() bool {
	return d.Stopping != nil && d.Stopping()
}

func routineFor(ttype domain.TimelineType) (connection.Routine, error) {
	switch ttype {
	case domain.TimelineHome:
		return connection.RoutineHome, nil
	case domain.TimelineNotifications:
		return connection.RoutineNotifications, nil
	case domain.TimelineSentByActor:
		return connection.RoutineActorTimeline, nil
	case domain.TimelineSearch:
		return connection.RoutineSearch, nil
	default:
		return 0, fmt.Errorf("timeline type %s is not syncable", ttype)
	}
}

// Sync runs one pass over the requested timeline.
func (d *Downloader) Sync(req Request) *Result {
	originID := d.accountActor.Origin.ID
	err, timeline := d.store.ReadTimeline(req.TimelineType, originID, d.accountActor.ID, req.SearchQuery)
	result := newResult(timeline)
	if err != nil {
		return result.finish(fmt.Errorf("read timeline cursor: %w", err), true)
	}

	routine, err := routineFor(req.TimelineType)
	if err != nil {
		return result.finish(err, true)
	}

	tracker := NewTracker(timeline, req.Direction, d.limits.StaleAfter)
	err, hard := d.download(req, routine, tracker, result)

	tracker.OnSyncEnded(err == nil, result.Downloaded, result.Counters.NewActivities)
	if saveErr := d.store.SaveTimeline(timeline); saveErr != nil {
		log.Printf("Downloader: failed to save cursor of %s: %v", timeline, saveErr)
	}
	return result.finish(err, hard)
}

func (d *Downloader) download(req Request, routine connection.Routine, tracker *Tracker, result *Result) (error, bool) {
	toDownload := d.limits.Younger
	if tracker.DownloadingLatest() {
		toDownload = d.limits.Latest
	} else if req.Direction == DirectionOlder {
		toDownload = d.limits.Older
	}

	actorOid := req.ActorOid
	if routine == connection.RoutineSearch {
		actorOid = req.SearchQuery
	}

	positionRetried := false
	for iteration := 0; iteration < d.limits.MaxIterations; iteration++ {
		if d.stopping() {
			log.Printf("Downloader: stop requested, aborting %s sync of %s", req.Direction, result.Timeline)
			return nil, false
		}

		previous := tracker.PreviousPosition()
		since, until := domain.EmptyPosition, domain.EmptyPosition
		if req.Direction == DirectionOlder {
			until = previous
		} else {
			since = previous
		}

		activities, err := d.conn.GetTimeline(routine, since, until, toDownload, actorOid)
		if err != nil {
			if connection.IsNotFound(err) && !previous.IsEmpty() && !positionRetried {
				// The origin no longer knows our cursor. Drop it and
				// retry once from latest.
				log.Printf("Downloader: position %s lost, restarting from latest", previous)
				tracker.OnPositionLost()
				positionRetried = true
				toDownload = d.limits.Latest
				continue
			}
			return err, connection.IsHard(err)
		}

		if len(activities) == 0 {
			return nil, false
		}

		updater := data.NewUpdater(d.store, d.accountActor, d.keywords)
		for _, a := range activities {
			if err := updater.MergeActivity(a); err != nil {
				log.Printf("Downloader: skipping activity %s: %v", a, err)
				continue
			}
			tracker.OnActivity(a)
		}
		result.Downloaded += int64(len(activities))
		result.Counters.Add(updater.Counters)

		if tracker.PreviousPosition() == previous {
			// The cursor did not advance; requesting again would loop
			// on the same page.
			return nil, false
		}

		toDownload -= len(activities)
		if toDownload <= 0 {
			return nil, false
		}
	}
	return nil, false
}
