package sync

import (
	"time"

	"github.com/deemkeen/fedisync/domain"
)

// Direction of a sync pass: forward for new items, backfill for
// history.
type Direction int

const (
	DirectionYounger Direction = iota
	DirectionOlder
)

func (d Direction) String() string {
	if d == DirectionOlder {
		return "older"
	}
	return "younger"
}

// Tracker keeps the paging cursor of one timeline during a sync pass.
// Position updates are monotonic: an out-of-order page never regresses
// the stored cursor.
type Tracker struct {
	timeline  *domain.Timeline
	direction Direction
	latest    bool
}

// NewTracker decides the sync mode per the stored cursor state. With
// no prior position, or when the last successful sync is older than
// staleAfter, the pass downloads latest items from scratch and any
// stored position is dropped.
func NewTracker(timeline *domain.Timeline, direction Direction, staleAfter time.Duration) *Tracker {
	tr := &Tracker{timeline: timeline, direction: direction}

	lastSynced := timeline.YoungestSyncedDate
	if direction == DirectionOlder {
		lastSynced = timeline.OldestSyncedDate
	}
	stale := staleAfter > 0 && lastSynced > 0 &&
		time.Now().UnixMilli()-lastSynced > staleAfter.Milliseconds()

	if tr.PreviousPosition().IsEmpty() || stale {
		tr.latest = true
		timeline.ForgetPositions()
	}
	return tr
}

// DownloadingLatest reports whether the pass starts from scratch with
// a small page rather than resuming a stored position.
func (tr *Tracker) DownloadingLatest() bool {
	return tr.latest
}

// PreviousPosition is the cursor the next page request should resume
// from, per the pass direction.
func (tr *Tracker) PreviousPosition() domain.TimelinePosition {
	if tr.direction == DirectionOlder {
		return tr.timeline.OldestPosition
	}
	return tr.timeline.YoungestPosition
}

// OnActivity records a successfully processed activity, advancing the
// cursor when the activity is beyond it.
func (tr *Tracker) OnActivity(a *domain.Activity) {
	tr.timeline.OnNewActivity(a.UpdatedDate, a.Position())
}

// OnPositionLost clears the rejected cursor so the pass can retry
// once from latest.
func (tr *Tracker) OnPositionLost() {
	tr.timeline.ForgetPositions()
	tr.latest = true
}

// OnSyncEnded stamps the completion bookkeeping. Item counters from
// merged pages are kept either way, but the synced date and the sync
// count are stamped only for completed passes. A zero-result pass
// still counts as completed, so the staleness clock resets; a failed
// one does not, so it stays eligible for the stale restart.
func (tr *Tracker) OnSyncEnded(completed bool, downloaded, newItems int64) {
	tr.timeline.DownloadedCount += downloaded
	tr.timeline.NewItemsCount += newItems
	if !completed {
		return
	}
	now := time.Now().UnixMilli()
	if tr.direction == DirectionOlder {
		tr.timeline.OldestSyncedDate = now
	} else {
		tr.timeline.YoungestSyncedDate = now
	}
	tr.timeline.SyncCount++
}
