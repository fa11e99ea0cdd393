package domain

import "fmt"

// TimelineType selects which server-side stream a timeline mirrors.
type TimelineType int

const (
	TimelineUnknown TimelineType = iota
	TimelineHome
	TimelineNotifications
	TimelineSentByActor
	TimelineSearch
)

func (t TimelineType) String() string {
	switch t {
	case TimelineHome:
		return "home"
	case TimelineNotifications:
		return "notifications"
	case TimelineSentByActor:
		return "sent"
	case TimelineSearch:
		return "search"
	default:
		return "unknown"
	}
}

// TimelineTypeFromID converts a stored id back to a TimelineType.
func TimelineTypeFromID(id int64) TimelineType {
	if id < int64(TimelineHome) || id > int64(TimelineSearch) {
		return TimelineUnknown
	}
	return TimelineType(id)
}

func (t TimelineType) ID() int64 { return int64(t) }

// Timeline is one syncable stream for one account, together with the
// cursor state left by the previous download.
type Timeline struct {
	ID        int64
	Type      TimelineType
	OriginID  int64
	ActorID   int64
	SearchQuery string

	// Positions reported by the origin for the two directions.
	YoungestPosition TimelinePosition
	OldestPosition   TimelinePosition

	// Timestamps of the newest and oldest items actually stored.
	YoungestItemDate int64
	OldestItemDate   int64

	// Wall-clock bookkeeping of sync attempts.
	YoungestSyncedDate int64
	OldestSyncedDate   int64

	SyncCount         int64
	DownloadedCount   int64
	NewItemsCount     int64
	CountSince        int64
}

func (t *Timeline) String() string {
	return fmt.Sprintf("Timeline[id:%d, type:%s, actor:%d]", t.ID, t.Type, t.ActorID)
}

// OnNewActivity widens the stored item date range and advances the
// matching position cursor.
func (t *Timeline) OnNewActivity(updatedDate int64, position TimelinePosition) {
	if updatedDate <= 0 {
		return
	}
	if t.YoungestItemDate < updatedDate {
		t.YoungestItemDate = updatedDate
		t.YoungestPosition = position
	}
	if t.OldestItemDate == 0 || t.OldestItemDate > updatedDate {
		t.OldestItemDate = updatedDate
		t.OldestPosition = position
	}
}

// ForgetPositions drops both cursors so the next sync starts from
// scratch. Used to recover from positions the origin no longer knows.
func (t *Timeline) ForgetPositions() {
	t.YoungestPosition = EmptyPosition
	t.OldestPosition = EmptyPosition
}
