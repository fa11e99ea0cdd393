package domain

// ActivityType is the verb of an activity, normalized across origins.
type ActivityType int

const (
	ActivityEmpty        ActivityType = 0
	ActivityCreate       ActivityType = 1
	ActivityUpdate       ActivityType = 2
	ActivityDelete       ActivityType = 3
	ActivityAnnounce     ActivityType = 4
	ActivityLike         ActivityType = 5
	ActivityUndoLike     ActivityType = 6
	ActivityUndoAnnounce ActivityType = 7
	ActivityFollow       ActivityType = 8
	ActivityUndoFollow   ActivityType = 9
)

func ActivityTypeFromID(id int64) ActivityType {
	if id < 0 || id > int64(ActivityUndoFollow) {
		return ActivityEmpty
	}
	return ActivityType(id)
}

func (t ActivityType) ID() int64 {
	return int64(t)
}

func (t ActivityType) String() string {
	switch t {
	case ActivityCreate:
		return "CREATE"
	case ActivityUpdate:
		return "UPDATE"
	case ActivityDelete:
		return "DELETE"
	case ActivityAnnounce:
		return "ANNOUNCE"
	case ActivityLike:
		return "LIKE"
	case ActivityUndoLike:
		return "UNDO_LIKE"
	case ActivityUndoAnnounce:
		return "UNDO_ANNOUNCE"
	case ActivityFollow:
		return "FOLLOW"
	case ActivityUndoFollow:
		return "UNDO_FOLLOW"
	default:
		return "EMPTY"
	}
}

// ObjectType says what an activity wraps.
type ObjectType int

const (
	ObjectEmpty    ObjectType = 0
	ObjectNote     ObjectType = 1
	ObjectActor    ObjectType = 2
	ObjectActivity ObjectType = 3
)

func (t ObjectType) String() string {
	switch t {
	case ObjectNote:
		return "NOTE"
	case ObjectActor:
		return "ACTOR"
	case ObjectActivity:
		return "ACTIVITY"
	default:
		return "EMPTY"
	}
}

// NotificationEvent classifies an activity for user-visible
// notification purposes.
type NotificationEvent int

const (
	EventNone     NotificationEvent = 0
	EventMention  NotificationEvent = 1
	EventPrivate  NotificationEvent = 2
	EventFollow   NotificationEvent = 3
	EventAnnounce NotificationEvent = 4
	EventLike     NotificationEvent = 5
)

func (e NotificationEvent) String() string {
	switch e {
	case EventMention:
		return "MENTION"
	case EventPrivate:
		return "PRIVATE"
	case EventFollow:
		return "FOLLOW"
	case EventAnnounce:
		return "ANNOUNCE"
	case EventLike:
		return "LIKE"
	default:
		return "NONE"
	}
}
