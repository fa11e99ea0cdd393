package domain

import (
	"fmt"

	"github.com/deemkeen/fedisync/origin"
)

// Activity is the unit of synchronization: an actor did something
// (Type) to exactly one object - a note, an actor, or another
// activity (a reblogged one). AccountActor is the local account that
// observed the event.
type Activity struct {
	ID  int64
	Oid string

	Type         ActivityType
	AccountActor Actor
	Actor        Actor

	UpdatedDate int64

	Note     *Note
	ObjActor Actor
	Activity *Activity

	SubscribedByMe TriState
	Notified       TriState
	Event          NotificationEvent
}

// NewActivity builds an activity observed by the given local account.
func NewActivity(accountActor Actor, atype ActivityType) *Activity {
	return &Activity{
		Type:         atype,
		AccountActor: accountActor,
	}
}

// NewPartialNote wraps a note stub, known only by its oid, into an
// UPDATE activity. Used for in-reply-to references and for notes
// whose body arrives later.
func NewPartialNote(accountActor Actor, oid string, updatedDate int64, status DownloadStatus) *Activity {
	a := NewActivity(accountActor, ActivityUpdate)
	note := NewNote(accountActor.Origin, oid)
	note.Status = status
	note.UpdatedDate = updatedDate
	a.Note = note
	a.UpdatedDate = updatedDate
	return a
}

// NewActorUpdate wraps an actor sighting into an UPDATE activity so
// the merge engine treats actors and notes uniformly.
func NewActorUpdate(accountActor Actor, actor Actor, objActor Actor) *Activity {
	return objActor.Act(actor, accountActor, ActivityUpdate)
}

func (a *Activity) IsEmpty() bool {
	return a == nil || a.Type == ActivityEmpty || (a.ObjectType() == ObjectEmpty && a.Oid == "")
}

// ObjectType reports what this activity wraps. An activity has
// exactly one object.
func (a *Activity) ObjectType() ObjectType {
	switch {
	case a == nil:
		return ObjectEmpty
	case a.Activity != nil && !a.Activity.IsEmpty():
		return ObjectActivity
	case a.Note != nil && !a.Note.IsEmpty():
		return ObjectNote
	case !a.ObjActor.IsEmpty():
		return ObjectActor
	default:
		return ObjectEmpty
	}
}

// GetNote returns the note this activity is ultimately about,
// descending into a wrapped activity (the note inside a reblog).
func (a *Activity) GetNote() *Note {
	if a == nil {
		return nil
	}
	if a.Note != nil && !a.Note.IsEmpty() {
		return a.Note
	}
	if a.Activity != nil {
		return a.Activity.GetNote()
	}
	return a.Note
}

// Author is the actor who originally wrote the note. For a plain
// CREATE/UPDATE that is the acting actor; for a like or other
// reaction it is the author carried on the note; for a reblog it is
// the inner activity's author.
func (a *Activity) Author() Actor {
	if a == nil {
		return EmptyActor
	}
	if a.ObjectType() == ObjectNote {
		switch a.Type {
		case ActivityCreate, ActivityUpdate, ActivityDelete:
			if !a.Actor.IsEmpty() {
				return a.Actor
			}
		}
		return a.Note.Author
	}
	if a.Activity != nil {
		return a.Activity.Author()
	}
	return EmptyActor
}

// IsAuthorActor reports whether the acting actor also wrote the note.
func (a *Activity) IsAuthorActor() bool {
	return a.Actor.SameActor(a.Author())
}

// IsMyActorOrAuthor reports whether the local account performed or
// authored this activity.
func (a *Activity) IsMyActorOrAuthor() bool {
	return a.AccountActor.SameActor(a.Actor) || a.AccountActor.SameActor(a.Author())
}

// Position is the activity's place in its timeline, for cursor
// tracking. Falls back to the note oid when the origin has no
// separate activity id.
func (a *Activity) Position() TimelinePosition {
	if a == nil {
		return EmptyPosition
	}
	if a.Oid != "" {
		return TimelinePosition(a.Oid)
	}
	if note := a.GetNote(); note != nil && note.Oid != "" {
		return TimelinePosition(note.Oid)
	}
	return EmptyPosition
}

// Origin of the activity, taken from the account actor.
func (a *Activity) Origin() origin.Origin {
	return a.AccountActor.Origin
}

// NewNotificationEvent derives the user-visible notification class of
// this activity for the observing account. Computed on every
// sighting, including ones the merge skipped, so relationship events
// keep firing.
func (a *Activity) NewNotificationEvent() NotificationEvent {
	if a == nil || a.Notified.IsFalse() {
		return EventNone
	}
	me := a.AccountActor
	switch a.Type {
	case ActivityFollow:
		if a.ObjActor.SameActor(me) {
			return EventFollow
		}
	case ActivityLike, ActivityUndoLike:
		if a.Author().SameActor(me) {
			return EventLike
		}
	case ActivityAnnounce, ActivityUndoAnnounce:
		if a.Author().SameActor(me) {
			return EventAnnounce
		}
	}
	if note := a.GetNote(); note != nil && note.Audience.Contains(me) {
		if note.Public.IsFalse() {
			return EventPrivate
		}
		return EventMention
	}
	return EventNone
}

func (a *Activity) String() string {
	if a == nil {
		return "Activity[empty]"
	}
	return fmt.Sprintf("Activity[id:%d, oid:%s, type:%s, object:%s]", a.ID, a.Oid, a.Type, a.ObjectType())
}
