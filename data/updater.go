package data

import (
	"fmt"
	"log"

	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
)

// Counters accumulate what one sync pass produced.
type Counters struct {
	NewActivities      int64
	NewNotes           int64
	NewActors          int64
	NotificationEvents int64
}

func (c *Counters) Add(other Counters) {
	c.NewActivities += other.NewActivities
	c.NewNotes += other.NewNotes
	c.NewActors += other.NewActors
	c.NotificationEvents += other.NotificationEvents
}

// Updater merges incoming activities into the local store. Merging is
// idempotent: replaying a page, or racing with another timeline that
// saw the same note, converges on the same rows.
type Updater struct {
	store        *db.DB
	accountActor domain.Actor
	keywords     *KeywordsFilter

	Counters Counters
}

// NewUpdater builds a merge engine for one account. The account actor
// must already be persisted, see EnsureAccountActor.
func NewUpdater(store *db.DB, accountActor domain.Actor, keywords *KeywordsFilter) *Updater {
	return &Updater{store: store, accountActor: accountActor, keywords: keywords}
}

// EnsureAccountActor persists the local account's own actor row and
// returns the actor with its local id filled in.
func EnsureAccountActor(store *db.DB, actor domain.Actor) (error, domain.Actor) {
	u := &Updater{store: store, accountActor: actor}
	merged, err := u.mergeActor(actor)
	if err != nil {
		return err, actor
	}
	return nil, merged
}

// MergeActivity is the primary operation: it persists one activity
// and everything it references, recursively. The object-actor is
// merged first since actors are dependencies of notes and activities.
func (u *Updater) MergeActivity(a *domain.Activity) error {
	if a.IsEmpty() {
		return nil
	}

	actor, err := u.mergeActor(a.Actor)
	if err != nil {
		return err
	}
	a.Actor = actor

	switch a.ObjectType() {
	case domain.ObjectActivity:
		if err := u.MergeActivity(a.Activity); err != nil {
			return err
		}
	case domain.ObjectNote:
		if err := u.mergeNote(a); err != nil {
			return err
		}
	case domain.ObjectActor:
		objActor, err := u.mergeActor(a.ObjActor)
		if err != nil {
			return err
		}
		a.ObjActor = objActor
	}

	if err := u.saveActivity(a); err != nil {
		return err
	}
	return u.afterSave(a)
}

// MergeAll merges a page of activities. A failure on one activity is
// logged and does not block the rest of the page.
func (u *Updater) MergeAll(activities []*domain.Activity) {
	for _, a := range activities {
		if err := u.MergeActivity(a); err != nil {
			log.Printf("Updater: skipping activity %s: %v", a, err)
		}
	}
}

// mergeActor upserts one actor. A partially defined sighting never
// overwrites a fuller stored record, and placeholder display fields
// are only written on first insert.
func (u *Updater) mergeActor(actor domain.Actor) (domain.Actor, error) {
	if actor.IsEmpty() {
		return actor, nil
	}
	actor.BuildWebFingerID()
	if actor.Oid == "" {
		actor.Oid = actor.TempOid()
	}

	originID := actor.Origin.ID
	err, id := u.store.ActorIDByOid(originID, actor.Oid)
	if err != nil {
		return actor, fmt.Errorf("merge actor %s: %w", actor.Oid, err)
	}
	if id == 0 && actor.WebFingerID != "" {
		// A temp-oid row for the same person collapses into this one
		// once the real oid is known.
		if err, id = u.store.ActorIDByWebFinger(originID, actor.WebFingerID); err != nil {
			return actor, fmt.Errorf("merge actor %s: %w", actor.Oid, err)
		}
	}

	if id != 0 {
		actor.ID = id
		if !actor.IsPartiallyDefined() || actor.UpdatedDate > 0 {
			err, stored := u.store.ActorUpdatedDate(id)
			if err != nil {
				return actor, err
			}
			if actor.IsPartiallyDefined() && actor.UpdatedDate <= stored {
				return u.finishActorMerge(actor)
			}
			v := db.NewValues()
			u.putActorColumns(v, actor, false)
			if v.Size() > 0 {
				if err := u.store.UpdateActor(id, v); err != nil {
					return actor, err
				}
			}
		}
		return u.finishActorMerge(actor)
	}

	v := db.NewValues()
	v.Put("origin_id", originID)
	v.Put("oid", actor.Oid)
	u.putActorColumns(v, actor, true)
	err, id = u.store.InsertActor(v)
	if err != nil {
		return actor, fmt.Errorf("insert actor %s: %w", actor.Oid, err)
	}
	actor.ID = id
	u.Counters.NewActors++
	return u.finishActorMerge(actor)
}

func (u *Updater) finishActorMerge(actor domain.Actor) (domain.Actor, error) {
	if actor.FollowedByMe.Known() && u.accountActor.ID > 0 && actor.ID != u.accountActor.ID {
		if err := u.store.SetFollowed(u.accountActor.ID, actor.ID, actor.FollowedByMe.IsTrue()); err != nil {
			return actor, err
		}
	}
	if actor.LatestActivity != nil {
		latest := actor.LatestActivity
		actor.LatestActivity = nil
		if err := u.MergeActivity(latest); err != nil {
			log.Printf("Updater: latest activity of %s: %v", actor.NamePreferablyWebFinger(), err)
		}
	}
	return actor, nil
}

func (u *Updater) putActorColumns(v *db.Values, actor domain.Actor, firstInsert bool) {
	v.PutNonEmpty("username", actor.Username)
	v.PutNonEmpty("real_name", actor.RealName)
	v.PutNonEmpty("webfinger_id", actor.WebFingerID)
	v.PutNonEmpty("description", actor.Description)
	v.PutNonEmpty("homepage", actor.Homepage)
	v.PutNonEmpty("profile_url", actor.ProfileURL)
	v.PutNonEmpty("avatar_url", actor.AvatarURL)
	v.PutNonEmpty("banner_url", actor.BannerURL)
	v.PutNonEmpty("location", actor.Location)
	v.PutPositive("notes_count", actor.NotesCount)
	v.PutPositive("favorites_count", actor.FavoritesCount)
	v.PutPositive("following_count", actor.FollowingCount)
	v.PutPositive("followers_count", actor.FollowersCount)
	v.PutPositive("created_date", actor.CreatedDate)
	v.PutPositive("updated_date", actor.UpdatedDate)

	if firstInsert {
		// Deterministic placeholders keep repeated partial sightings
		// collapsing into one row. Never written on update.
		placeholder := domain.TempOidPrefix + actor.Oid
		if actor.Username == "" {
			v.Put("username", placeholder)
		}
		if actor.WebFingerID == "" {
			v.Put("webfinger_id", placeholder)
		}
	}
}

// mergeNote applies the idempotence core: the write happens only when
// the note is loaded for the first time, finalizes a draft, or is
// strictly newer than the stored row.
func (u *Updater) mergeNote(a *domain.Activity) error {
	note := a.Note
	originID := note.Origin.ID
	if originID == 0 {
		note.Origin = u.accountActor.Origin
		originID = note.Origin.ID
	}

	author, err := u.mergeActor(a.Author())
	if err != nil {
		return err
	}
	if note.Author.SameActor(author) {
		note.Author = author
	}

	err, noteID := u.store.NoteIDByOid(originID, note.Oid)
	if err != nil {
		return fmt.Errorf("merge note %s: %w", note.Oid, err)
	}

	var storedStatus domain.DownloadStatus
	var storedDate int64
	if noteID > 0 {
		if err, storedStatus = u.store.NoteStatus(noteID); err != nil {
			return err
		}
		if err, storedDate = u.store.NoteUpdatedDate(noteID); err != nil {
			return err
		}
	}

	isFirstTimeLoaded := noteID == 0 ||
		(storedStatus != domain.StatusLoaded && note.Status == domain.StatusLoaded)
	isDraftUpdated := noteID > 0 && !isFirstTimeLoaded &&
		(storedStatus == domain.StatusSending || storedStatus == domain.StatusDraft)
	isNewer := note.UpdatedDate > storedDate

	if !isFirstTimeLoaded && !isDraftUpdated && !isNewer {
		// Not an error: older re-fetches are expected and frequent.
		// The attached replies can still be unseen, so they are merged
		// regardless.
		note.NoteID = noteID
		return u.mergeReplies(note)
	}

	if note.InReplyTo != nil && note.InReplyTo.GetNote() != nil && !note.InReplyTo.GetNote().IsEmpty() {
		if err := u.MergeActivity(note.InReplyTo); err != nil {
			return err
		}
	}

	if err := u.resolveConversation(note); err != nil {
		return err
	}

	v := db.NewValues()
	if note.Status != domain.StatusUnknown &&
		(storedStatus != domain.StatusLoaded || note.Status == domain.StatusLoaded) {
		v.Put("status", note.Status.ID())
	}
	v.PutNonEmpty("body", note.Body)
	v.PutNonEmpty("content_to_search", note.ContentToSearch)
	v.PutNonEmpty("via", note.Via)
	v.PutNonEmpty("url", note.URL)
	v.PutNonEmpty("conversation_oid", note.ConversationOid)
	v.PutPositive("conversation_id", note.ConversationID)
	v.PutPositive("author_id", author.ID)
	v.PutPositive("updated_date", note.UpdatedDate)
	if note.Public.Known() {
		v.Put("public", note.Public.ID())
	}
	if note.Favorited.Known() {
		v.Put("favorited", note.Favorited.ID())
	}
	if note.InReplyTo != nil {
		if parent := note.InReplyTo.GetNote(); parent != nil {
			v.PutPositive("in_reply_to_note_id", parent.NoteID)
		}
		v.PutPositive("in_reply_to_actor_id", note.InReplyTo.Actor.ID)
	}

	if noteID == 0 {
		v.Put("origin_id", originID)
		v.Put("oid", note.Oid)
		err, noteID = u.store.InsertNote(v)
		if err != nil {
			return fmt.Errorf("insert note %s: %w", note.Oid, err)
		}
		u.Counters.NewNotes++
		if note.ConversationID == 0 {
			// A note starting a conversation is seeded with its own
			// row id. Row ids are unique, so concurrent merges cannot
			// file unrelated notes under one conversation.
			note.ConversationID = noteID
			cv := db.NewValues()
			cv.Put("conversation_id", noteID)
			if err := u.store.UpdateNote(noteID, cv); err != nil {
				return fmt.Errorf("seed conversation of %s: %w", note.Oid, err)
			}
		}
	} else {
		if err := u.store.UpdateNote(noteID, v); err != nil {
			return fmt.Errorf("update note %s: %w", note.Oid, err)
		}
	}
	note.NoteID = noteID

	// Attachments and audience are stable between edits; rewriting
	// them on every sighting would re-download unchanged media.
	if isFirstTimeLoaded || isDraftUpdated {
		if len(note.Attachments) > 0 {
			if err := u.store.ReplaceAttachments(noteID, note.Attachments); err != nil {
				return err
			}
		}
		if note.Audience.NonEmpty() {
			var recipientIDs []int64
			for _, recipient := range note.Audience.Recipients() {
				merged, err := u.mergeActor(recipient)
				if err != nil {
					return err
				}
				if merged.ID > 0 {
					recipientIDs = append(recipientIDs, merged.ID)
				}
			}
			if err := u.store.ReplaceAudience(noteID, recipientIDs); err != nil {
				return err
			}
		}
	}

	return u.mergeReplies(note)
}

// mergeReplies merges the replies attached to a note sighting. A
// failure on one reply is logged and does not block the rest.
func (u *Updater) mergeReplies(note *domain.Note) error {
	for _, reply := range note.Replies {
		if err := u.MergeActivity(reply); err != nil {
			log.Printf("Updater: skipping reply of %s: %v", note.Oid, err)
		}
	}
	return nil
}

// resolveConversation assigns the note's local conversation id: from
// an explicit conversation oid when one is known, or transitively from
// the in-reply-to chain. A note left without an id starts a new
// conversation and is seeded from its own row id after insert.
func (u *Updater) resolveConversation(note *domain.Note) error {
	originID := note.Origin.ID

	if note.ConversationID == 0 && note.ConversationOid != "" {
		err, convID := u.store.ConversationIDByOid(originID, note.ConversationOid)
		if err != nil {
			return err
		}
		note.ConversationID = convID
	}

	if note.ConversationID == 0 && note.InReplyTo != nil {
		if parent := note.InReplyTo.GetNote(); parent != nil && parent.NoteID > 0 {
			err, parentNote := u.store.ReadNote(nil, parent.NoteID)
			if err == nil && parentNote != nil {
				note.ConversationID = parentNote.ConversationID
				if note.ConversationOid == "" {
					note.ConversationOid = parentNote.ConversationOid
				}
			}
		}
	}

	if note.ConversationOid == "" {
		note.SetConversationOidFromNote()
	}

	// Once the origin reveals the real conversation oid, earlier
	// replies filed under the derived one move over.
	if note.HasRealConversationOid() {
		tempOid := domain.TempOidPrefix + note.Oid
		err, tempConvID := u.store.ConversationIDByOid(originID, tempOid)
		if err != nil {
			return err
		}
		if tempConvID > 0 {
			note.ConversationID = tempConvID
			if err := u.store.RebindConversation(originID, tempOid, tempConvID, note.ConversationOid); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveActivity upserts the activity row itself and derives friendship
// and favorite side effects from the activity type.
func (u *Updater) saveActivity(a *domain.Activity) error {
	originID := a.Origin().ID
	if a.Oid == "" {
		// Origins without separate activity ids get a deterministic
		// derived oid, keeping replays idempotent.
		a.Oid = domain.TempOidPrefix + a.Type.String() + ":" + a.Actor.Oid + ":" + a.Position().String()
	}

	err, id := u.store.ActivityIDByOid(originID, a.Oid, u.accountActor.ID)
	if err != nil {
		return fmt.Errorf("merge activity %s: %w", a.Oid, err)
	}

	v := db.NewValues()
	v.PutPositive("actor_id", a.Actor.ID)
	if a.Note != nil {
		v.PutPositive("note_id", a.Note.NoteID)
	}
	v.PutPositive("obj_actor_id", a.ObjActor.ID)
	if a.Activity != nil {
		v.PutPositive("obj_activity_id", a.Activity.ID)
	}
	if a.SubscribedByMe.Known() {
		v.Put("subscribed", a.SubscribedByMe.ID())
	}
	if a.Notified.Known() {
		v.Put("notified", a.Notified.ID())
	}
	v.PutPositive("updated_date", a.UpdatedDate)

	if id == 0 {
		v.Put("origin_id", originID)
		v.Put("oid", a.Oid)
		v.Put("account_actor_id", u.accountActor.ID)
		v.Put("activity_type", a.Type.ID())
		err, id = u.store.InsertActivity(v)
		if err != nil {
			return fmt.Errorf("insert activity %s: %w", a.Oid, err)
		}
		u.Counters.NewActivities++
	} else {
		if err := u.store.UpdateActivity(id, v); err != nil {
			return fmt.Errorf("update activity %s: %w", a.Oid, err)
		}
	}
	a.ID = id

	switch a.Type {
	case domain.ActivityFollow, domain.ActivityUndoFollow:
		if a.Actor.ID > 0 && a.ObjActor.ID > 0 {
			follow := a.Type == domain.ActivityFollow
			if err := u.store.SetFollowed(a.Actor.ID, a.ObjActor.ID, follow); err != nil {
				return err
			}
		}
	case domain.ActivityLike, domain.ActivityUndoLike:
		if note := a.GetNote(); note != nil && note.NoteID > 0 && a.Actor.SameActor(u.accountActor) {
			v := db.NewValues()
			v.Put("favorited", domain.TriStateFromBool(a.Type == domain.ActivityLike).ID())
			if err := u.store.UpdateNote(note.NoteID, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// afterSave advances the per-actor latest-activity watermarks and
// derives the notification event. The event is computed even when the
// note write was skipped, so relationship notifications (being
// followed, being liked) keep firing on repeated sightings.
func (u *Updater) afterSave(a *domain.Activity) error {
	if a.Actor.ID > 0 {
		if err := u.store.UpdateActorLatestActivity(a.Actor.ID, a.ID, a.UpdatedDate); err != nil {
			return err
		}
	}
	if author := a.Author(); author.ID > 0 && author.ID != a.Actor.ID {
		if err := u.store.UpdateActorLatestActivity(author.ID, a.ID, a.UpdatedDate); err != nil {
			return err
		}
	}

	event := a.NewNotificationEvent()
	if event == domain.EventMention || event == domain.EventPrivate {
		if note := a.GetNote(); note != nil && u.keywords.Matches(note.ContentToSearch) {
			event = domain.EventNone
		}
	}
	a.Event = event
	if event != domain.EventNone {
		u.Counters.NotificationEvents++
		v := db.NewValues()
		v.Put("notification_event", int64(event))
		if err := u.store.UpdateActivity(a.ID, v); err != nil {
			return err
		}
	}
	return nil
}
