package domain

import (
	"testing"

	"github.com/deemkeen/fedisync/origin"
)

var testOrigin = origin.Origin{ID: 1, Type: origin.TypeGnuSocial, Name: "quitter", URL: "https://quitter.example"}

func testAccountActor() Actor {
	me := ActorFromOid(testOrigin, "101")
	me.Username = "me"
	me.BuildWebFingerID()
	return me
}

func TestTriStateConversions(t *testing.T) {
	if TriStateFromBool(true) != TriTrue || TriStateFromBool(false) != TriFalse {
		t.Error("TriStateFromBool must map onto the known states")
	}
	if TriUnknown.Known() {
		t.Error("unknown state must not report Known")
	}
	if !TriUnknown.ToBool(true) || TriUnknown.ToBool(false) {
		t.Error("ToBool of unknown must return the default")
	}
	if TriFalse.ToBool(true) {
		t.Error("ToBool of false must ignore the default")
	}
}

func TestTempOidDeterminism(t *testing.T) {
	first := Actor{Origin: testOrigin, WebFingerID: "bob@quitter.example"}
	second := Actor{Origin: testOrigin, WebFingerID: "bob@quitter.example", Username: "bob"}
	if first.TempOid() != second.TempOid() {
		t.Errorf("sightings of the same webfinger id must derive the same oid: %q vs %q",
			first.TempOid(), second.TempOid())
	}

	byUsername := Actor{Origin: testOrigin, Username: "bob"}
	if byUsername.TempOid() != TempOidPrefix+"bob" {
		t.Errorf("TempOid = %q; want username fallback", byUsername.TempOid())
	}
	if IsOidReal(byUsername.TempOid()) {
		t.Error("derived oids must not count as real")
	}
}

func TestBuildWebFingerID(t *testing.T) {
	a := Actor{Origin: testOrigin, Username: "bob"}
	a.BuildWebFingerID()
	if a.WebFingerID != "bob@quitter.example" {
		t.Errorf("WebFingerID = %q; want bob@quitter.example", a.WebFingerID)
	}

	b := Actor{Origin: testOrigin, Username: "carol@identi.ca"}
	b.BuildWebFingerID()
	if b.WebFingerID != "carol@identi.ca" {
		t.Errorf("a username that already is a webfinger id must be kept, got %q", b.WebFingerID)
	}

	c := Actor{Origin: testOrigin, Username: "bob", WebFingerID: "existing@elsewhere"}
	c.BuildWebFingerID()
	if c.WebFingerID != "existing@elsewhere" {
		t.Errorf("an already set webfinger id must not be overwritten, got %q", c.WebFingerID)
	}
}

func TestSameActor(t *testing.T) {
	byID := Actor{ID: 5, Origin: testOrigin}
	alsoByID := Actor{ID: 5, Origin: testOrigin, Oid: "different"}
	if !byID.SameActor(alsoByID) {
		t.Error("matching ids must compare equal")
	}

	byOid := Actor{Origin: testOrigin, Oid: "42"}
	alsoByOid := Actor{Origin: testOrigin, Oid: "42", Username: "other"}
	if !byOid.SameActor(alsoByOid) {
		t.Error("matching real oids within one origin must compare equal")
	}

	temp := Actor{Origin: testOrigin, Oid: TempOidPrefix + "bob", WebFingerID: "bob@quitter.example"}
	real := Actor{Origin: testOrigin, Oid: "77", WebFingerID: "bob@quitter.example"}
	if !temp.SameActor(real) {
		t.Error("a temp-oid sighting must match its real row via webfinger")
	}

	if (Actor{}).SameActor(Actor{}) {
		t.Error("empty actors never match")
	}
}

func TestObjectTypePrecedence(t *testing.T) {
	me := testAccountActor()

	inner := NewActivity(me, ActivityCreate)
	inner.Note = NewNote(testOrigin, "n1")

	outer := NewActivity(me, ActivityAnnounce)
	outer.Note = NewNote(testOrigin, "ignored")
	outer.Activity = inner
	if outer.ObjectType() != ObjectActivity {
		t.Errorf("a wrapped activity wins over a note, got %v", outer.ObjectType())
	}

	follow := NewActivity(me, ActivityFollow)
	follow.ObjActor = ActorFromOid(testOrigin, "55")
	if follow.ObjectType() != ObjectActor {
		t.Errorf("ObjectType = %v; want actor", follow.ObjectType())
	}

	if NewActivity(me, ActivityCreate).ObjectType() != ObjectEmpty {
		t.Error("an activity with no object is empty")
	}
}

func TestReblogAuthorAndPosition(t *testing.T) {
	me := testAccountActor()
	author := ActorFromOid(testOrigin, "10")
	reblogger := ActorFromOid(testOrigin, "20")

	inner := NewActivity(me, ActivityUpdate)
	inner.Actor = author
	inner.Note = NewNote(testOrigin, "250")

	outer := NewActivity(me, ActivityAnnounce)
	outer.Actor = reblogger
	outer.Activity = inner

	if got := outer.Author(); !got.SameActor(author) {
		t.Errorf("Author = %v; want the inner note's author", got)
	}
	if outer.IsAuthorActor() {
		t.Error("the reblogger is not the author")
	}
	if got := outer.Position(); got != TimelinePosition("250") {
		t.Errorf("Position = %q; the oid-less wrapper must fall back to the note oid", got)
	}
	if got := outer.GetNote(); got == nil || got.Oid != "250" {
		t.Errorf("GetNote must descend into the wrapped activity, got %v", got)
	}
}

func TestNewNotificationEvent(t *testing.T) {
	me := testAccountActor()
	other := ActorFromOid(testOrigin, "55")

	follow := me.Act(other, me, ActivityFollow)
	if got := follow.NewNotificationEvent(); got != EventFollow {
		t.Errorf("follow of me = %v; want EventFollow", got)
	}

	followElse := ActorFromOid(testOrigin, "66").Act(other, me, ActivityFollow)
	if got := followElse.NewNotificationEvent(); got != EventNone {
		t.Errorf("follow of someone else = %v; want EventNone", got)
	}

	mention := NewActivity(me, ActivityCreate)
	mention.Actor = other
	mention.Note = NewNote(testOrigin, "n1")
	mention.Note.Audience.Add(me)
	if got := mention.NewNotificationEvent(); got != EventMention {
		t.Errorf("public mention = %v; want EventMention", got)
	}

	mention.Note.Public = TriFalse
	if got := mention.NewNotificationEvent(); got != EventPrivate {
		t.Errorf("non-public mention = %v; want EventPrivate", got)
	}

	mention.Notified = TriFalse
	if got := mention.NewNotificationEvent(); got != EventNone {
		t.Errorf("a muted activity must not notify, got %v", got)
	}

	myNote := NewActivity(me, ActivityUpdate)
	myNote.Actor = me
	myNote.Note = NewNote(testOrigin, "mine")
	like := NewActivity(me, ActivityLike)
	like.Actor = other
	like.Activity = myNote
	if got := like.NewNotificationEvent(); got != EventLike {
		t.Errorf("like of my note = %v; want EventLike", got)
	}

	// The note author decides, not the liker, when the note is the
	// direct object.
	directLike := NewActivity(me, ActivityLike)
	directLike.Actor = other
	directLike.Note = NewNote(testOrigin, "mine-direct")
	directLike.Note.Author = me
	if got := directLike.NewNotificationEvent(); got != EventLike {
		t.Errorf("like carrying my note directly = %v; want EventLike", got)
	}
}

func TestToSearchText(t *testing.T) {
	got := ToSearchText(`<p>Hello <b>World</b>, see <a href="https://example.com">this</a></p>`)
	if got != "hello world, see this" {
		t.Errorf("ToSearchText = %q; want tags stripped and lowercased", got)
	}

	if got := ToSearchText("  Plain   TEXT\nhere "); got != "plain text here" {
		t.Errorf("ToSearchText = %q; want whitespace collapsed", got)
	}

	if got := ToSearchText(""); got != "" {
		t.Errorf("ToSearchText of empty = %q; want empty", got)
	}
}

func TestConversationOidDerivation(t *testing.T) {
	n := NewNote(testOrigin, "500")
	if n.HasRealConversationOid() {
		t.Error("a fresh note has no conversation oid")
	}
	n.SetConversationOidFromNote()
	if n.ConversationOid != TempOidPrefix+"500" {
		t.Errorf("derived conversation oid = %q", n.ConversationOid)
	}
	if n.HasRealConversationOid() {
		t.Error("a derived conversation oid is not real")
	}

	n.ConversationOid = "conv-1"
	if !n.HasRealConversationOid() {
		t.Error("an origin-assigned conversation oid is real")
	}
}
