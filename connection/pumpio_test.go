package connection

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

const pumpioInboxPage = `{"items": [
	{"id": "https://pump.example/activity/2",
	 "verb": "follow",
	 "updated": "2014-08-27T13:08:45Z",
	 "actor": {"id": "acct:me@pump.example", "objectType": "person", "displayName": "Me"},
	 "object": {"id": "acct:jpope@pump.example", "objectType": "person", "displayName": "J. Pope"}},
	{"id": "https://pump.example/activity/1",
	 "verb": "post",
	 "updated": "2014-08-27T12:08:45Z",
	 "actor": {"id": "acct:ann@pump.example", "objectType": "person", "displayName": "Ann"},
	 "object": {"id": "https://pump.example/note/1", "objectType": "note",
	            "content": "<p>hello <b>world</b></p>",
	            "url": "https://pump.example/ann/note/1"},
	 "to": [{"id": "http://activityschema.org/collection/public", "objectType": "collection"}]}
]}`

func pumpioTestConn(t *testing.T, handler http.HandlerFunc) (Connection, origin.Origin, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o := origin.Origin{ID: 2, Type: origin.TypePumpio, Name: "pumptest", URL: server.URL}
	accountActor := domain.ActorFromOid(o, "acct:me@pump.example")
	accountActor.Username = "me@pump.example"
	accountActor.WebFingerID = "me@pump.example"

	conn, err := ForOrigin(o, accountActor, Credentials{AccessToken: "token"})
	if err != nil {
		t.Fatalf("ForOrigin failed: %v", err)
	}
	return conn, o, server
}

func TestPumpioGetTimeline(t *testing.T) {
	conn, _, _ := pumpioTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/me/inbox/major" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(pumpioInboxPage))
	})

	activities, err := conn.GetTimeline(RoutineHome, domain.EmptyPosition, domain.EmptyPosition, 20, "")
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("got %d activities; want 2", len(activities))
	}

	// Chronological: the post first, the follow second.
	post := activities[0]
	if post.Type != domain.ActivityCreate {
		t.Errorf("post type = %s; want CREATE", post.Type)
	}
	note := post.GetNote()
	if note == nil || note.Oid != "https://pump.example/note/1" {
		t.Fatalf("unexpected note: %+v", note)
	}
	if !note.Public.IsTrue() {
		t.Errorf("note addressed to the public collection should be public, got %s", note.Public)
	}
	if note.ContentToSearch != "hello world" {
		t.Errorf("ContentToSearch = %q; want plain lowercased text", note.ContentToSearch)
	}
	if post.Actor.WebFingerID != "ann@pump.example" {
		t.Errorf("actor webfinger = %q", post.Actor.WebFingerID)
	}

	follow := activities[1]
	if follow.Type != domain.ActivityFollow {
		t.Fatalf("follow type = %s; want FOLLOW", follow.Type)
	}
	if follow.ObjectType() != domain.ObjectActor {
		t.Fatalf("follow object type = %s; want ACTOR", follow.ObjectType())
	}
	if !follow.ObjActor.FollowedByMe.IsTrue() {
		t.Errorf("followedByMe = %s; want true when my account follows", follow.ObjActor.FollowedByMe)
	}
	if follow.ObjActor.WebFingerID != "jpope@pump.example" {
		t.Errorf("object actor webfinger = %q", follow.ObjActor.WebFingerID)
	}
}

func TestPumpioFollowActor(t *testing.T) {
	conn, _, _ := pumpioTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/user/me/feed" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id": "https://pump.example/activity/9",
			"verb": "follow",
			"updated": "2014-08-27T14:00:00Z",
			"actor": {"id": "acct:me@pump.example", "objectType": "person"},
			"object": {"id": "acct:other@pump.example", "objectType": "person"}}`))
	})

	a, err := conn.FollowActor("acct:other@pump.example", true)
	if err != nil {
		t.Fatalf("FollowActor failed: %v", err)
	}
	if a.Type != domain.ActivityFollow {
		t.Errorf("type = %s; want FOLLOW", a.Type)
	}
	if !a.ObjActor.FollowedByMe.IsTrue() {
		t.Errorf("followedByMe = %s; want true", a.ObjActor.FollowedByMe)
	}
}

func TestPumpioFavoriteCarriesNoteAuthor(t *testing.T) {
	conn, _, _ := pumpioTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"id": "https://pump.example/activity/5",
			 "verb": "favorite",
			 "updated": "2014-08-27T15:00:00Z",
			 "actor": {"id": "acct:ann@pump.example", "objectType": "person", "displayName": "Ann"},
			 "object": {"id": "https://pump.example/note/7", "objectType": "note",
			            "content": "<p>my note</p>",
			            "author": {"id": "acct:me@pump.example", "objectType": "person"}}}
		]}`))
	})

	activities, err := conn.GetTimeline(RoutineHome, domain.EmptyPosition, domain.EmptyPosition, 20, "")
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("got %d activities; want 1", len(activities))
	}

	like := activities[0]
	if like.Type != domain.ActivityLike {
		t.Fatalf("type = %s; want LIKE", like.Type)
	}
	note := like.GetNote()
	if note == nil || note.Author.WebFingerID != "me@pump.example" {
		t.Fatalf("note author not carried from the wire: %+v", note)
	}
	if got := like.Author(); !got.SameActor(note.Author) {
		t.Errorf("Author = %v; want the note's author, not the liker", got)
	}
	if got := like.NewNotificationEvent(); got != domain.EventLike {
		t.Errorf("favorite of my own note = %v; want LIKE", got)
	}
}

func TestPumpioUnshareWire(t *testing.T) {
	conn, _, _ := pumpioTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [
			{"id": "https://pump.example/activity/6",
			 "verb": "unshare",
			 "updated": "2014-08-27T16:00:00Z",
			 "actor": {"id": "acct:ann@pump.example", "objectType": "person"},
			 "object": {"id": "https://pump.example/note/8", "objectType": "note",
			            "content": "shared once, regretted"}}
		]}`))
	})

	activities, err := conn.GetTimeline(RoutineHome, domain.EmptyPosition, domain.EmptyPosition, 20, "")
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("got %d activities; want 1, the unshare must not be dropped", len(activities))
	}
	if activities[0].Type != domain.ActivityUndoAnnounce {
		t.Errorf("type = %s; want UNDO_ANNOUNCE", activities[0].Type)
	}
	if note := activities[0].GetNote(); note == nil || note.Oid != "https://pump.example/note/8" {
		t.Errorf("unexpected note: %+v", note)
	}
}

func TestPumpioSearchUnsupported(t *testing.T) {
	conn, _, _ := pumpioTestConn(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := conn.SearchNotes("anything", 10)
	if !IsHard(err) {
		t.Errorf("search on pump.io should fail hard, got %v", err)
	}
}
