package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/util"
	"github.com/gin-gonic/gin"
)

func setupWeb(t *testing.T) (*util.AppConfig, *db.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	conf := &util.AppConfig{}
	conf.Conf.Host = "localhost"
	conf.Conf.HttpPort = 8080
	return conf, store
}

func insertLoadedNote(t *testing.T, store *db.DB, oid string, body string, inReplyTo int64, date int64) int64 {
	t.Helper()
	v := db.NewValues()
	v.Put("origin_id", int64(1))
	v.Put("oid", oid)
	v.Put("status", domain.StatusLoaded.ID())
	v.PutNonEmpty("body", body)
	v.Put("updated_date", date)
	v.PutPositive("in_reply_to_note_id", inReplyTo)
	err, id := store.InsertNote(v)
	if err != nil {
		t.Fatalf("InsertNote failed: %v", err)
	}
	return id
}

func TestStatusEndpoint(t *testing.T) {
	conf, store := setupWeb(t)
	insertLoadedNote(t, store, "100", "hello", 0, 1000)

	g := engine(conf, store)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	g.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var body struct {
		Notes  int64 `json:"notes"`
		Actors int64 `json:"actors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Notes != 1 {
		t.Errorf("notes = %d; want 1", body.Notes)
	}
}

func TestFeedEndpoint(t *testing.T) {
	conf, store := setupWeb(t)
	insertLoadedNote(t, store, "100", "first post", 0, 1000)
	insertLoadedNote(t, store, "200", "second post", 0, 2000)

	g := engine(conf, store)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req.Header.Set("Accept-Encoding", "identity")
	g.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Errorf("Content-Type = %q; want application/xml", ct)
	}
	rss := w.Body.String()
	if !strings.Contains(rss, "first post") || !strings.Contains(rss, "second post") {
		t.Errorf("rss feed missing note bodies: %s", rss)
	}
	if strings.Index(rss, "second post") > strings.Index(rss, "first post") {
		t.Errorf("rss feed must list newest notes first")
	}
}

func TestConversationEndpoint(t *testing.T) {
	conf, store := setupWeb(t)
	root := insertLoadedNote(t, store, "root", "root note", 0, 1000)
	insertLoadedNote(t, store, "reply", "reply note", root, 2000)

	g := engine(conf, store)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversation/"+strconv.FormatInt(root, 10), nil)
	req.Header.Set("Accept-Encoding", "identity")
	g.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var entries []struct {
		Oid          string `json:"oid"`
		HistoryOrder int    `json:"historyOrder"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d conversation entries; want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.HistoryOrder == 0 {
			t.Errorf("note %s was not enumerated", entry.Oid)
		}
	}
}

func TestConversationEndpointInvalidID(t *testing.T) {
	conf, store := setupWeb(t)

	g := engine(conf, store)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/conversation/nonsense", nil)
	g.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}
