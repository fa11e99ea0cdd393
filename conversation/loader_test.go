package conversation

import (
	"strconv"
	"testing"

	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

var testOrigin = origin.Origin{ID: 1, Type: origin.TypeGnuSocial, Name: "quitter", URL: "https://quitter.example"}

func setupStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func insertNote(t *testing.T, store *db.DB, oid string, inReplyTo int64, date int64) int64 {
	t.Helper()
	v := db.NewValues()
	v.Put("origin_id", testOrigin.ID)
	v.Put("oid", oid)
	v.Put("status", domain.StatusLoaded.ID())
	v.PutNonEmpty("body", "note "+oid)
	v.Put("updated_date", date)
	v.PutPositive("in_reply_to_note_id", inReplyTo)
	err, id := store.InsertNote(v)
	if err != nil {
		t.Fatalf("InsertNote failed: %v", err)
	}
	return id
}

func itemByOid(items []*Item, oid string) *Item {
	for _, item := range items {
		if item.Oid == oid {
			return item
		}
	}
	return nil
}

func TestReplyChainOrdering(t *testing.T) {
	store := setupStore(t)

	a := insertNote(t, store, "A", 0, 1000)
	b := insertNote(t, store, "B", a, 2000)
	c := insertNote(t, store, "C", b, 3000)
	d := insertNote(t, store, "D", c, 4000)

	loader := NewLoader(store, nil, nil)
	// Start from a mid-chain note: ancestors and replies both load.
	err, items := loader.Load(b)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items; want 4", len(items))
	}

	order := []int64{a, b, c, d}
	oids := []string{"A", "B", "C", "D"}
	prevHistory := 0
	prevIndent := 0
	for i, oid := range oids {
		item := itemByOid(items, oid)
		if item == nil {
			t.Fatalf("note %s missing from conversation", oid)
		}
		if item.NoteID != order[i] {
			t.Errorf("note %s has id %d; want %d", oid, item.NoteID, order[i])
		}
		if item.HistoryOrder <= prevHistory {
			t.Errorf("historyOrder of %s = %d; must increase root to leaf (prev %d)",
				oid, item.HistoryOrder, prevHistory)
		}
		if item.IndentLevel < prevIndent {
			t.Errorf("indentLevel of %s = %d; must not decrease with depth (prev %d)",
				oid, item.IndentLevel, prevIndent)
		}
		prevHistory = item.HistoryOrder
		prevIndent = item.IndentLevel
	}

	root := itemByOid(items, "A")
	leaf := itemByOid(items, "D")
	if root.ListOrder >= leaf.ListOrder {
		t.Errorf("listOrder must decrease along the walk: root %d, leaf %d",
			root.ListOrder, leaf.ListOrder)
	}
}

func TestReplyCycleSafety(t *testing.T) {
	store := setupStore(t)

	a := insertNote(t, store, "A", 0, 1000)
	b := insertNote(t, store, "B", a, 2000)
	// Malformed: A claims to reply to B, closing a cycle.
	v := db.NewValues()
	v.Put("in_reply_to_note_id", b)
	if err := store.UpdateNote(a, v); err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}

	loader := NewLoader(store, nil, nil)
	err, items := loader.Load(a)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items; want each note exactly once", len(items))
	}
	seen := map[int64]bool{}
	for _, item := range items {
		if seen[item.NoteID] {
			t.Errorf("note %d appears twice", item.NoteID)
		}
		seen[item.NoteID] = true
		if item.HistoryOrder == 0 {
			t.Errorf("note %d was not enumerated", item.NoteID)
		}
	}
}

func TestBranchingIncreasesIndent(t *testing.T) {
	store := setupStore(t)

	root := insertNote(t, store, "root", 0, 1000)
	r1 := insertNote(t, store, "r1", root, 2000)
	insertNote(t, store, "r2", root, 3000)
	insertNote(t, store, "r1a", r1, 4000)

	loader := NewLoader(store, nil, nil)
	err, items := loader.Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items; want 4", len(items))
	}

	if got := itemByOid(items, "root").IndentLevel; got != 0 {
		t.Errorf("root indent = %d; want 0", got)
	}
	// The root has two replies, so both replies indent one level.
	if got := itemByOid(items, "r1").IndentLevel; got != 1 {
		t.Errorf("r1 indent = %d; want 1", got)
	}
	if got := itemByOid(items, "r2").IndentLevel; got != 1 {
		t.Errorf("r2 indent = %d; want 1", got)
	}
	// A lone reply below a branch sibling indents one deeper: its
	// parent sits next to r2, so it cannot share the parent's level.
	if got := itemByOid(items, "r1a").IndentLevel; got != 2 {
		t.Errorf("r1a indent = %d; want 2", got)
	}
}

func TestIndentCappedOnDeepBranches(t *testing.T) {
	store := setupStore(t)

	// Every level branches, so indent grows by one per level until the
	// cap.
	parent := insertNote(t, store, "top", 0, 1000)
	date := int64(2000)
	var last string
	for level := 0; level < MaxIndentLevel+3; level++ {
		oid := "n" + strconv.Itoa(level)
		insertNote(t, store, oid+"-side", parent, date)
		date++
		parent = insertNote(t, store, oid, parent, date)
		date++
		last = oid
	}

	loader := NewLoader(store, nil, nil)
	err, items := loader.Load(1)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, item := range items {
		if item.IndentLevel > MaxIndentLevel {
			t.Fatalf("indent %d of %s exceeds the cap", item.IndentLevel, item.Oid)
		}
	}
	if got := itemByOid(items, last).IndentLevel; got != MaxIndentLevel {
		t.Errorf("deepest note indent = %d; want the cap %d", got, MaxIndentLevel)
	}
}
