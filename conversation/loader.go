package conversation

import (
	"log"
	"sort"

	"github.com/deemkeen/fedisync/connection"
	"github.com/deemkeen/fedisync/data"
	"github.com/deemkeen/fedisync/db"
	"github.com/deemkeen/fedisync/domain"
)

// MaxIndentLevel caps visual nesting; deeper branches stay at the cap.
const MaxIndentLevel = 19

// Item is one note of a reconstructed conversation, with the display
// orderings assigned by the loader.
type Item struct {
	NoteID          int64
	Oid             string
	Body            string
	UpdatedDate     int64
	InReplyToNoteID int64

	// ReplyLevel is the depth relative to the note the load started
	// from: replies positive, ancestors negative.
	ReplyLevel int

	NReplies       int
	NParentReplies int

	// ListOrder decreases from -1 in the display traversal.
	// HistoryOrder increases from 1 root to leaf.
	ListOrder    int
	HistoryOrder int
	IndentLevel  int
}

// Loader reconstructs the reply tree around one note from the local
// store, optionally fetching missing notes from the origin.
type Loader struct {
	store   *db.DB
	conn    connection.Connection
	updater *data.Updater

	// AllowLoadingFromInternet permits remote fetches of notes that
	// are only stubs locally.
	AllowLoadingFromInternet bool

	items        map[int64]*Item
	listOrder    int
	historyOrder int
}

func NewLoader(store *db.DB, conn connection.Connection, updater *data.Updater) *Loader {
	return &Loader{store: store, conn: conn, updater: updater}
}

// Load collects the conversation around the given note: its ancestor
// chain and every recursive reply, each note exactly once, and
// assigns the display orderings.
func (l *Loader) Load(noteID int64) (error, []*Item) {
	l.items = make(map[int64]*Item)
	l.listOrder = -1
	l.historyOrder = 1

	l.addNote(noteID, 0)

	l.countReplies()
	list := l.sortedItems()
	l.enumerate(list)

	return nil, list
}

// addNote pulls one note and expands both directions from it. A note
// id already visited in this expansion is never re-queued, so reply
// cycles cannot loop.
func (l *Loader) addNote(noteID int64, replyLevel int) {
	if noteID <= 0 {
		return
	}
	if _, visited := l.items[noteID]; visited {
		return
	}

	err, note := l.store.ReadNote(nil, noteID)
	if err != nil || note == nil {
		if err != nil {
			log.Printf("Conversation: failed to read note %d: %v", noteID, err)
		}
		return
	}

	if note.Status != domain.StatusLoaded && domain.IsOidReal(note.Oid) {
		if fetched := l.fetchFromOrigin(note.Oid); fetched != nil {
			note = fetched
		}
	}

	item := &Item{
		NoteID:      note.NoteID,
		Oid:         note.Oid,
		Body:        note.Body,
		UpdatedDate: note.UpdatedDate,
		ReplyLevel:  replyLevel,
	}
	if note.InReplyTo != nil && note.InReplyTo.GetNote() != nil {
		item.InReplyToNoteID = note.InReplyTo.GetNote().NoteID
	}
	l.items[noteID] = item

	if item.InReplyToNoteID > 0 {
		l.addNote(item.InReplyToNoteID, replyLevel-1)
	}

	err, replyIDs := l.store.ReplyIDs(noteID)
	if err != nil {
		log.Printf("Conversation: failed to list replies of %d: %v", noteID, err)
		return
	}
	for _, replyID := range replyIDs {
		l.addNote(replyID, replyLevel+1)
	}
}

func (l *Loader) fetchFromOrigin(oid string) *domain.Note {
	if !l.AllowLoadingFromInternet || l.conn == nil || l.updater == nil {
		return nil
	}
	activity, err := l.conn.GetNote(oid)
	if err != nil {
		log.Printf("Conversation: failed to fetch note %s: %v", oid, err)
		return nil
	}
	if err := l.updater.MergeActivity(activity); err != nil {
		log.Printf("Conversation: failed to merge fetched note %s: %v", oid, err)
		return nil
	}
	return activity.GetNote()
}

func (l *Loader) countReplies() {
	for _, item := range l.items {
		if parent, ok := l.items[item.InReplyToNoteID]; ok {
			parent.NReplies++
		}
	}
	for _, item := range l.items {
		if parent, ok := l.items[item.InReplyToNoteID]; ok {
			item.NParentReplies = parent.NReplies
		}
	}
}

// sortedItems orders by descending reply level, then descending
// updated date, then descending id as the deterministic tie-break.
func (l *Loader) sortedItems() []*Item {
	list := make([]*Item, 0, len(l.items))
	for _, item := range l.items {
		list = append(list, item)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ReplyLevel != list[j].ReplyLevel {
			return list[i].ReplyLevel > list[j].ReplyLevel
		}
		if list[i].UpdatedDate != list[j].UpdatedDate {
			return list[i].UpdatedDate > list[j].UpdatedDate
		}
		return list[i].NoteID > list[j].NoteID
	})
	return list
}

// enumerate assigns listOrder, historyOrder and indent in one
// top-down walk over each branch root (a note whose parent is outside
// the collected set).
func (l *Loader) enumerate(list []*Item) {
	enumerated := make(map[int64]bool)
	for _, item := range list {
		if _, hasParent := l.items[item.InReplyToNoteID]; !hasParent {
			l.enumerateBranch(item, list, enumerated, 0)
		}
	}
	// A malformed cycle has no branch root; pick up whatever is left.
	for _, item := range list {
		if !enumerated[item.NoteID] {
			l.enumerateBranch(item, list, enumerated, 0)
		}
	}
}

func (l *Loader) enumerateBranch(item *Item, list []*Item, enumerated map[int64]bool, indent int) {
	if enumerated[item.NoteID] {
		return
	}
	enumerated[item.NoteID] = true

	item.IndentLevel = indent
	item.HistoryOrder = l.historyOrder
	l.historyOrder++

	// Children indent one level below any branching point: a note with
	// several replies, or a sibling of one.
	next := indent
	if (item.NReplies > 1 || item.NParentReplies > 1) && next < MaxIndentLevel {
		next++
	}
	for _, candidate := range list {
		if candidate.InReplyToNoteID == item.NoteID {
			l.enumerateBranch(candidate, list, enumerated, next)
		}
	}

	item.ListOrder = l.listOrder
	l.listOrder--
}
