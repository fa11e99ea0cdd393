package domain

import (
	"fmt"
	"log"
	"strings"

	"github.com/deemkeen/fedisync/origin"
	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var searchTextPolicy = bluemonday.StrictPolicy()

// Note is one unit of content. It may start life as a stub (oid only,
// e.g. as an in-reply-to target) and be filled in when its own
// activity arrives.
type Note struct {
	NoteID int64
	Origin origin.Origin
	Oid    string

	Status DownloadStatus

	// Author is who wrote the note. Carried on the note itself so it
	// survives wrapping: the actor of a like or share is not the
	// author.
	Author Actor

	Body            string
	ContentToSearch string
	Via             string
	URL             string

	ConversationOid string
	ConversationID  int64

	InReplyTo *Activity
	Replies   []*Activity

	Audience    Audience
	Attachments []Attachment

	Public    TriState
	Favorited TriState

	UpdatedDate int64
}

// NewNote builds an empty note bound to an origin.
func NewNote(o origin.Origin, oid string) *Note {
	return &Note{Origin: o, Oid: oid}
}

func (n *Note) IsEmpty() bool {
	return n == nil || (n.Oid == "" && n.NoteID == 0)
}

// SetBody stores the raw body and derives the normalized search text
// from it.
func (n *Note) SetBody(body string) {
	n.Body = body
	n.ContentToSearch = ToSearchText(body)
}

// HasRealConversationOid reports whether the conversation oid came
// from the origin rather than a local derivation.
func (n *Note) HasRealConversationOid() bool {
	return IsOidReal(n.ConversationOid)
}

// SetConversationOidFromNote derives a temporary conversation oid
// from the note's own oid, to group replies before the origin tells
// us the real conversation.
func (n *Note) SetConversationOidFromNote() {
	if n.ConversationOid == "" && n.Oid != "" {
		n.ConversationOid = TempOidPrefix + n.Oid
	}
}

func (n *Note) String() string {
	if n == nil {
		return "Note[empty]"
	}
	return fmt.Sprintf("Note[id:%d, oid:%s, status:%s]", n.NoteID, n.Oid, n.Status)
}

// ToSearchText normalizes a (possibly HTML) body for keyword matching
// and full-text search: tags stripped, entities decoded, lowercased,
// whitespace collapsed.
func ToSearchText(body string) string {
	if body == "" {
		return ""
	}
	text := body
	if strings.Contains(body, "<") {
		plain, err := html2text.FromString(searchTextPolicy.Sanitize(body), html2text.Options{OmitLinks: true})
		if err != nil {
			log.Printf("Note: html to text failed, falling back to raw body: %v", err)
		} else {
			text = plain
		}
	}
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
