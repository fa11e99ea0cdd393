package db

import (
	"database/sql"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

const (
	sqlSelectNoteIDByOid       = `SELECT id FROM notes WHERE origin_id = ? AND oid = ?`
	sqlSelectNoteStatus        = `SELECT status FROM notes WHERE id = ?`
	sqlSelectNoteUpdatedDate   = `SELECT updated_date FROM notes WHERE id = ?`
	sqlSelectConversationByOid = `SELECT conversation_id FROM notes
		WHERE origin_id = ? AND conversation_oid = ? AND conversation_id > 0 LIMIT 1`
	sqlSelectNoteByID = `SELECT id, origin_id, oid, status, body, content_to_search, via, url,
		conversation_oid, conversation_id, in_reply_to_note_id, public, favorited, updated_date
		FROM notes WHERE id = ?`
	sqlSelectNoteAuthorID = `SELECT author_id FROM notes WHERE id = ?`
	sqlSelectReplyIDs     = `SELECT id FROM notes WHERE in_reply_to_note_id = ?`
	sqlUpdateConversation = `UPDATE notes SET conversation_id = ?, conversation_oid = ?
		WHERE origin_id = ? AND conversation_oid = ?`

	sqlDeleteAudience   = `DELETE FROM audience WHERE note_id = ?`
	sqlInsertAudience   = `INSERT OR IGNORE INTO audience(note_id, actor_id) VALUES (?, ?)`
	sqlSelectAudience   = `SELECT actor_id FROM audience WHERE note_id = ?`
	sqlDeleteAttachment = `DELETE FROM attachments WHERE note_id = ?`
	sqlInsertAttachment = `INSERT OR IGNORE INTO attachments(note_id, uri, content_type) VALUES (?, ?, ?)`
	sqlSelectAttachment = `SELECT uri, content_type FROM attachments WHERE note_id = ? ORDER BY id`
)

// NoteIDByOid resolves a note row by its origin id pair.
func (db *DB) NoteIDByOid(originID int64, oid string) (error, int64) {
	return db.longValue(sqlSelectNoteIDByOid, originID, oid)
}

// NoteStatus reads the stored download status of a note row.
func (db *DB) NoteStatus(id int64) (error, domain.DownloadStatus) {
	err, val := db.longValue(sqlSelectNoteStatus, id)
	return err, domain.DownloadStatusFromID(val)
}

// NoteUpdatedDate reads the stored updated date of a note row.
func (db *DB) NoteUpdatedDate(id int64) (error, int64) {
	return db.longValue(sqlSelectNoteUpdatedDate, id)
}

// NoteAuthorID reads the author of a note row.
func (db *DB) NoteAuthorID(id int64) (error, int64) {
	return db.longValue(sqlSelectNoteAuthorID, id)
}

// ConversationIDByOid finds the local conversation id already
// assigned to some note carrying the given conversation oid.
func (db *DB) ConversationIDByOid(originID int64, conversationOid string) (error, int64) {
	return db.longValue(sqlSelectConversationByOid, originID, conversationOid)
}

// RebindConversation moves every note filed under a temporary
// conversation oid to the real conversation, once it is known.
func (db *DB) RebindConversation(originID int64, tempOid string, conversationID int64, realOid string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateConversation, conversationID, realOid, originID, tempOid)
		return err
	})
}

func (db *DB) ReadNote(reg *origin.Registry, id int64) (error, *domain.Note) {
	row := db.db.QueryRow(sqlSelectNoteByID, id)
	var n domain.Note
	var originID, inReplyToNoteID, public, favorited int64
	var status int64
	err := row.Scan(&n.NoteID, &originID, &n.Oid, &status, &n.Body, &n.ContentToSearch,
		&n.Via, &n.URL, &n.ConversationOid, &n.ConversationID, &inReplyToNoteID,
		&public, &favorited, &n.UpdatedDate)
	if err == sql.ErrNoRows {
		return err, nil
	}
	if err != nil {
		return err, nil
	}
	if reg != nil {
		n.Origin = reg.FromID(originID)
	}
	n.Status = domain.DownloadStatusFromID(status)
	n.Public = domain.TriStateFromID(public)
	n.Favorited = domain.TriStateFromID(favorited)
	if inReplyToNoteID > 0 {
		parent := domain.NewNote(n.Origin, "")
		parent.NoteID = inReplyToNoteID
		n.InReplyTo = &domain.Activity{Type: domain.ActivityUpdate, Note: parent}
	}
	return nil, &n
}

// InsertNote inserts a new note row from the given column set.
func (db *DB) InsertNote(v *Values) (error, int64) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		err, newID := insertRow(tx, "notes", v)
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	return err, id
}

// UpdateNote applies a partial column set to an existing note row.
func (db *DB) UpdateNote(id int64, v *Values) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return updateRow(tx, "notes", id, v)
	})
}

// ReplaceAudience rewrites the full recipient set of a note.
func (db *DB) ReplaceAudience(noteID int64, actorIDs []int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(sqlDeleteAudience, noteID); err != nil {
			return err
		}
		for _, actorID := range actorIDs {
			if _, err := tx.Exec(sqlInsertAudience, noteID, actorID); err != nil {
				return err
			}
		}
		return nil
	})
}

// AudienceIDs lists the recipient actor ids of a note.
func (db *DB) AudienceIDs(noteID int64) (error, []int64) {
	rows, err := db.db.Query(sqlSelectAudience, noteID)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err, ids
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return err, ids
	}
	return nil, ids
}

// ReplaceAttachments rewrites the full attachment list of a note.
func (db *DB) ReplaceAttachments(noteID int64, attachments []domain.Attachment) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(sqlDeleteAttachment, noteID); err != nil {
			return err
		}
		for _, att := range attachments {
			if !att.IsValid() {
				continue
			}
			if _, err := tx.Exec(sqlInsertAttachment, noteID, att.URI, att.ContentType); err != nil {
				return err
			}
		}
		return nil
	})
}

// Attachments lists the stored attachments of a note.
func (db *DB) Attachments(noteID int64) (error, []domain.Attachment) {
	rows, err := db.db.Query(sqlSelectAttachment, noteID)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var atts []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.URI, &att.ContentType); err != nil {
			return err, atts
		}
		atts = append(atts, att)
	}
	if err = rows.Err(); err != nil {
		return err, atts
	}
	return nil, atts
}

// ReplyIDs lists the note ids replying directly to the given note.
func (db *DB) ReplyIDs(noteID int64) (error, []int64) {
	rows, err := db.db.Query(sqlSelectReplyIDs, noteID)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err, ids
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return err, ids
	}
	return nil, ids
}
