package db

import (
	"database/sql"

	"github.com/deemkeen/fedisync/domain"
)

const (
	sqlSelectActivityIDByOid = `SELECT id FROM activities
		WHERE origin_id = ? AND oid = ? AND account_actor_id = ?`
	sqlSelectActivityFlags = `SELECT subscribed, notified, updated_date FROM activities WHERE id = ?`

	sqlSelectFeedItems = `SELECT notes.id, notes.oid, notes.body, notes.url, notes.updated_date,
			actors.username, actors.real_name, actors.webfinger_id
		FROM notes
		LEFT JOIN actors ON actors.id = notes.author_id
		WHERE notes.status = ? AND notes.body <> ''
		ORDER BY notes.updated_date DESC
		LIMIT ?`

	sqlCountActivities = `SELECT COUNT(*) FROM activities`
	sqlCountNotes      = `SELECT COUNT(*) FROM notes`
	sqlCountActors     = `SELECT COUNT(*) FROM actors`
)

// ActivityIDByOid resolves an activity row as seen by one account.
func (db *DB) ActivityIDByOid(originID int64, oid string, accountActorID int64) (error, int64) {
	return db.longValue(sqlSelectActivityIDByOid, originID, oid, accountActorID)
}

// ActivityFlags reads the stored subscription flags and date of an
// activity row, for merge decisions.
func (db *DB) ActivityFlags(id int64) (err error, subscribed, notified domain.TriState, updatedDate int64) {
	var subVal, notVal int64
	err = db.db.QueryRow(sqlSelectActivityFlags, id).Scan(&subVal, &notVal, &updatedDate)
	if err == sql.ErrNoRows {
		return nil, domain.TriUnknown, domain.TriUnknown, 0
	}
	if err != nil {
		return err, domain.TriUnknown, domain.TriUnknown, 0
	}
	return nil, domain.TriStateFromID(subVal), domain.TriStateFromID(notVal), updatedDate
}

// InsertActivity inserts a new activity row from the given column set.
func (db *DB) InsertActivity(v *Values) (error, int64) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		err, newID := insertRow(tx, "activities", v)
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	return err, id
}

// UpdateActivity applies a partial column set to an existing activity row.
func (db *DB) UpdateActivity(id int64, v *Values) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return updateRow(tx, "activities", id, v)
	})
}

// FeedItem is one row of the local feed view.
type FeedItem struct {
	NoteID      int64
	Oid         string
	Body        string
	URL         string
	UpdatedDate int64
	AuthorName  string
}

// ReadFeedItems lists the most recent fully loaded notes with their
// author names, newest first.
func (db *DB) ReadFeedItems(limit int) (error, *[]FeedItem) {
	rows, err := db.db.Query(sqlSelectFeedItems, domain.StatusLoaded.ID(), limit)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var items []FeedItem
	for rows.Next() {
		var item FeedItem
		var username, realName, webFinger sql.NullString
		if err := rows.Scan(&item.NoteID, &item.Oid, &item.Body, &item.URL,
			&item.UpdatedDate, &username, &realName, &webFinger); err != nil {
			return err, &items
		}
		switch {
		case webFinger.String != "":
			item.AuthorName = webFinger.String
		case realName.String != "":
			item.AuthorName = realName.String
		default:
			item.AuthorName = username.String
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return err, &items
	}
	return nil, &items
}

// Counts reports row totals for the status endpoint.
func (db *DB) Counts() (err error, activities, notes, actors int64) {
	if err, activities = db.longValue(sqlCountActivities); err != nil {
		return err, 0, 0, 0
	}
	if err, notes = db.longValue(sqlCountNotes); err != nil {
		return err, 0, 0, 0
	}
	if err, actors = db.longValue(sqlCountActors); err != nil {
		return err, 0, 0, 0
	}
	return nil, activities, notes, actors
}
