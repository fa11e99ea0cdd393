package db

import (
	"database/sql"

	"github.com/deemkeen/fedisync/domain"
)

const (
	sqlSelectTimeline = `SELECT id, timeline_type, origin_id, actor_id, search_query,
		youngest_position, oldest_position, youngest_item_date, oldest_item_date,
		youngest_synced_date, oldest_synced_date, sync_count, downloaded_count,
		new_items_count, count_since
		FROM timelines WHERE timeline_type = ? AND origin_id = ? AND actor_id = ? AND search_query = ?`
	sqlInsertTimeline = `INSERT INTO timelines(timeline_type, origin_id, actor_id, search_query)
		VALUES (?, ?, ?, ?)`
	sqlUpdateTimeline = `UPDATE timelines SET
		youngest_position = ?, oldest_position = ?,
		youngest_item_date = ?, oldest_item_date = ?,
		youngest_synced_date = ?, oldest_synced_date = ?,
		sync_count = ?, downloaded_count = ?, new_items_count = ?, count_since = ?
		WHERE id = ?`
)

// ReadTimeline loads the cursor state of one syncable stream,
// creating the row on first use.
func (db *DB) ReadTimeline(ttype domain.TimelineType, originID int64, actorID int64, searchQuery string) (error, *domain.Timeline) {
	row := db.db.QueryRow(sqlSelectTimeline, ttype.ID(), originID, actorID, searchQuery)
	var t domain.Timeline
	var typeID int64
	var youngest, oldest string
	err := row.Scan(&t.ID, &typeID, &t.OriginID, &t.ActorID, &t.SearchQuery,
		&youngest, &oldest, &t.YoungestItemDate, &t.OldestItemDate,
		&t.YoungestSyncedDate, &t.OldestSyncedDate, &t.SyncCount,
		&t.DownloadedCount, &t.NewItemsCount, &t.CountSince)
	if err == sql.ErrNoRows {
		return db.createTimeline(ttype, originID, actorID, searchQuery)
	}
	if err != nil {
		return err, nil
	}
	t.Type = domain.TimelineTypeFromID(typeID)
	t.YoungestPosition = domain.TimelinePosition(youngest)
	t.OldestPosition = domain.TimelinePosition(oldest)
	return nil, &t
}

func (db *DB) createTimeline(ttype domain.TimelineType, originID int64, actorID int64, searchQuery string) (error, *domain.Timeline) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(sqlInsertTimeline, ttype.ID(), originID, actorID, searchQuery)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err, nil
	}
	return nil, &domain.Timeline{
		ID:          id,
		Type:        ttype,
		OriginID:    originID,
		ActorID:     actorID,
		SearchQuery: searchQuery,
	}
}

// SaveTimeline persists the cursor state after a sync step.
func (db *DB) SaveTimeline(t *domain.Timeline) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateTimeline,
			t.YoungestPosition.String(), t.OldestPosition.String(),
			t.YoungestItemDate, t.OldestItemDate,
			t.YoungestSyncedDate, t.OldestSyncedDate,
			t.SyncCount, t.DownloadedCount, t.NewItemsCount, t.CountSince,
			t.ID)
		return err
	})
}
