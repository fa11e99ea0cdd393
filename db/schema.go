package db

import "database/sql"

const (
	// Actors
	sqlCreateActorsTable = `CREATE TABLE IF NOT EXISTS actors(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin_id INTEGER NOT NULL,
		oid TEXT NOT NULL,
		username TEXT DEFAULT '',
		real_name TEXT DEFAULT '',
		webfinger_id TEXT DEFAULT '',
		description TEXT DEFAULT '',
		homepage TEXT DEFAULT '',
		profile_url TEXT DEFAULT '',
		avatar_url TEXT DEFAULT '',
		banner_url TEXT DEFAULT '',
		location TEXT DEFAULT '',
		notes_count INTEGER DEFAULT 0,
		favorites_count INTEGER DEFAULT 0,
		following_count INTEGER DEFAULT 0,
		followers_count INTEGER DEFAULT 0,
		created_date INTEGER DEFAULT 0,
		updated_date INTEGER DEFAULT 0,
		latest_activity_id INTEGER DEFAULT 0,
		latest_activity_date INTEGER DEFAULT 0,
		UNIQUE(origin_id, oid)
	)`

	sqlCreateActorsIndices = `
		CREATE INDEX IF NOT EXISTS idx_actors_webfinger ON actors(webfinger_id);
	`

	// Notes
	sqlCreateNotesTable = `CREATE TABLE IF NOT EXISTS notes(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin_id INTEGER NOT NULL,
		oid TEXT NOT NULL,
		status INTEGER DEFAULT 0,
		author_id INTEGER DEFAULT 0,
		body TEXT DEFAULT '',
		content_to_search TEXT DEFAULT '',
		via TEXT DEFAULT '',
		url TEXT DEFAULT '',
		conversation_oid TEXT DEFAULT '',
		conversation_id INTEGER DEFAULT 0,
		in_reply_to_note_id INTEGER DEFAULT 0,
		in_reply_to_actor_id INTEGER DEFAULT 0,
		public INTEGER DEFAULT 0,
		favorited INTEGER DEFAULT 0,
		updated_date INTEGER DEFAULT 0,
		UNIQUE(origin_id, oid)
	)`

	sqlCreateNotesIndices = `
		CREATE INDEX IF NOT EXISTS idx_notes_conversation ON notes(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_notes_in_reply_to ON notes(in_reply_to_note_id);
		CREATE INDEX IF NOT EXISTS idx_notes_conversation_oid ON notes(origin_id, conversation_oid);
	`

	// Activities
	sqlCreateActivitiesTable = `CREATE TABLE IF NOT EXISTS activities(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		origin_id INTEGER NOT NULL,
		oid TEXT NOT NULL,
		account_actor_id INTEGER NOT NULL,
		activity_type INTEGER NOT NULL,
		actor_id INTEGER DEFAULT 0,
		note_id INTEGER DEFAULT 0,
		obj_actor_id INTEGER DEFAULT 0,
		obj_activity_id INTEGER DEFAULT 0,
		subscribed INTEGER DEFAULT 0,
		notified INTEGER DEFAULT 0,
		notification_event INTEGER DEFAULT 0,
		updated_date INTEGER DEFAULT 0,
		UNIQUE(origin_id, oid, account_actor_id)
	)`

	sqlCreateActivitiesIndices = `
		CREATE INDEX IF NOT EXISTS idx_activities_note ON activities(note_id);
		CREATE INDEX IF NOT EXISTS idx_activities_actor ON activities(actor_id);
		CREATE INDEX IF NOT EXISTS idx_activities_updated ON activities(updated_date);
	`

	// Friendships
	sqlCreateFriendshipsTable = `CREATE TABLE IF NOT EXISTS friendships(
		actor_id INTEGER NOT NULL,
		friend_id INTEGER NOT NULL,
		followed INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (actor_id, friend_id)
	)`

	// Audience
	sqlCreateAudienceTable = `CREATE TABLE IF NOT EXISTS audience(
		note_id INTEGER NOT NULL,
		actor_id INTEGER NOT NULL,
		PRIMARY KEY (note_id, actor_id)
	)`

	// Attachments
	sqlCreateAttachmentsTable = `CREATE TABLE IF NOT EXISTS attachments(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id INTEGER NOT NULL,
		uri TEXT NOT NULL,
		content_type TEXT DEFAULT '',
		UNIQUE(note_id, uri)
	)`

	// Timelines
	sqlCreateTimelinesTable = `CREATE TABLE IF NOT EXISTS timelines(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timeline_type INTEGER NOT NULL,
		origin_id INTEGER NOT NULL,
		actor_id INTEGER NOT NULL,
		search_query TEXT DEFAULT '',
		youngest_position TEXT DEFAULT '',
		oldest_position TEXT DEFAULT '',
		youngest_item_date INTEGER DEFAULT 0,
		oldest_item_date INTEGER DEFAULT 0,
		youngest_synced_date INTEGER DEFAULT 0,
		oldest_synced_date INTEGER DEFAULT 0,
		sync_count INTEGER DEFAULT 0,
		downloaded_count INTEGER DEFAULT 0,
		new_items_count INTEGER DEFAULT 0,
		count_since INTEGER DEFAULT 0,
		UNIQUE(timeline_type, origin_id, actor_id, search_query)
	)`
)

// CreateSchema creates all tables and indices.
func (db *DB) CreateSchema() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		stmts := []string{
			sqlCreateActorsTable,
			sqlCreateActorsIndices,
			sqlCreateNotesTable,
			sqlCreateNotesIndices,
			sqlCreateActivitiesTable,
			sqlCreateActivitiesIndices,
			sqlCreateFriendshipsTable,
			sqlCreateAudienceTable,
			sqlCreateAttachmentsTable,
			sqlCreateTimelinesTable,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}
