package db

import (
	"database/sql"

	"github.com/deemkeen/fedisync/domain"
	"github.com/deemkeen/fedisync/origin"
)

const (
	sqlSelectActorIDByOid       = `SELECT id FROM actors WHERE origin_id = ? AND oid = ?`
	sqlSelectActorIDByWebFinger = `SELECT id FROM actors WHERE origin_id = ? AND webfinger_id = ?`
	sqlSelectActorByID          = `SELECT id, origin_id, oid, username, real_name, webfinger_id,
		description, homepage, profile_url, avatar_url, banner_url, location,
		notes_count, favorites_count, following_count, followers_count,
		created_date, updated_date FROM actors WHERE id = ?`
	sqlSelectActorOid          = `SELECT oid FROM actors WHERE id = ?`
	sqlSelectActorUpdatedDate  = `SELECT updated_date FROM actors WHERE id = ?`
	sqlSelectLatestActivityDate = `SELECT latest_activity_date FROM actors WHERE id = ?`
	sqlUpdateLatestActivity    = `UPDATE actors SET latest_activity_id = ?, latest_activity_date = ?
		WHERE id = ? AND latest_activity_date <= ?`

	sqlUpsertFriendship = `INSERT INTO friendships(actor_id, friend_id, followed) VALUES (?, ?, ?)
		ON CONFLICT(actor_id, friend_id) DO UPDATE SET followed = excluded.followed`
	sqlSelectFriendship = `SELECT followed FROM friendships WHERE actor_id = ? AND friend_id = ?`
	sqlSelectFriendIDs  = `SELECT friend_id FROM friendships WHERE actor_id = ? AND followed = 1`
)

// ActorIDByOid resolves an actor row by its origin id pair.
func (db *DB) ActorIDByOid(originID int64, oid string) (error, int64) {
	return db.longValue(sqlSelectActorIDByOid, originID, oid)
}

// ActorIDByWebFinger resolves an actor row by webfinger id, used to
// collapse a temp-oid row when the real oid arrives.
func (db *DB) ActorIDByWebFinger(originID int64, webFingerID string) (error, int64) {
	return db.longValue(sqlSelectActorIDByWebFinger, originID, webFingerID)
}

// ActorOid reads the stored oid of an actor row.
func (db *DB) ActorOid(id int64) (error, string) {
	return db.stringValue(sqlSelectActorOid, id)
}

// ActorUpdatedDate reads the stored updated date of an actor row.
func (db *DB) ActorUpdatedDate(id int64) (error, int64) {
	return db.longValue(sqlSelectActorUpdatedDate, id)
}

func (db *DB) ReadActor(reg *origin.Registry, id int64) (error, *domain.Actor) {
	row := db.db.QueryRow(sqlSelectActorByID, id)
	var a domain.Actor
	var originID int64
	err := row.Scan(&a.ID, &originID, &a.Oid, &a.Username, &a.RealName, &a.WebFingerID,
		&a.Description, &a.Homepage, &a.ProfileURL, &a.AvatarURL, &a.BannerURL, &a.Location,
		&a.NotesCount, &a.FavoritesCount, &a.FollowingCount, &a.FollowersCount,
		&a.CreatedDate, &a.UpdatedDate)
	if err == sql.ErrNoRows {
		return err, nil
	}
	if err != nil {
		return err, nil
	}
	if reg != nil {
		a.Origin = reg.FromID(originID)
	}
	return nil, &a
}

// InsertActor inserts a new actor row from the given column set.
func (db *DB) InsertActor(v *Values) (error, int64) {
	var id int64
	err := db.wrapTransaction(func(tx *sql.Tx) error {
		err, newID := insertRow(tx, "actors", v)
		if err != nil {
			return err
		}
		id = newID
		return nil
	})
	return err, id
}

// UpdateActor applies a partial column set to an existing actor row.
func (db *DB) UpdateActor(id int64, v *Values) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return updateRow(tx, "actors", id, v)
	})
}

// UpdateActorLatestActivity records the actor's newest known activity.
// Out-of-order arrivals are ignored by the date guard in the SQL.
func (db *DB) UpdateActorLatestActivity(actorID int64, activityID int64, updatedDate int64) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateLatestActivity, activityID, updatedDate, actorID, updatedDate)
		return err
	})
}

// LatestActivityDate reads the date of the actor's newest known activity.
func (db *DB) LatestActivityDate(actorID int64) (error, int64) {
	return db.longValue(sqlSelectLatestActivityDate, actorID)
}

// SetFollowed upserts one direction of a friendship.
func (db *DB) SetFollowed(actorID int64, friendID int64, followed bool) error {
	val := 0
	if followed {
		val = 1
	}
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertFriendship, actorID, friendID, val)
		return err
	})
}

// IsFollowing reads one direction of a friendship as a tri-state:
// unknown when no row exists.
func (db *DB) IsFollowing(actorID int64, friendID int64) (error, domain.TriState) {
	var followed int64
	err := db.db.QueryRow(sqlSelectFriendship, actorID, friendID).Scan(&followed)
	if err == sql.ErrNoRows {
		return nil, domain.TriUnknown
	}
	if err != nil {
		return err, domain.TriUnknown
	}
	return nil, domain.TriStateFromBool(followed == 1)
}

// FriendIDs lists the ids of actors the given actor follows.
func (db *DB) FriendIDs(actorID int64) (error, []int64) {
	rows, err := db.db.Query(sqlSelectFriendIDs, actorID)
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
