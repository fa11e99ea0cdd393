package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

// Open opens (and creates, if needed) the database at the given path.
// Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// Configure connection pool for concurrent access
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	if path == ":memory:" {
		// Every pooled connection would otherwise open its own
		// private in-memory database.
		sqlDB.SetMaxOpenConns(1)
	}

	// Try to enable WAL2 mode, fall back to WAL if not supported
	var journalMode string
	err = sqlDB.QueryRow("PRAGMA journal_mode=WAL2").Scan(&journalMode)
	if err != nil || journalMode == "delete" {
		err = sqlDB.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode)
		if err != nil {
			log.Printf("Warning: Failed to enable WAL mode: %v", err)
		}
	}

	// Set as connection defaults
	sqlDB.Exec("PRAGMA synchronous = NORMAL")
	sqlDB.Exec("PRAGMA cache_size = -64000")
	sqlDB.Exec("PRAGMA temp_store = MEMORY")
	sqlDB.Exec("PRAGMA busy_timeout = 5000")
	sqlDB.Exec("PRAGMA foreign_keys = ON")

	db := &DB{db: sqlDB}
	if err := db.CreateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			log.Printf("error in transaction: %s", err)
			tx.Rollback()
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

// Values collects column assignments for a partial insert or update.
// The merge engine decides which columns to touch, the store just
// writes what it is handed.
type Values struct {
	cols []string
	args map[string]any
}

func NewValues() *Values {
	return &Values{args: map[string]any{}}
}

func (v *Values) Put(col string, val any) {
	if _, ok := v.args[col]; !ok {
		v.cols = append(v.cols, col)
	}
	v.args[col] = val
}

// PutNonEmpty writes the column only when the value is non-empty, so
// an update cannot erase previously stored text.
func (v *Values) PutNonEmpty(col string, val string) {
	if val != "" {
		v.Put(col, val)
	}
}

// PutPositive writes the column only when the value is positive.
func (v *Values) PutPositive(col string, val int64) {
	if val > 0 {
		v.Put(col, val)
	}
}

func (v *Values) Size() int {
	return len(v.cols)
}

func (v *Values) sorted() ([]string, []any) {
	cols := append([]string(nil), v.cols...)
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = v.args[c]
	}
	return cols, args
}

func (v *Values) insertSQL(table string) (string, []any) {
	cols, args := v.sorted()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders), args
}

func (v *Values) updateSQL(table string) (string, []any) {
	cols, args := v.sorted()
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?",
		table, strings.Join(sets, ", ")), args
}

func insertRow(tx *sql.Tx, table string, v *Values) (error, int64) {
	query, args := v.insertSQL(table)
	res, err := tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err), 0
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err), 0
	}
	return nil, id
}

func updateRow(tx *sql.Tx, table string, id int64, v *Values) error {
	if v.Size() == 0 {
		return nil
	}
	query, args := v.updateSQL(table)
	args = append(args, id)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("update %s id %d: %w", table, id, err)
	}
	return nil
}

// longValue runs a single-value query, returning 0 for no rows.
func (db *DB) longValue(query string, args ...any) (error, int64) {
	var val sql.NullInt64
	err := db.db.QueryRow(query, args...).Scan(&val)
	if err == sql.ErrNoRows {
		return nil, 0
	}
	if err != nil {
		return err, 0
	}
	return nil, val.Int64
}

// stringValue runs a single-value query, returning "" for no rows.
func (db *DB) stringValue(query string, args ...any) (error, string) {
	var val sql.NullString
	err := db.db.QueryRow(query, args...).Scan(&val)
	if err == sql.ErrNoRows {
		return nil, ""
	}
	if err != nil {
		return err, ""
	}
	return nil, val.String
}
