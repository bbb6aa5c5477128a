package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateEmail is returned when a student email is already taken
var ErrDuplicateEmail = errors.New("email already exists")

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
	path string
	mu   sync.RWMutex
}

// DSN builds the modernc sqlite data source name for a database file.
// WAL mode lets readers proceed while a writer holds the lock.
func DSN(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// New opens (and creates if absent) the database file at path
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	log.Debug().Str("path", path).Msg("Database connection established")

	return &DB{
		DB:   db,
		path: path,
	}, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Transaction wraps a function in a database transaction
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
func IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		// Primary result code only; fall back to the message
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	return false
}
