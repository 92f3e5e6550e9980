package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx) error
	Down        func(*sql.Tx) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create accounts table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create vote_journal table",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// GetVersion returns the current database schema version
func (db *DB) GetVersion() (int, error) {
	return db.getCurrentVersion()
}

func (db *DB) getCurrentVersion() (int, error) {
	var tableExists bool
	err := db.conn.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)

	if err != nil {
		return 0, err
	}

	if !tableExists {
		return 0, nil
	}

	var version int
	err = db.conn.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_version
	`).Scan(&version)

	if err != nil {
		return 0, err
	}

	return version, nil
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func migration001Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: Accounts table. Tokens are stored as given; the file they
// were imported from remains the authoritative credential source.
func migration002Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token TEXT NOT NULL UNIQUE,
			fid INTEGER,
			username TEXT,
			team_preference TEXT NOT NULL DEFAULT 'auto',
			fuel_balance INTEGER NOT NULL DEFAULT 0,
			is_retired BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			last_seen_at TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_accounts_fid ON accounts(fid)`)
	return err
}

func migration002Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS accounts`)
	return err
}

// Migration 003: Vote journal table
func migration003Up(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS vote_journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			account_index INTEGER NOT NULL,
			fid INTEGER NOT NULL,
			match_id TEXT NOT NULL,
			side_id TEXT,
			success BOOLEAN NOT NULL,
			fuel_spent INTEGER NOT NULL DEFAULT 0,
			err_kind TEXT NOT NULL DEFAULT '',
			message TEXT,
			attempted_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_vote_journal_match ON vote_journal(match_id)`)
	return err
}

func migration003Down(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS vote_journal`)
	return err
}
