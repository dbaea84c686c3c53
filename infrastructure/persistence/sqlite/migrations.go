package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration moves the schema from Version-1 to Version.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "accounts and workflow records",
		Statements: []string{
			`CREATE TABLE users (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL DEFAULT '',
				username      TEXT NOT NULL,
				email         TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				roles         TEXT NOT NULL DEFAULT '',
				institution   TEXT NOT NULL DEFAULT '',
				image_url     TEXT NOT NULL DEFAULT '',
				created_at    INTEGER NOT NULL,
				updated_at    INTEGER NOT NULL,
				CONSTRAINT users_email UNIQUE (email),
				CONSTRAINT users_username UNIQUE (username)
			)`,
			`CREATE TABLE workflows (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				workflow   TEXT NOT NULL,
				checksum   TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX idx_workflows_user ON workflows(user_id, created_at DESC)`,
		},
	},
}

// migrate applies every migration newer than the recorded schema version, each
// in its own transaction, and returns how many ran.
func migrate(ctx context.Context, db *sql.DB, all []Migration) (int, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  INTEGER NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := 0
	for i, m := range all {
		if i > 0 && m.Version != all[i-1].Version+1 {
			return applied, fmt.Errorf("migration %d does not follow %d", m.Version, all[i-1].Version)
		}
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return applied, fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		applied++
	}
	return applied, nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
		m.Version, m.Description, time.Now().UTC().UnixNano(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
