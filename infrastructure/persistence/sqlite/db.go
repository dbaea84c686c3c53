// Package sqlite stores accounts and workflow records in SQLite through the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"matflow/application/ports"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DB wraps the connection pool shared by both repositories.
type DB struct {
	sql    *sql.DB
	logger *zap.Logger
}

// Open connects to the database at path and applies pending migrations.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*DB, error) {
	dsn := path
	memory := path == ":memory:"
	if !memory {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if memory {
		// Every new connection to :memory: would see an empty database.
		conn.SetMaxOpenConns(1)
	}

	db := &DB{sql: conn, logger: logger}
	if err := db.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}
	applied, err := migrate(ctx, conn, migrations)
	if err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("SQLite database ready",
		zap.String("path", path),
		zap.Int("migrations_applied", applied),
	)
	return db, nil
}

// Ping implements ports.HealthChecker
func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// Close closes the connection pool
func (db *DB) Close() error {
	return db.sql.Close()
}

// Users returns the account repository backed by db
func (db *DB) Users() *UserRepository {
	return &UserRepository{db: db.sql, logger: db.logger}
}

// Workflows returns the workflow repository backed by db
func (db *DB) Workflows() *WorkflowRepository {
	return &WorkflowRepository{db: db.sql, logger: db.logger}
}

// mapConstraint turns a UNIQUE violation into the matching sentinel.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "users.email"):
		return ports.ErrEmailTaken
	case strings.Contains(msg, "users.username"):
		return ports.ErrUsernameTaken
	}
	return err
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}
