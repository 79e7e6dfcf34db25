// Package db owns the Postgres connection pool and the schema
// migration that runs at startup. Table-specific query functions live
// in catalog, not here: this file is for connecting and migrating,
// catalog is for a specific table/relation and its functions.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
)

// Database wraps a *sql.DB connection pool plus a logger: every table
// package (catalog, auth) receives a *Database rather than a raw
// *sql.DB, so the connection and its logger travel together.
type Database struct {
	connection *sql.DB
	logger     *slog.Logger
}

// Conn exposes the underlying pool to table-specific packages (catalog,
// auth) in the same package family. Kept unexported-looking via the
// accessor rather than a public field so external packages cannot swap
// the connection out from under the Database.
func (database *Database) Conn() *sql.DB {
	return database.connection
}

// schema is the idempotent DDL run on every startup: UUIDs are native
// columns, timestamps are TIMESTAMPTZ, and primary keys use BIGSERIAL.
// No third-party migration library is used here; see DESIGN.md for
// why this is the one schema-layer piece left on plain database/sql.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	uuid          UUID NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS functions (
	id         BIGSERIAL PRIMARY KEY,
	uuid       UUID NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	runtime    TEXT NOT NULL,
	owner_id   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (owner_id, name)
);

CREATE INDEX IF NOT EXISTS idx_functions_owner_id ON functions(owner_id);
`

// OpenDatabase opens a connection pool against dsn, runs the schema
// migration, and verifies connectivity with a Ping before returning.
// if this fails, the application cannot function and must "fail fast".
func OpenDatabase(dsn string, logger *slog.Logger) (*Database, error) {
	connection, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := connection.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{connection: connection, logger: logger}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connected and migrated")
	return database, nil
}

// migrate runs the idempotent schema DDL. safe to call on every
// startup: CREATE TABLE IF NOT EXISTS and CREATE INDEX IF NOT EXISTS
// are no-ops once the objects already exist.
func (database *Database) migrate() error {
	_, err := database.connection.Exec(schema)
	return err
}

// CloseDatabase releases the connection pool. should be deferred in
// main.go immediately after OpenDatabase returns successfully.
func (database *Database) CloseDatabase() error {
	return database.connection.Close()
}
