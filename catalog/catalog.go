// Package catalog is the durable mapping of (user, function name) to
// function metadata. Raw SQL is used
// intentionally: it keeps the query layer explicit, auditable, and
// free of ORM magic.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/corvus-faas/control-plane/db"
	"github.com/corvus-faas/control-plane/models"
)

// ErrNotFound is returned when a lookup by name or UUID matches no row.
// callers check for this sentinel to distinguish "not found" from a
// real database error.
var ErrNotFound = errors.New("catalog: not found")

// ErrDuplicate is returned by CreateForUser when (owner_id, name)
// already exists. Per the deployment pipeline's idempotent-deploy
// contract, the caller is expected to treat this as "already
// registered" rather than a hard failure.
var ErrDuplicate = errors.New("catalog: function already exists")

// Store is the catalog's public surface. It is an interface,
// not a concrete struct, so deploy and invoke can be tested against an
// in-memory fake without a real Postgres instance.
type Store interface {
	FindByName(userUUID, name string) (*models.Function, error)
	FindByUser(userUUID string) ([]*models.Function, error)
	CreateForUser(userUUID string, name, runtime string) (*models.Function, error)
}

// PostgresStore is the Store implementation backed by the shared
// *db.Database connection pool.
type PostgresStore struct {
	database *db.Database
}

// NewPostgresStore constructs a PostgresStore over an already-open,
// already-migrated *db.Database.
func NewPostgresStore(database *db.Database) *PostgresStore {
	return &PostgresStore{database: database}
}

// FindByName resolves the owning user by UUID first, then looks up the
// function by (owner_id, name). Returns ErrNotFound if the user does
// not exist: a missing user is indistinguishable from a missing
// function to the caller.
func (store *PostgresStore) FindByName(userUUID, name string) (*models.Function, error) {
	query := `
		SELECT f.id, f.uuid, f.name, f.runtime, f.owner_id, f.created_at
		FROM functions f
		JOIN users u ON u.id = f.owner_id
		WHERE u.uuid = $1 AND f.name = $2
	`

	var function models.Function
	err := store.database.Conn().QueryRow(query, userUUID, name).Scan(
		&function.ID,
		&function.UUID,
		&function.Name,
		&function.Runtime,
		&function.OwnerID,
		&function.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find function %q for user %q: %w", name, userUUID, err)
	}
	return &function, nil
}

// FindByUser lists every function owned by userUUID, newest first.
// returns an empty (not nil) slice if the user is unknown or owns
// nothing. An unknown user lists as empty, not as an error.
func (store *PostgresStore) FindByUser(userUUID string) ([]*models.Function, error) {
	query := `
		SELECT f.id, f.uuid, f.name, f.runtime, f.owner_id, f.created_at
		FROM functions f
		JOIN users u ON u.id = f.owner_id
		WHERE u.uuid = $1
		ORDER BY f.created_at DESC
	`

	rows, err := store.database.Conn().Query(query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to list functions for user %q: %w", userUUID, err)
	}
	defer rows.Close()

	functions := []*models.Function{}
	for rows.Next() {
		var function models.Function
		if err := rows.Scan(
			&function.ID,
			&function.UUID,
			&function.Name,
			&function.Runtime,
			&function.OwnerID,
			&function.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan function row: %w", err)
		}
		functions = append(functions, &function)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating function rows: %w", err)
	}

	return functions, nil
}

// CreateForUser looks up the owning user, then inserts a new function
// row. Fails with ErrNotFound if the user does not exist, or
// ErrDuplicate if (owner_id, name) is already taken. The unique index
// is the actual enforcement point; this function only translates the
// resulting constraint violation.
func (store *PostgresStore) CreateForUser(userUUID string, name, runtime string) (*models.Function, error) {
	var ownerID int64
	err := store.database.Conn().QueryRow(`SELECT id FROM users WHERE uuid = $1`, userUUID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %q: %w", userUUID, err)
	}

	function := &models.Function{
		UUID:    uuid.New().String(),
		Name:    name,
		Runtime: runtime,
		OwnerID: ownerID,
	}

	query := `
		INSERT INTO functions (uuid, name, runtime, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = store.database.Conn().QueryRow(query, function.UUID, function.Name, function.Runtime, function.OwnerID).
		Scan(&function.ID, &function.CreatedAt)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert function %q for user %q: %w", name, userUUID, err)
	}

	return function, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), which lib/pq surfaces as a *pq.Error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}
