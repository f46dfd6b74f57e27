package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/blobs-io/blobs.live/internal/api/models"
)

// SessionRepository defines the interface for session handoff operations.
type SessionRepository interface {
	Create(ctx context.Context, username, sessionID string, expires time.Time) error
	Lookup(ctx context.Context, sessionID string) (*models.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type sqliteSessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new SQLite-based SessionRepository.
func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sqliteSessionRepository{db: db}
}

// Create stores a new session.
func (r *sqliteSessionRepository) Create(ctx context.Context, username, sessionID string, expires time.Time) error {
	query := `INSERT INTO sessionids (username, sessionid, expires) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, username, sessionID, expires.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Lookup returns the session if it exists and has not expired. A missing or
// expired session returns (nil, nil).
func (r *sqliteSessionRepository) Lookup(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	query := `SELECT username, sessionid, expires FROM sessionids WHERE sessionid = ?`
	err := r.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	expires, err := time.Parse(time.RFC3339, session.Expires)
	if err != nil || time.Now().After(expires) {
		return nil, nil
	}
	return &session, nil
}

// Delete removes the session. Deleting an unknown session is a no-op.
func (r *sqliteSessionRepository) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM sessionids WHERE sessionid = ?`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
