package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session repository.Session) (string, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	query := `
		INSERT INTO sessions (id, user_id, active, context, created_at, updated_at)
		VALUES (:id, :user_id, :active, :context, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return "", err
	}

	return session.ID, nil
}

// GetActive retrieves the user's active session, if any. Ordering by
// created_at makes the result deterministic should duplicate updates
// ever race a second active row into existence.
func (r *SessionRepository) GetActive(ctx context.Context, userID string) (*repository.Session, error) {
	var session repository.Session
	query := `
		SELECT id, user_id, active, context, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &session, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &session, nil
}

// DeactivateAll marks every active session for the user inactive.
// Matching zero rows is not an error.
func (r *SessionRepository) DeactivateAll(ctx context.Context, userID string) error {
	query := `UPDATE sessions SET active = FALSE, updated_at = $1 WHERE user_id = $2 AND active = TRUE`
	_, err := r.db.ExecContext(ctx, query, time.Now(), userID)
	return err
}

// UpdateContext overwrites the session's carried-forward context
func (r *SessionRepository) UpdateContext(ctx context.Context, id, newContext string) error {
	query := `UPDATE sessions SET context = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, newContext, time.Now(), id)
	return err
}
