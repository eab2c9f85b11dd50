package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// ChatRepository implements repository.ChatRepository using PostgreSQL
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new PostgreSQL chat repository
func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &ChatRepository{db: db}
}

// Create appends one immutable chat turn
func (r *ChatRepository) Create(ctx context.Context, turn repository.ChatTurn) (string, error) {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	turn.CreatedAt = time.Now()

	query := `
		INSERT INTO chats (id, session_id, user_id, role, content, created_at)
		VALUES (:id, :session_id, :user_id, :role, :content, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, turn)
	if err != nil {
		return "", err
	}

	return turn.ID, nil
}

// RecentBySession retrieves up to limit most recent turns for a session,
// oldest first. The query fetches newest-first under the limit and the
// slice is reversed in memory, so retrieval cost stays bounded.
func (r *ChatRepository) RecentBySession(ctx context.Context, sessionID string, limit int) ([]repository.ChatTurn, error) {
	var turns []repository.ChatTurn
	query := `
		SELECT id, session_id, user_id, role, content, created_at
		FROM chats
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &turns, query, sessionID, limit)
	if err != nil {
		return nil, err
	}

	reverse(turns)
	return turns, nil
}

// RecentByUser retrieves up to limit most recent turns across all of a
// user's sessions, oldest first.
func (r *ChatRepository) RecentByUser(ctx context.Context, userID string, limit int) ([]repository.ChatTurn, error) {
	var turns []repository.ChatTurn
	query := `
		SELECT id, session_id, user_id, role, content, created_at
		FROM chats
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &turns, query, userID, limit)
	if err != nil {
		return nil, err
	}

	reverse(turns)
	return turns, nil
}

func reverse(turns []repository.ChatTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
