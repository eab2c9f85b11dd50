package repository

import (
	"context"
	"time"
)

// Chat turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User tracks a chat participant's monthly usage. TelegramID is the
// stable external identity; Month is a "2006-01" calendar key.
type User struct {
	ID         string    `db:"id"`
	TelegramID string    `db:"telegram_id"`
	Month      string    `db:"month"`
	UsageCount int       `db:"usage_count"`
	CreatedAt  time.Time `db:"created_at"`
}

// Session is one logical conversation thread. At most one session per
// user may be active at a time; Context carries the compacted summary
// forwarded into future prompts.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Active    bool      `db:"active"`
	Context   string    `db:"context"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ChatTurn is one immutable message in a session's history. UserID is
// carried redundantly so cross-session history queries stay cheap.
type ChatTurn struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// UserRepository defines user storage operations
type UserRepository interface {
	// GetByTelegramID returns (nil, nil) when no record exists.
	GetByTelegramID(ctx context.Context, telegramID string) (*User, error)
	Create(ctx context.Context, user User) (string, error)
	// ResetMonth sets the stored month and zeroes the usage counter.
	ResetMonth(ctx context.Context, id, month string) error
	IncrementUsage(ctx context.Context, id string) error
}

// SessionRepository defines session storage operations
type SessionRepository interface {
	Create(ctx context.Context, session Session) (string, error)
	// GetActive returns (nil, nil) when the user has no active session.
	GetActive(ctx context.Context, userID string) (*Session, error)
	DeactivateAll(ctx context.Context, userID string) error
	UpdateContext(ctx context.Context, id, newContext string) error
}

// ChatRepository defines chat turn storage operations
type ChatRepository interface {
	Create(ctx context.Context, turn ChatTurn) (string, error)
	// RecentBySession returns up to limit most recent turns for a
	// session, oldest first.
	RecentBySession(ctx context.Context, sessionID string, limit int) ([]ChatTurn, error)
	// RecentByUser is RecentBySession across all of a user's sessions.
	RecentByUser(ctx context.Context, userID string, limit int) ([]ChatTurn, error)
}
