package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

// GetByTelegramID retrieves a user by telegram id
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID string) (*repository.User, error) {
	var user repository.User
	query := `
		SELECT id, telegram_id, month, usage_count, created_at
		FROM users
		WHERE telegram_id = $1
	`

	err := r.db.GetContext(ctx, &user, query, telegramID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// Create creates a new user record
func (r *UserRepository) Create(ctx context.Context, user repository.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()

	query := `
		INSERT INTO users (id, telegram_id, month, usage_count, created_at)
		VALUES (:id, :telegram_id, :month, :usage_count, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return "", err
	}

	return user.ID, nil
}

// ResetMonth moves a user into a new calendar month with a zeroed counter
func (r *UserRepository) ResetMonth(ctx context.Context, id, month string) error {
	query := `UPDATE users SET month = $1, usage_count = 0 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, month, id)
	return err
}

// IncrementUsage bumps the usage counter by one. The increment happens
// in SQL so concurrent updates cannot lose a count.
func (r *UserRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `UPDATE users SET usage_count = usage_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
