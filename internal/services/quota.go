package services

import (
	"context"
	"fmt"
	"time"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// QuotaService tracks per-user monthly usage against a fixed ceiling.
// The month rollover is lazy: the counter resets on the first access in
// a new calendar month, not via any background job.
type QuotaService struct {
	users   repository.UserRepository
	ceiling int
	now     func() time.Time
}

// NewQuotaService creates a new quota service
func NewQuotaService(users repository.UserRepository, ceiling int) *QuotaService {
	return &QuotaService{
		users:   users,
		ceiling: ceiling,
		now:     time.Now,
	}
}

// CheckAndAdvanceMonth fetches or creates the user record, resetting the
// usage counter first if the stored month is stale.
func (s *QuotaService) CheckAndAdvanceMonth(ctx context.Context, telegramID string) (*repository.User, error) {
	month := s.currentMonth()

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", telegramID, err)
	}

	if user == nil {
		created := repository.User{
			TelegramID: telegramID,
			Month:      month,
			UsageCount: 0,
		}
		id, err := s.users.Create(ctx, created)
		if err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", telegramID, err)
		}
		created.ID = id
		return &created, nil
	}

	if user.Month != month {
		if err := s.users.ResetMonth(ctx, user.ID, month); err != nil {
			return nil, fmt.Errorf("failed to reset month for user %s: %w", telegramID, err)
		}
		user.Month = month
		user.UsageCount = 0
	}

	return user, nil
}

// Increment counts one chat turn against the user's monthly quota
func (s *QuotaService) Increment(ctx context.Context, user *repository.User) error {
	if err := s.users.IncrementUsage(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to increment usage for user %s: %w", user.TelegramID, err)
	}
	user.UsageCount++
	return nil
}

// Exceeded reports whether the user has hit the monthly ceiling
func (s *QuotaService) Exceeded(user *repository.User) bool {
	return user.UsageCount >= s.ceiling
}

func (s *QuotaService) currentMonth() string {
	return s.now().UTC().Format("2006-01")
}
