package services

import (
	"context"
	"fmt"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// SessionService owns the one active conversation per user. Starting a
// new session always deactivates every prior active session first, which
// keeps the single-active-session invariant.
type SessionService struct {
	sessions repository.SessionRepository
}

// NewSessionService creates a new session service
func NewSessionService(sessions repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions}
}

// DeactivateAll retires every active session for the user. Idempotent.
func (s *SessionService) DeactivateAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeactivateAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate sessions for user %s: %w", userID, err)
	}
	return nil
}

// Create opens a new active session carrying the given context
func (s *SessionService) Create(ctx context.Context, userID, initialContext string) (*repository.Session, error) {
	session := repository.Session{
		UserID:  userID,
		Active:  true,
		Context: initialContext,
	}

	id, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for user %s: %w", userID, err)
	}

	session.ID = id
	return &session, nil
}

// ActiveOrCreate returns the user's active session, creating an empty
// one when none exists.
func (s *SessionService) ActiveOrCreate(ctx context.Context, userID string) (*repository.Session, error) {
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active session for user %s: %w", userID, err)
	}
	if session != nil {
		return session, nil
	}

	return s.Create(ctx, userID, "")
}

// StartNew retires the current conversation and opens a fresh one with
// empty context. This is the only path that grows a user's session
// history; summarization replaces context in place instead.
func (s *SessionService) StartNew(ctx context.Context, userID string) (*repository.Session, error) {
	if err := s.DeactivateAll(ctx, userID); err != nil {
		return nil, err
	}
	return s.Create(ctx, userID, "")
}

// ReplaceContext overwrites the session's carried-forward context. The
// previous context is discarded, never appended to, so context length
// stays bounded across repeated summarizations.
func (s *SessionService) ReplaceContext(ctx context.Context, sessionID, newContext string) error {
	if err := s.sessions.UpdateContext(ctx, sessionID, newContext); err != nil {
		return fmt.Errorf("failed to update context for session %s: %w", sessionID, err)
	}
	return nil
}
