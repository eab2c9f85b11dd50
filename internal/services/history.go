package services

import (
	"context"
	"fmt"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// HistoryService is the append-only log of chat turns. Retrieval is
// always bounded and chronological; there is no unbounded scan.
type HistoryService struct {
	chats repository.ChatRepository
}

// NewHistoryService creates a new history service
func NewHistoryService(chats repository.ChatRepository) *HistoryService {
	return &HistoryService{chats: chats}
}

// Append records one immutable turn
func (s *HistoryService) Append(ctx context.Context, sessionID, userID, role, content string) error {
	_, err := s.chats.Create(ctx, repository.ChatTurn{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		return fmt.Errorf("failed to append %s turn to session %s: %w", role, sessionID, err)
	}
	return nil
}

// RecentBySession returns up to limit most recent turns for the
// session, oldest first.
func (s *HistoryService) RecentBySession(ctx context.Context, sessionID string, limit int) ([]repository.ChatTurn, error) {
	turns, err := s.chats.RecentBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for session %s: %w", sessionID, err)
	}
	return turns, nil
}

// RecentByUser returns up to limit most recent turns across all the
// user's sessions, oldest first. Summaries use this window on purpose:
// they ignore session boundaries.
func (s *HistoryService) RecentByUser(ctx context.Context, userID string, limit int) ([]repository.ChatTurn, error) {
	turns, err := s.chats.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for user %s: %w", userID, err)
	}
	return turns, nil
}
