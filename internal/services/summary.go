package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatrelay/chatrelay-backend/internal/config"
	"github.com/chatrelay/chatrelay-backend/internal/providers"
	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

// SummaryService compacts a window of chat turns into a short context
// string via the completion provider.
type SummaryService struct {
	provider providers.CompletionProvider
	provCfg  config.ProviderConfig
	prompt   config.PromptConfig
}

// NewSummaryService creates a new summary service
func NewSummaryService(provider providers.CompletionProvider, provCfg config.ProviderConfig, prompt config.PromptConfig) *SummaryService {
	return &SummaryService{
		provider: provider,
		provCfg:  provCfg,
		prompt:   prompt,
	}
}

// Summarize compresses the turns into a short summary under the
// configured length instruction. Empty input returns the fixed
// nothing-to-summarize marker without touching the provider.
func (s *SummaryService) Summarize(ctx context.Context, turns []repository.ChatTurn) (string, error) {
	if len(turns) == 0 {
		return s.prompt.EmptyHistoryMarker, nil
	}

	var b strings.Builder
	b.WriteString(s.prompt.SummarizeInstruction)
	b.WriteString("\n")
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
	}

	resp, err := s.provider.Complete(ctx, providers.CompletionRequest{
		Model:     s.provCfg.Model,
		MaxTokens: s.provCfg.MaxTokens,
		Messages: []providers.Message{
			{Role: repository.RoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}

	return resp.Content, nil
}

func (s *SummaryService) roleLabel(role string) string {
	if role == repository.RoleUser {
		return s.prompt.UserLabel
	}
	return s.prompt.AssistantLabel
}
