package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrelay/chatrelay-backend/internal/repository"
)

func TestSummaryService_EmptyInputSkipsInference(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{response: "should not be used"}
	svc := NewSummaryService(provider, cfg.Provider, cfg.Prompt)

	summary, err := svc.Summarize(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "nothing to summarize", summary)
	assert.Empty(t, provider.requests)
}

func TestSummaryService_BuildsRoleLabeledPrompt(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{response: "a short summary"}
	svc := NewSummaryService(provider, cfg.Provider, cfg.Prompt)

	turns := []repository.ChatTurn{
		{Role: repository.RoleUser, Content: "hi there"},
		{Role: repository.RoleAssistant, Content: "hello"},
		{Role: repository.RoleUser, Content: "how are you"},
	}

	summary, err := svc.Summarize(context.Background(), turns)
	require.NoError(t, err)
	assert.Equal(t, "a short summary", summary)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 600, req.MaxTokens)

	prompt := provider.lastPrompt()
	assert.Contains(t, prompt, "Summarize the following:")
	assert.Contains(t, prompt, "User: hi there")
	assert.Contains(t, prompt, "Assistant: hello")
	// Chronological order, oldest first.
	assert.Less(t, strings.Index(prompt, "hi there"), strings.Index(prompt, "how are you"))
}

func TestSummaryService_ProviderFailure(t *testing.T) {
	cfg := testConfig()
	provider := &fakeProvider{err: errors.New("upstream 500")}
	svc := NewSummaryService(provider, cfg.Provider, cfg.Prompt)

	_, err := svc.Summarize(context.Background(), []repository.ChatTurn{
		{Role: repository.RoleUser, Content: "hi"},
	})
	assert.Error(t, err)
}
