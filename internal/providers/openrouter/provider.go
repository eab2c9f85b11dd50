package openrouter

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/chatrelay/chatrelay-backend/internal/config"
	"github.com/chatrelay/chatrelay-backend/internal/providers"
)

// Provider implements providers.CompletionProvider against OpenRouter,
// which speaks the OpenAI chat completions protocol.
type Provider struct {
	config config.ProviderConfig
	client *openai.Client
}

// NewProvider creates a new OpenRouter provider
func NewProvider(cfg config.ProviderConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenRouter API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1"

	return &Provider{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openrouter"
}

// Complete performs a non-streaming completion
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.convertRequest(req))
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("completion response contained no content")
	}

	return &providers.CompletionResponse{
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func (p *Provider) convertRequest(req providers.CompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
}
