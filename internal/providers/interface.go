package providers

import "context"

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a request for a completion
type CompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// CompletionResponse is a response from a completion
type CompletionResponse struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

// CompletionProvider is the inference capability: complete a prompt,
// return text.
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
