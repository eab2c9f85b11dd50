package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chatrelay/chatrelay-backend/internal/config"
)

// Client sends messages through the Telegram Bot API. Every message
// carries the fixed inline menu built from configuration.
type Client struct {
	baseURL string
	token   string
	menu    *InlineKeyboardMarkup
	client  *http.Client
}

// NewClient creates a new Telegram Bot API client
func NewClient(cfg config.TelegramConfig, menu config.MenuConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		menu:    buildMenu(menu),
		client:  &http.Client{},
	}
}

type sendMessageRequest struct {
	ChatID      string                `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// Send delivers text to a chat with the standard menu attached.
func (c *Client) Send(ctx context.Context, chatID, text string) error {
	payload := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "Markdown",
		ReplyMarkup: c.menu,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// buildMenu lays out the three-row inline keyboard: new chat and the
// channel link, the two summary commands, then help.
func buildMenu(cfg config.MenuConfig) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{
				{Text: cfg.NewChatLabel, CallbackData: "/newchat"},
				{Text: cfg.PromoLabel, CallbackData: "/youtube"},
			},
			{
				{Text: cfg.RecentSummaryLabel, CallbackData: "/summary100"},
				{Text: cfg.FullSummaryLabel, CallbackData: "/summaryall"},
			},
			{
				{Text: cfg.HelpLabel, CallbackData: "/help"},
			},
		},
	}
}
