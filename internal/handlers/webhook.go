package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/chatrelay/chatrelay-backend/internal/services"
	"github.com/chatrelay/chatrelay-backend/internal/telegram"
)

// WebhookHandler receives Telegram webhook deliveries
type WebhookHandler struct {
	conversations *services.ConversationService
	logger        *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(conversations *services.ConversationService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		conversations: conversations,
		logger:        logger,
	}
}

// HandleTelegramUpdate processes one webhook delivery. The response is
// always {"status":"ok"} no matter what happened inside: Telegram only
// needs the delivery acknowledged, and a non-200 here would trigger
// redelivery storms.
func (h *WebhookHandler) HandleTelegramUpdate(c *fiber.Ctx) error {
	upd, err := parseUpdate(c.Body())
	if err != nil {
		h.logger.WithError(err).Error("failed to parse update body")
		return c.JSON(fiber.Map{"status": "ok"})
	}

	h.conversations.HandleUpdate(c.Context(), upd)

	return c.JSON(fiber.Map{"status": "ok"})
}

// parseUpdate decodes the webhook body. Some delivery paths wrap the
// update in a JSON-encoded string, so that form is accepted too.
func parseUpdate(body []byte) (telegram.Update, error) {
	var upd telegram.Update
	if err := json.Unmarshal(body, &upd); err == nil {
		return upd, nil
	}

	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return telegram.Update{}, err
	}
	if err := json.Unmarshal([]byte(wrapped), &upd); err != nil {
		return telegram.Update{}, err
	}
	return upd, nil
}
