package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatrelay/chatrelay-backend/internal/handlers"
)

// SetupRoutes registers the webhook endpoint and a health check
func SetupRoutes(app *fiber.App, webhook *handlers.WebhookHandler) {
	app.Post("/webhook/telegram", webhook.HandleTelegramUpdate)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
}
