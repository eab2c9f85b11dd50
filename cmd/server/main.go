package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/chatrelay/chatrelay-backend/internal/api"
	"github.com/chatrelay/chatrelay-backend/internal/config"
	"github.com/chatrelay/chatrelay-backend/internal/database"
	"github.com/chatrelay/chatrelay-backend/internal/handlers"
	"github.com/chatrelay/chatrelay-backend/internal/providers/openrouter"
	"github.com/chatrelay/chatrelay-backend/internal/repository/postgres"
	"github.com/chatrelay/chatrelay-backend/internal/services"
	"github.com/chatrelay/chatrelay-backend/internal/telegram"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	appLogger := logrus.New()
	appLogger.SetLevel(logrus.InfoLevel)

	provider, err := openrouter.NewProvider(cfg.Provider)
	if err != nil {
		log.Fatal("Failed to initialize completion provider:", err)
	}

	sender := telegram.NewClient(cfg.Telegram, cfg.Menu)

	userRepo := postgres.NewUserRepository(db.DB)
	sessionRepo := postgres.NewSessionRepository(db.DB)
	chatRepo := postgres.NewChatRepository(db.DB)

	quota := services.NewQuotaService(userRepo, cfg.Quota.MonthlyCeiling)
	sessions := services.NewSessionService(sessionRepo)
	history := services.NewHistoryService(chatRepo)
	summaries := services.NewSummaryService(provider, cfg.Provider, cfg.Prompt)
	conversations := services.NewConversationService(
		cfg, quota, sessions, history, summaries, provider, sender, appLogger,
	)

	app := fiber.New(fiber.Config{
		AppName: "ChatRelay Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	webhook := handlers.NewWebhookHandler(conversations, appLogger)
	api.SetupRoutes(app, webhook)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Infof("ChatRelay backend starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
