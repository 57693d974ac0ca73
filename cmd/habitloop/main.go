package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/habitloop/habitloop/internal/api"
	"github.com/habitloop/habitloop/internal/config"
	"github.com/habitloop/habitloop/internal/notify"
	"github.com/habitloop/habitloop/internal/repository/postgres"
	"github.com/habitloop/habitloop/internal/service"
	"github.com/habitloop/habitloop/pkg/logger"
)

func main() {
	// A .env file is optional outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting HabitLoop...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate("migrations"); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	habitRepo := postgres.NewHabitRepository(db.DB)
	reminderRepo := postgres.NewReminderRepository(db.DB)

	// Notification channels
	var channels []notify.Channel
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramChannel(cfg.TelegramToken, l)
		if err != nil {
			l.Fatalf("Failed to create Telegram channel: %v", err)
		}
		channels = append(channels, tg)
	}
	if cfg.SMTPAddr != "" {
		channels = append(channels, notify.NewEmailChannel(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword))
	}
	if len(channels) == 0 {
		l.Warn("No notification channels configured, reminders will only be visible through the API")
	}
	dispatcher := notify.NewDispatcher(l, channels...)

	// Service layer
	svc := service.New(l, userRepo, habitRepo, reminderRepo, dispatcher)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Background sweep for near-real-time delivery; listing reminders runs
	// the same sweep lazily.
	go svc.StartSweeper(ctx, cfg.SweepInterval)

	// HTTP server
	apiServer := api.NewServer(svc, l)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer.Handler(),
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	l.Info("HabitLoop started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("HabitLoop stopped")
}
