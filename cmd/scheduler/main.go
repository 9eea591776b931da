package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/config"
	"github.com/Eventstwogo/events-backend-sub002/internal/logger"
	"github.com/Eventstwogo/events-backend-sub002/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := worker.NewService(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create scheduler service", "error", err)
	}

	service.Start(ctx)
	slog.Info("Scheduler service started", "service", cfg.ServiceName, "port", cfg.Port)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := service.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Scheduler service stopped")
}
