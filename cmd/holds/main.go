package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/config"
	"github.com/Eventstwogo/events-backend-sub002/internal/jobs"
	"github.com/Eventstwogo/events-backend-sub002/internal/logger"
	"github.com/Eventstwogo/events-backend-sub002/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	var (
		jobID string
		list  bool
	)
	flag.StringVar(&jobID, "job", jobs.BookingSeatsCleanupJobID, "Job ID to run once")
	flag.BoolVar(&list, "list", false, "List job IDs and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service, err := worker.NewService(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to create service", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		service.Close(closeCtx)
	}()

	if list {
		for _, job := range service.Jobs() {
			interval := "disabled"
			if job.Interval > 0 {
				interval = job.Interval.String()
			}
			fmt.Printf("%-24s %s\n", job.ID, interval)
		}
		return
	}

	start := time.Now()
	slog.Info("Running job once", "job", jobID)

	if err := service.RunOnce(ctx, jobID); err != nil {
		slog.Error("Job failed", "job", jobID, "error", err, "duration", time.Since(start))
		service.Close(context.Background())
		os.Exit(1)
	}

	slog.Info("Job completed", "job", jobID, "duration", time.Since(start))
}
