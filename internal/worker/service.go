package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Eventstwogo/events-backend-sub002/internal/api"
	"github.com/Eventstwogo/events-backend-sub002/internal/cache"
	"github.com/Eventstwogo/events-backend-sub002/internal/config"
	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/handlers"
	"github.com/Eventstwogo/events-backend-sub002/internal/jobs"
	"github.com/Eventstwogo/events-backend-sub002/internal/messaging"
	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/repository"
	"github.com/Eventstwogo/events-backend-sub002/internal/scheduler"
	"github.com/Eventstwogo/events-backend-sub002/internal/search"
	"github.com/Eventstwogo/events-backend-sub002/internal/telemetry"
)

// Service wires the database, optional integrations, jobs and scheduler.
type Service struct {
	cfg       *config.Config
	db        *database.DB
	nats      *messaging.NATSClient
	valkey    *cache.ValkeyClient
	search    *search.ElasticsearchClient
	scheduler *scheduler.Scheduler
	server    *api.Server
	jobs      []scheduler.Job

	shutdownTracing func(context.Context) error
}

func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg:             cfg,
		scheduler:       scheduler.New(),
		shutdownTracing: telemetry.Setup(ctx, cfg.ServiceName),
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.db = db

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	if err := metrics.RegisterDBStats(db.DB, cfg.Database.DBName); err != nil {
		slog.Warn("Failed to register database metrics", "error", err)
	}

	s.connectIntegrations(ctx)

	s.jobs = BuildJobs(cfg, db, repository.NewRepositories(db), s.jobOptions()...)
	for _, job := range Enabled(s.jobs) {
		if err := s.scheduler.Register(job); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("register job %s: %w", job.ID, err)
		}
	}

	return s, nil
}

// connectIntegrations connects the optional NATS, Valkey and Elasticsearch
// clients. A configured integration that cannot be reached is logged and
// left out.
func (s *Service) connectIntegrations(ctx context.Context) {
	if s.cfg.NATS.Enabled() {
		natsClient, err := messaging.NewNATSClient(s.cfg.NATS)
		if err != nil {
			slog.Error("NATS unavailable, job notifications disabled", "error", err)
		} else {
			s.nats = natsClient
		}
	}

	if s.cfg.Valkey.Enabled() {
		valkeyClient, err := cache.NewValkeyClient(ctx, s.cfg.Valkey)
		if err != nil {
			slog.Error("Valkey unavailable, cache invalidation disabled", "error", err)
		} else {
			s.valkey = valkeyClient
		}
	}

	if s.cfg.Elasticsearch.Enabled() {
		esClient, err := search.NewElasticsearchClient(ctx, s.cfg.Elasticsearch)
		if err != nil {
			slog.Error("Elasticsearch unavailable, event index sync disabled", "error", err)
		} else {
			s.search = esClient
		}
	}
}

func (s *Service) jobOptions() []jobs.Option {
	var opts []jobs.Option
	if s.nats != nil {
		opts = append(opts, jobs.WithPublisher(s.nats))
	}
	if s.valkey != nil {
		opts = append(opts, jobs.WithSeatCache(s.valkey), jobs.WithEventCache(s.valkey))
	}
	if s.search != nil {
		opts = append(opts, jobs.WithEventIndexer(s.search))
	}
	return opts
}

// BuildJobs returns the full job table, including disabled jobs.
func BuildJobs(cfg *config.Config, db *database.DB, repos *repository.Repositories, opts ...jobs.Option) []scheduler.Job {
	holds := jobs.NewHoldReconciler(db, repos.Orders, repos.SeatCategories, cfg.Holds.HoldDuration, opts...)
	backfill := jobs.NewHeldBackfiller(db, repos.Orders, repos.SeatCategories, opts...)
	events := jobs.NewExpiredEventUpdater(db, repos.Events, opts...)
	coupons := jobs.NewCouponReleaser(db, repos.Coupons, cfg.Coupons.HoldDuration, opts...)

	return []scheduler.Job{
		{ID: jobs.BookingSeatsCleanupJobID, Interval: cfg.Holds.CleanupInterval, Run: holds.Run},
		{ID: jobs.ExpiredEventsUpdaterJobID, Interval: cfg.Events.CheckInterval, Run: events.Run},
		{ID: jobs.CouponCleanupJobID, Interval: cfg.Coupons.CleanupInterval, Run: coupons.Run},
		{ID: jobs.SeatHoldsBackfillJobID, Interval: cfg.Holds.BackfillInterval, Run: backfill.Run},
	}
}

// Enabled filters out jobs with a non-positive interval.
func Enabled(table []scheduler.Job) []scheduler.Job {
	enabled := make([]scheduler.Job, 0, len(table))
	for _, job := range table {
		if job.Interval <= 0 {
			slog.Info("Job disabled", "job", job.ID)
			continue
		}
		enabled = append(enabled, job)
	}
	return enabled
}

// Jobs returns every job definition, enabled or not.
func (s *Service) Jobs() []scheduler.Job {
	return s.jobs
}

// RunOnce runs a job synchronously, outside the scheduler.
func (s *Service) RunOnce(ctx context.Context, id string) error {
	for _, job := range s.jobs {
		if job.ID == id {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", scheduler.ErrJobNotFound, id)
}

// Start launches the scheduler and the admin HTTP server.
func (s *Service) Start(ctx context.Context) {
	slog.Info("Starting scheduler service...", "jobs", len(s.scheduler.Jobs()))

	s.scheduler.Start(ctx)

	var searchChecker handlers.SearchChecker
	if s.search != nil {
		searchChecker = s.search
	}
	s.server = api.NewServer(s.cfg, s.scheduler, s.db, searchChecker)
	s.server.Start()
}

// Shutdown stops the HTTP server and the scheduler, then releases connections.
func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down scheduler service...")

	var firstErr error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("http shutdown: %w", err)
		}
	}

	s.scheduler.Stop()

	if err := s.Close(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Close releases connections without touching the scheduler.
func (s *Service) Close(ctx context.Context) error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.valkey != nil {
		if err := s.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			slog.Error("Error shutting down tracing", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
