// Package scheduler runs registered jobs on fixed intervals. A job never
// overlaps with itself: ticks that fire while it is still running are
// dropped, and manual triggers fail with ErrJobRunning.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/logger"
	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is already running")
	ErrNotStarted  = errors.New("scheduler not started")
	ErrInvalidJob  = errors.New("invalid job")
)

// Job is one periodic task.
type Job struct {
	ID       string
	Interval time.Duration
	Run      func(ctx context.Context) error
	// RunOnStart fires the job once as soon as the scheduler starts.
	RunOnStart bool
}

// Status is a snapshot of a job's recent activity.
type Status struct {
	ID             string        `json:"id"`
	Interval       time.Duration `json:"interval"`
	Running        bool          `json:"running"`
	Runs           int64         `json:"runs"`
	Failures       int64         `json:"failures"`
	LastStartedAt  *time.Time    `json:"last_started_at,omitempty"`
	LastFinishedAt *time.Time    `json:"last_finished_at,omitempty"`
	LastDuration   time.Duration `json:"last_duration"`
	LastError      string        `json:"last_error,omitempty"`
}

type entry struct {
	job  Job
	stop chan struct{}
}

type jobState struct {
	running sync.Mutex

	mu     sync.Mutex
	status Status
}

// Scheduler owns a set of jobs keyed by ID.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	// state outlives re-registration so a replaced job cannot overlap its
	// still-running predecessor.
	state   map[string]*jobState
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	tracer  trace.Tracer
}

func New() *Scheduler {
	return &Scheduler{
		entries: make(map[string]*entry),
		state:   make(map[string]*jobState),
		tracer:  otel.Tracer("scheduler"),
	}
}

// Register adds a job, replacing any job registered under the same ID.
// Jobs registered after Start begin running immediately.
func (s *Scheduler) Register(job Job) error {
	if job.ID == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: id=%q interval=%s", ErrInvalidJob, job.ID, job.Interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[job.ID]; ok {
		close(old.stop)
		slog.Info("Replacing scheduled job", "job", job.ID, "interval", job.Interval)
	} else {
		slog.Info("Registered scheduled job", "job", job.ID, "interval", job.Interval)
	}

	e := &entry{job: job, stop: make(chan struct{})}
	s.entries[job.ID] = e

	st, ok := s.state[job.ID]
	if !ok {
		st = &jobState{}
		s.state[job.ID] = st
	}
	st.mu.Lock()
	st.status.ID = job.ID
	st.status.Interval = job.Interval
	st.mu.Unlock()

	if s.started {
		s.launch(e, st)
	}
	return nil
}

// Start launches every registered job. A scheduler starts at most once: it
// reports false, and does nothing, when already running or stopped.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		slog.Debug("Scheduler already started", "stopped", s.stopped)
		return false
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	for id, e := range s.entries {
		s.launch(e, s.state[id])
	}

	slog.Info("Scheduler started", "jobs", len(s.entries))
	return true
}

// Stop cancels all loops and in-flight runs and waits for them to return.
// A stopped scheduler cannot be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.started = false
	s.stopped = true
	s.mu.Unlock()

	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// Trigger starts a run of the job in the background.
func (s *Scheduler) Trigger(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	e, ok := s.entries[id]
	if !ok {
		return ErrJobNotFound
	}
	st := s.state[id]

	if !st.running.TryLock() {
		return ErrJobRunning
	}

	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer st.running.Unlock()
		s.execute(ctx, e.job, st, "manual")
	}()
	return nil
}

// Jobs returns status snapshots ordered by job ID.
func (s *Scheduler) Jobs() []Status {
	s.mu.Lock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	states := make(map[string]*jobState, len(ids))
	for _, id := range ids {
		states[id] = s.state[id]
	}
	s.mu.Unlock()

	sort.Strings(ids)
	out := make([]Status, 0, len(ids))
	for _, id := range ids {
		st := states[id]
		st.mu.Lock()
		out = append(out, st.status)
		st.mu.Unlock()
	}
	return out
}

// launch must be called with s.mu held.
func (s *Scheduler) launch(e *entry, st *jobState) {
	ctx := s.ctx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, e, st)
	}()
}

func (s *Scheduler) loop(ctx context.Context, e *entry, st *jobState) {
	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()

	if e.job.RunOnStart {
		s.tick(ctx, e, st)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			s.tick(ctx, e, st)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, e *entry, st *jobState) {
	if !st.running.TryLock() {
		metrics.JobSkipped.WithLabelValues(e.job.ID).Inc()
		slog.Warn("Previous run still in progress, skipping tick", "job", e.job.ID)
		return
	}
	defer st.running.Unlock()

	s.execute(ctx, e.job, st, "interval")
}

// execute runs the job once. The caller holds st.running.
func (s *Scheduler) execute(ctx context.Context, job Job, st *jobState, trigger string) {
	runID := uuid.New().String()
	log := logger.WithJob(job.ID, runID)

	ctx, span := s.tracer.Start(ctx, "job "+job.ID, trace.WithAttributes(
		attribute.String("job.id", job.ID),
		attribute.String("job.run_id", runID),
		attribute.String("job.trigger", trigger),
	))
	defer span.End()

	start := time.Now()
	st.mu.Lock()
	st.status.Running = true
	st.status.LastStartedAt = &start
	st.mu.Unlock()

	log.Debug("Job started", "trigger", trigger)
	err := runSafely(ctx, job.Run)
	finished := time.Now()
	duration := finished.Sub(start)

	st.mu.Lock()
	st.status.Running = false
	st.status.Runs++
	st.status.LastFinishedAt = &finished
	st.status.LastDuration = duration
	st.status.LastError = ""
	if err != nil {
		st.status.Failures++
		st.status.LastError = err.Error()
	}
	st.mu.Unlock()

	metrics.ObserveJob(job.ID, duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("Job failed", "trigger", trigger, "duration_ms", duration.Milliseconds(), "error", err)
		return
	}
	log.Debug("Job finished", "trigger", trigger, "duration_ms", duration.Milliseconds())
}

func runSafely(ctx context.Context, run func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return run(ctx)
}
