package worker

import (
	"context"
	"testing"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/config"
	"github.com/Eventstwogo/events-backend-sub002/internal/jobs"
	"github.com/Eventstwogo/events-backend-sub002/internal/repository"
	"github.com/Eventstwogo/events-backend-sub002/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(table []scheduler.Job) []string {
	out := make([]string, 0, len(table))
	for _, job := range table {
		out = append(out, job.ID)
	}
	return out
}

func TestBuildJobsDefaults(t *testing.T) {
	cfg := config.Load()

	table := BuildJobs(cfg, nil, repository.NewRepositories(nil))

	require.Len(t, table, 4)
	intervals := map[string]time.Duration{}
	for _, job := range table {
		assert.NotNil(t, job.Run, job.ID)
		intervals[job.ID] = job.Interval
	}
	assert.Equal(t, map[string]time.Duration{
		jobs.BookingSeatsCleanupJobID:  10 * time.Minute,
		jobs.ExpiredEventsUpdaterJobID: time.Hour,
		jobs.CouponCleanupJobID:        15 * time.Minute,
		jobs.SeatHoldsBackfillJobID:    0,
	}, intervals)

	assert.Equal(t, []string{
		jobs.BookingSeatsCleanupJobID,
		jobs.ExpiredEventsUpdaterJobID,
		jobs.CouponCleanupJobID,
	}, ids(Enabled(table)))
}

func TestEnabledHonoursIntervals(t *testing.T) {
	cfg := config.Load()
	cfg.Holds.BackfillInterval = 6 * time.Hour
	cfg.Coupons.CleanupInterval = 0

	table := Enabled(BuildJobs(cfg, nil, repository.NewRepositories(nil)))

	assert.Equal(t, []string{
		jobs.BookingSeatsCleanupJobID,
		jobs.ExpiredEventsUpdaterJobID,
		jobs.SeatHoldsBackfillJobID,
	}, ids(table))
}

func TestRunOnceUnknownJob(t *testing.T) {
	s := &Service{jobs: []scheduler.Job{{ID: "known", Interval: time.Minute, Run: func(context.Context) error { return nil }}}}

	assert.NoError(t, s.RunOnce(context.Background(), "known"))
	assert.ErrorIs(t, s.RunOnce(context.Background(), "missing"), scheduler.ErrJobNotFound)
}
