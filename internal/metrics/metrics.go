package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_runs_total",
		Help: "Scheduled job runs by result",
	}, []string{"job", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_job_duration_seconds",
		Help:    "Scheduled job run duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	JobSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_skipped_total",
		Help: "Job ticks dropped because the previous run was still in progress",
	}, []string{"job"})

	HoldsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_released_line_items_total",
		Help: "Line items whose seat hold was released by the reconciler",
	})

	OrdersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_expired_orders_total",
		Help: "Booking orders cancelled because their hold timed out",
	})

	HeldClamped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_held_clamped_total",
		Help: "Releases where the held counter was smaller than the released seats",
	})

	DanglingLineItems = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_dangling_line_items_total",
		Help: "Line items skipped because their seat category no longer exists",
	})

	BackfillCorrections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "holds_backfill_corrections_total",
		Help: "Seat categories whose held counter was rebuilt by the backfill",
	})

	EventsDeactivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "events_deactivated_total",
		Help: "Events moved to INACTIVE after their last date",
	})

	CouponsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coupons_released_total",
		Help: "Coupon applications released after the coupon hold timed out",
	})
)

// ObserveJob records one finished run of a scheduled job.
func ObserveJob(job string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	JobRuns.WithLabelValues(job, result).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RegisterDBStats exports database/sql pool statistics.
func RegisterDBStats(db *sql.DB, dbName string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
