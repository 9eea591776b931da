// Package jobs holds the periodic maintenance sweeps run by the scheduler:
// releasing expired seat holds, rebuilding held counters, deactivating past
// events and releasing stale coupon applications.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

const (
	BookingSeatsCleanupJobID  = "booking_seats_cleanup"
	SeatHoldsBackfillJobID    = "seat_holds_backfill"
	ExpiredEventsUpdaterJobID = "expired_events_updater"
	CouponCleanupJobID        = "coupon_cleanup"
)

// Transactor runs fn in one database transaction. Stores called with the
// context handed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(subject string, data interface{}) error
}

type SeatCacheInvalidator interface {
	InvalidateSeatCategories(ctx context.Context, ids []string) error
}

type EventCacheInvalidator interface {
	InvalidateEvents(ctx context.Context, slugs []string) error
}

type EventIndexer interface {
	UpdateEventStatus(ctx context.Context, event *models.Event) error
}

// Option configures the optional collaborators shared by all jobs. Jobs
// ignore the ones they have no use for.
type Option func(*options)

type options struct {
	now        func() time.Time
	publisher  Publisher
	seatCache  SeatCacheInvalidator
	eventCache EventCacheInvalidator
	indexer    EventIndexer
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPublisher enables NATS notifications after each committed sweep.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithSeatCache(c SeatCacheInvalidator) Option {
	return func(o *options) { o.seatCache = c }
}

func WithEventCache(c EventCacheInvalidator) Option {
	return func(o *options) { o.eventCache = c }
}

func WithEventIndexer(i EventIndexer) Option {
	return func(o *options) { o.indexer = i }
}

// publish logs delivery failures instead of returning them.
func (o *options) publish(subject string, event interface{}, logArgs ...any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(subject, event); err != nil {
		args := append([]any{"subject", subject, "error", err}, logArgs...)
		slog.Error("Failed to publish event", args...)
	}
}

func (o *options) invalidateSeatCategories(ctx context.Context, ids []string) {
	if o.seatCache == nil || len(ids) == 0 {
		return
	}
	if err := o.seatCache.InvalidateSeatCategories(ctx, ids); err != nil {
		slog.Warn("Failed to invalidate seat availability cache", "seat_categories", len(ids), "error", err)
	}
}
