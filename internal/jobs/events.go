package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

type EventStore interface {
	ListByStatusForUpdate(ctx context.Context, statuses ...models.EventStatus) ([]models.Event, error)
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
}

// ExpiredEventUpdater deactivates ACTIVE and PENDING events whose last date has passed.
type ExpiredEventUpdater struct {
	options
	tx     Transactor
	events EventStore
}

func NewExpiredEventUpdater(tx Transactor, events EventStore, opts ...Option) *ExpiredEventUpdater {
	return &ExpiredEventUpdater{
		options: newOptions(opts),
		tx:      tx,
		events:  events,
	}
}

func (u *ExpiredEventUpdater) Run(ctx context.Context) error {
	_, err := u.UpdateExpiredEvents(ctx)
	return err
}

type deactivation struct {
	event    models.Event
	previous models.EventStatus
}

// UpdateExpiredEvents returns the number of events moved to INACTIVE.
// Dates are compared in UTC; events without dates are left alone.
func (u *ExpiredEventUpdater) UpdateExpiredEvents(ctx context.Context) (int, error) {
	now := u.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var updated []deactivation
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated = nil

		events, err := u.events.ListByStatusForUpdate(ctx, models.EventStatusActive, models.EventStatusPending)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		for _, event := range events {
			if !event.Ended(today) {
				continue
			}

			previous := event.Status
			event.Status = models.EventStatusInactive
			if err := u.events.UpdateStatus(ctx, event.ID, event.Status); err != nil {
				return fmt.Errorf("deactivate event %s: %w", event.ID, err)
			}
			updated = append(updated, deactivation{event: event, previous: previous})
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.EventsDeactivated.Add(float64(len(updated)))
	if len(updated) == 0 {
		return 0, nil
	}

	slog.Info("Deactivated expired events", "count", len(updated), "today", today.Format("2006-01-02"))

	slugs := make([]string, 0, len(updated))
	for i := range updated {
		event := &updated[i].event
		slugs = append(slugs, event.Slug)

		if u.indexer != nil {
			if err := u.indexer.UpdateEventStatus(ctx, event); err != nil {
				slog.Warn("Failed to sync event status to search index", "event_id", event.ID, "error", err)
			}
		}

		u.publish(models.EventEventDeactivated, models.EventDeactivatedEvent{
			EventID:        event.ID,
			Slug:           event.Slug,
			PreviousStatus: updated[i].previous,
			Timestamp:      now,
		}, "event_id", event.ID)
	}

	if u.eventCache != nil {
		if err := u.eventCache.InvalidateEvents(ctx, slugs); err != nil {
			slog.Warn("Failed to invalidate event cache", "events", len(slugs), "error", err)
		}
	}

	return len(updated), nil
}
