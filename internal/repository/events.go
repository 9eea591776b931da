package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"

	"github.com/lib/pq"
)

const eventDateLayout = "2006-01-02"

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListByStatusForUpdate returns events in any of the given statuses, locked
// for the surrounding transaction.
func (r *EventRepository) ListByStatusForUpdate(ctx context.Context, statuses ...models.EventStatus) ([]models.Event, error) {
	query := `
		SELECT event_id, event_slug, event_title, event_dates::text[], event_status, updated_at
		FROM events
		WHERE event_status = ANY($1)
		ORDER BY event_id
		FOR UPDATE`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, pq.Array(models.Strings(statuses...)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		var dates pq.StringArray
		err := rows.Scan(
			&event.ID,
			&event.Slug,
			&event.Title,
			&dates,
			&event.Status,
			&event.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		event.Dates, err = parseEventDates(dates)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", event.ID, err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	query := `
		UPDATE events
		SET event_status = $1, updated_at = NOW()
		WHERE event_id = $2`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, status, id)
	return err
}

func parseEventDates(raw []string) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		d, err := time.Parse(eventDateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid event date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
