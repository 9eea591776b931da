package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

type HeldSeatCounter interface {
	HeldSeatsByCategory(ctx context.Context) (map[string]int, error)
}

type SeatCategoryLister interface {
	ListForUpdate(ctx context.Context) ([]models.SeatCategory, error)
	UpdateHeld(ctx context.Context, id string, held int) error
}

// HeldBackfiller rebuilds each seat category's held counter from the
// PROCESSING orders that reference it.
type HeldBackfiller struct {
	options
	tx     Transactor
	orders HeldSeatCounter
	seats  SeatCategoryLister
}

func NewHeldBackfiller(tx Transactor, orders HeldSeatCounter, seats SeatCategoryLister, opts ...Option) *HeldBackfiller {
	return &HeldBackfiller{
		options: newOptions(opts),
		tx:      tx,
		orders:  orders,
		seats:   seats,
	}
}

func (b *HeldBackfiller) Run(ctx context.Context) error {
	_, err := b.BackfillHeldCounts(ctx)
	return err
}

// BackfillHeldCounts returns the number of seat categories whose counter was corrected.
func (b *HeldBackfiller) BackfillHeldCounts(ctx context.Context) (int, error) {
	now := b.now()

	var corrections []models.SeatHoldsRebuiltEvent
	err := b.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		corrections = nil

		// Lock categories before summing so a concurrent sweep either
		// finished already or waits for us.
		categories, err := b.seats.ListForUpdate(ctx)
		if err != nil {
			return fmt.Errorf("list seat categories: %w", err)
		}

		held, err := b.orders.HeldSeatsByCategory(ctx)
		if err != nil {
			return fmt.Errorf("sum held seats: %w", err)
		}

		for _, category := range categories {
			want := held[category.ID]
			if category.Held == want {
				continue
			}

			slog.Warn("Held counter drift, rebuilding",
				"seat_category_id", category.ID,
				"held", category.Held,
				"expected", want)

			if err := b.seats.UpdateHeld(ctx, category.ID, want); err != nil {
				return fmt.Errorf("update held seats of category %s: %w", category.ID, err)
			}

			corrections = append(corrections, models.SeatHoldsRebuiltEvent{
				SeatCategoryID: category.ID,
				PreviousHeld:   category.Held,
				Held:           want,
				Timestamp:      now,
			})
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.BackfillCorrections.Add(float64(len(corrections)))
	if len(corrections) == 0 {
		return 0, nil
	}

	slog.Info("Rebuilt held seat counters", "corrected", len(corrections))

	ids := make([]string, len(corrections))
	for i, c := range corrections {
		ids[i] = c.SeatCategoryID
		b.publish(models.EventSeatHoldsRebuilt, c, "seat_category_id", c.SeatCategoryID)
	}
	b.invalidateSeatCategories(ctx, ids)

	return len(corrections), nil
}
