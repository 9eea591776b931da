package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/logger"
	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

// DefaultHoldDuration is how long an unpaid order keeps its seats.
const DefaultHoldDuration = 15 * time.Minute

const holdTimeoutReason = "hold_timeout"

type OrderStore interface {
	ListExpiredHolds(ctx context.Context, cutoff time.Time) ([]models.BookingOrder, error)
	UpdateStatus(ctx context.Context, order *models.BookingOrder) error
}

type SeatCategoryStore interface {
	GetByIDForUpdate(ctx context.Context, id string) (*models.SeatCategory, error)
	UpdateHeld(ctx context.Context, id string, held int) error
}

// HoldReconciler releases seats held by orders whose payment never
// completed within the hold duration.
type HoldReconciler struct {
	options
	tx           Transactor
	orders       OrderStore
	seats        SeatCategoryStore
	holdDuration time.Duration
}

// NewHoldReconciler creates a reconciler. A non-positive holdDuration means DefaultHoldDuration.
func NewHoldReconciler(tx Transactor, orders OrderStore, seats SeatCategoryStore, holdDuration time.Duration, opts ...Option) *HoldReconciler {
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}
	return &HoldReconciler{
		options:      newOptions(opts),
		tx:           tx,
		orders:       orders,
		seats:        seats,
		holdDuration: holdDuration,
	}
}

type holdSweep struct {
	released int
	clamped  int
	dangling int
	expired  []models.BookingOrder
	touched  []string
	seen     map[string]struct{}
}

func (s *holdSweep) touch(seatCategoryID string) {
	if _, ok := s.seen[seatCategoryID]; ok {
		return
	}
	s.seen[seatCategoryID] = struct{}{}
	s.touched = append(s.touched, seatCategoryID)
}

// Run adapts the reconciler to the scheduler.
func (r *HoldReconciler) Run(ctx context.Context) error {
	_, err := r.ReleaseExpiredHolds(ctx)
	return err
}

// ReleaseExpiredHolds cancels every PROCESSING order with an unresolved
// payment created at or before now minus the hold duration, returning the
// seats of its line items to their categories. The whole sweep commits or
// rolls back as one transaction. It returns the number of line items
// processed, including those whose seat category no longer exists.
func (r *HoldReconciler) ReleaseExpiredHolds(ctx context.Context) (int, error) {
	now := r.now()
	cutoff := now.Add(-r.holdDuration)

	var sweep holdSweep
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sweep = holdSweep{seen: make(map[string]struct{})}

		orders, err := r.orders.ListExpiredHolds(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list expired holds: %w", err)
		}

		for i := range orders {
			order := &orders[i]
			if !order.HoldExpired(cutoff) {
				continue
			}

			for _, item := range order.LineItems {
				if err := r.releaseLineItem(ctx, order, item, &sweep); err != nil {
					return err
				}
			}

			order.Expire()
			if err := r.orders.UpdateStatus(ctx, order); err != nil {
				return fmt.Errorf("expire order %s: %w", order.ID, err)
			}
			sweep.expired = append(sweep.expired, *order)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.afterCommit(ctx, now, cutoff, &sweep)
	return sweep.released, nil
}

func (r *HoldReconciler) releaseLineItem(ctx context.Context, order *models.BookingOrder, item models.LineItem, sweep *holdSweep) error {
	category, err := r.seats.GetByIDForUpdate(ctx, item.SeatCategoryID)
	if err != nil {
		return fmt.Errorf("load seat category %s: %w", item.SeatCategoryID, err)
	}

	log := logger.WithFields(
		"order_id", order.ID,
		"booking_id", item.ID,
		"seat_category_id", item.SeatCategoryID,
		"num_seats", item.NumSeats)

	// A line item pointing at a deleted category still counts as released.
	if category == nil {
		log.Warn("Seat category not found, skipping line item")
		sweep.dangling++
		sweep.released++
		return nil
	}

	held := category.Held
	if category.ReleaseHold(item.NumSeats) {
		log.Warn("Held seats lower than released amount, clamping to zero", "held", held)
		sweep.clamped++
	}

	if err := r.seats.UpdateHeld(ctx, category.ID, category.Held); err != nil {
		return fmt.Errorf("update held seats of category %s: %w", category.ID, err)
	}

	sweep.released++
	sweep.touch(category.ID)
	return nil
}

func (r *HoldReconciler) afterCommit(ctx context.Context, now, cutoff time.Time, sweep *holdSweep) {
	metrics.HoldsReleased.Add(float64(sweep.released))
	metrics.OrdersExpired.Add(float64(len(sweep.expired)))
	metrics.HeldClamped.Add(float64(sweep.clamped))
	metrics.DanglingLineItems.Add(float64(sweep.dangling))

	if len(sweep.expired) == 0 {
		slog.Debug("No expired seat holds found", "cutoff", cutoff)
		return
	}

	slog.Info("Released expired seat holds",
		"orders", len(sweep.expired),
		"line_items", sweep.released,
		"clamped", sweep.clamped,
		"dangling", sweep.dangling,
		"cutoff", cutoff)

	for i := range sweep.expired {
		order := &sweep.expired[i]
		r.publish(models.EventBookingExpired, models.BookingExpiredEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			EventID:       order.EventID,
			SlotID:        order.SlotID,
			SeatsReleased: order.SeatCount(),
			Reason:        holdTimeoutReason,
			Timestamp:     now,
		}, "order_id", order.ID)
	}

	r.invalidateSeatCategories(ctx, sweep.touched)
}
