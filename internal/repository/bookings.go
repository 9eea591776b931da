package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	apperrors "github.com/Eventstwogo/events-backend-sub002/internal/errors"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"

	"github.com/lib/pq"
)

type BookingOrderRepository struct {
	db *database.DB
}

func NewBookingOrderRepository(db *database.DB) *BookingOrderRepository {
	return &BookingOrderRepository{db: db}
}

// ListExpiredHolds returns PROCESSING orders with an unresolved payment created
// at or before cutoff, with their line items attached. Rows are locked until
// the surrounding transaction ends.
func (r *BookingOrderRepository) ListExpiredHolds(ctx context.Context, cutoff time.Time) ([]models.BookingOrder, error) {
	query := `
		SELECT order_id, user_ref_id, event_ref_id, slot_ref_id, total_amount,
		       booking_status, payment_status, payment_reference, coupon_status,
		       created_at, updated_at
		FROM event_booking_orders
		WHERE booking_status = $1
		  AND payment_status <> ALL($2)
		  AND created_at <= $3
		ORDER BY created_at ASC
		FOR UPDATE`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query,
		models.BookingStatusProcessing,
		pq.Array(models.Strings(models.ResolvedPaymentStatuses...)),
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.BookingOrder
	for rows.Next() {
		var order models.BookingOrder
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.EventID,
			&order.SlotID,
			&order.TotalAmount,
			&order.BookingStatus,
			&order.PaymentStatus,
			&order.PaymentReference,
			&order.CouponStatus,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return nil, nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	items, err := r.lineItemsByOrder(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load line items: %w", err)
	}
	for i := range orders {
		orders[i].LineItems = items[orders[i].ID]
	}

	return orders, nil
}

func (r *BookingOrderRepository) lineItemsByOrder(ctx context.Context, orderIDs []string) (map[string][]models.LineItem, error) {
	query := `
		SELECT booking_id, order_id, seat_category_ref_id, num_seats,
		       price_per_seat, total_price, created_at
		FROM event_booking_line_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, booking_id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]models.LineItem, len(orderIDs))
	for rows.Next() {
		var item models.LineItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.SeatCategoryID,
			&item.NumSeats,
			&item.PricePerSeat,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	return items, rows.Err()
}

// UpdateStatus persists the order's booking and payment status.
func (r *BookingOrderRepository) UpdateStatus(ctx context.Context, order *models.BookingOrder) error {
	query := `
		UPDATE event_booking_orders
		SET booking_status = $1, payment_status = $2, updated_at = NOW()
		WHERE order_id = $3`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, order.BookingStatus, order.PaymentStatus, order.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("booking order %s: %w", order.ID, apperrors.ErrNotFound)
	}

	return nil
}

// HeldSeatsByCategory sums num_seats of line items whose order is still
// PROCESSING, keyed by seat category.
func (r *BookingOrderRepository) HeldSeatsByCategory(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT li.seat_category_ref_id, COALESCE(SUM(li.num_seats), 0)
		FROM event_booking_line_items li
		JOIN event_booking_orders o ON o.order_id = li.order_id
		WHERE o.booking_status = $1
		GROUP BY li.seat_category_ref_id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, models.BookingStatusProcessing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	held := make(map[string]int)
	for rows.Next() {
		var categoryID string
		var seats int
		if err := rows.Scan(&categoryID, &seats); err != nil {
			return nil, err
		}
		held[categoryID] = seats
	}

	return held, rows.Err()
}
