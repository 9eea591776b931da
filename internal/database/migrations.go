package database

import (
	"context"
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations(ctx context.Context) error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createSeatCategoriesTable,
		createBookingOrdersTable,
		createBookingLineItemsTable,
		createCouponsTable,
		createBookingOrdersExpiryIndex,
		createLineItemsOrderIndex,
		createCouponsHeldIndex,
	}

	for i, migration := range migrations {
		slog.Debug("Running migration", "step", i+1)
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully", "count", len(migrations))
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    event_id VARCHAR(64) PRIMARY KEY,
    event_slug VARCHAR(255) UNIQUE NOT NULL,
    event_title VARCHAR(500) NOT NULL,
    organizer_id VARCHAR(64),
    event_dates DATE[] NOT NULL DEFAULT '{}',
    event_status VARCHAR(16) NOT NULL DEFAULT 'PENDING'
        CHECK (event_status IN ('ACTIVE', 'INACTIVE', 'PENDING')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createSeatCategoriesTable = `
CREATE TABLE IF NOT EXISTS event_seat_categories (
    seat_category_id VARCHAR(64) PRIMARY KEY,
    slot_ref_id VARCHAR(64) NOT NULL,
    category_label VARCHAR(255) NOT NULL,
    price NUMERIC(10, 2) NOT NULL DEFAULT 0,
    total_tickets INTEGER NOT NULL DEFAULT 0,
    booked INTEGER NOT NULL DEFAULT 0 CHECK (booked >= 0),
    held INTEGER NOT NULL DEFAULT 0 CHECK (held >= 0),
    seat_category_status BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createBookingOrdersTable = `
CREATE TABLE IF NOT EXISTS event_booking_orders (
    order_id VARCHAR(64) PRIMARY KEY,
    user_ref_id VARCHAR(64) NOT NULL,
    event_ref_id VARCHAR(64) NOT NULL REFERENCES events(event_id),
    slot_ref_id VARCHAR(64) NOT NULL,
    total_amount NUMERIC(10, 2) NOT NULL DEFAULT 0,
    booking_status VARCHAR(16) NOT NULL DEFAULT 'PROCESSING'
        CHECK (booking_status IN ('PROCESSING', 'APPROVED', 'CANCELLED', 'FAILED')),
    payment_status VARCHAR(32) NOT NULL DEFAULT 'PENDING'
        CHECK (payment_status IN ('PENDING', 'APPROVED', 'FAILED', 'REFUNDED',
                                  'PARTIALLY_REFUNDED', 'CANCELLED', 'COMPLETED')),
    payment_reference VARCHAR(255),
    coupon_status BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Seat categories are not a foreign key: line items may outlive a deleted category.
const createBookingLineItemsTable = `
CREATE TABLE IF NOT EXISTS event_booking_line_items (
    booking_id VARCHAR(64) PRIMARY KEY,
    order_id VARCHAR(64) NOT NULL REFERENCES event_booking_orders(order_id) ON DELETE CASCADE,
    seat_category_ref_id VARCHAR(64) NOT NULL,
    num_seats INTEGER NOT NULL CHECK (num_seats > 0),
    price_per_seat NUMERIC(10, 2) NOT NULL DEFAULT 0,
    total_price NUMERIC(10, 2) NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createCouponsTable = `
CREATE TABLE IF NOT EXISTS coupons (
    coupon_id VARCHAR(64) PRIMARY KEY,
    event_id VARCHAR(64) NOT NULL,
    organizer_id VARCHAR(64),
    coupon_name VARCHAR(255) NOT NULL,
    coupon_code VARCHAR(64) NOT NULL,
    coupon_percentage NUMERIC(5, 2) NOT NULL DEFAULT 0,
    number_of_coupons INTEGER NOT NULL DEFAULT 0,
    applied_coupons INTEGER NOT NULL DEFAULT 0,
    sold_coupons INTEGER NOT NULL DEFAULT 0,
    coupon_status BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createBookingOrdersExpiryIndex = `
CREATE INDEX IF NOT EXISTS idx_booking_orders_status_created
    ON event_booking_orders (booking_status, created_at);`

const createLineItemsOrderIndex = `
CREATE INDEX IF NOT EXISTS idx_booking_line_items_order
    ON event_booking_line_items (order_id);`

const createCouponsHeldIndex = `
CREATE INDEX IF NOT EXISTS idx_coupons_updated_at
    ON coupons (updated_at)
    WHERE applied_coupons > sold_coupons;`
