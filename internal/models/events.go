package models

import "time"

// NATS Event Types
const (
	EventBookingExpired   = "booking.expired"
	EventEventDeactivated = "event.deactivated"
	EventSeatHoldsRebuilt = "seat_category.held_rebuilt"
)

// BookingExpiredEvent is published once per order cancelled by the hold reconciler.
type BookingExpiredEvent struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_ref_id"`
	EventID       string    `json:"event_ref_id"`
	SlotID        string    `json:"slot_ref_id"`
	SeatsReleased int       `json:"seats_released"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventDeactivatedEvent is published when an event passes its last date.
type EventDeactivatedEvent struct {
	EventID        string      `json:"event_id"`
	Slug           string      `json:"event_slug"`
	PreviousStatus EventStatus `json:"previous_status"`
	Timestamp      time.Time   `json:"timestamp"`
}

// SeatHoldsRebuiltEvent is published when the backfill corrects a held counter.
type SeatHoldsRebuiltEvent struct {
	SeatCategoryID string    `json:"seat_category_id"`
	PreviousHeld   int       `json:"previous_held"`
	Held           int       `json:"held"`
	Timestamp      time.Time `json:"timestamp"`
}
