package models

import (
	"time"
)

// SeatCategory is a priced tier of seats within an event slot. Its counters
// partition capacity: Booked for paid seats, Held for seats reserved by
// orders that are still awaiting payment.
type SeatCategory struct {
	ID           string    `json:"seat_category_id" db:"seat_category_id"`
	SlotID       string    `json:"slot_ref_id" db:"slot_ref_id"`
	Label        string    `json:"category_label" db:"category_label"`
	Price        string    `json:"price" db:"price"`
	TotalTickets int       `json:"total_tickets" db:"total_tickets"`
	Booked       int       `json:"booked" db:"booked"`
	Held         int       `json:"held" db:"held"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ReleaseHold gives n held seats back to the pool. Held never drops below
// zero; clamped reports whether fewer than n seats were actually held.
func (c *SeatCategory) ReleaseHold(n int) (clamped bool) {
	if n > c.Held {
		c.Held = 0
		return true
	}
	c.Held -= n
	return false
}

// Available returns the number of seats that can still be held or sold.
func (c *SeatCategory) Available() int {
	return c.TotalTickets - c.Booked - c.Held
}

// BookingOrder is a user's purchase attempt for one event slot.
type BookingOrder struct {
	ID               string        `json:"order_id" db:"order_id"`
	UserID           string        `json:"user_ref_id" db:"user_ref_id"`
	EventID          string        `json:"event_ref_id" db:"event_ref_id"`
	SlotID           string        `json:"slot_ref_id" db:"slot_ref_id"`
	TotalAmount      string        `json:"total_amount" db:"total_amount"`
	BookingStatus    BookingStatus `json:"booking_status" db:"booking_status"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentReference *string       `json:"payment_reference" db:"payment_reference"`
	CouponStatus     bool          `json:"coupon_status" db:"coupon_status"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	LineItems        []LineItem    `json:"line_items,omitempty"` // Not from DB, filled separately
}

// HoldExpired reports whether the order still holds seats without a
// resolved payment and was created at or before cutoff.
func (o *BookingOrder) HoldExpired(cutoff time.Time) bool {
	return o.BookingStatus == BookingStatusProcessing &&
		!o.PaymentStatus.Resolved() &&
		!o.CreatedAt.After(cutoff)
}

// Expire moves the order to its terminal abandoned state.
func (o *BookingOrder) Expire() {
	o.BookingStatus = BookingStatusCancelled
	o.PaymentStatus = PaymentStatusFailed
}

// SeatCount sums num_seats over the order's line items.
func (o *BookingOrder) SeatCount() int {
	total := 0
	for _, item := range o.LineItems {
		total += item.NumSeats
	}
	return total
}

// LineItem is one seat category's share of an order.
type LineItem struct {
	ID             string    `json:"booking_id" db:"booking_id"`
	OrderID        string    `json:"order_id" db:"order_id"`
	SeatCategoryID string    `json:"seat_category_ref_id" db:"seat_category_ref_id"`
	NumSeats       int       `json:"num_seats" db:"num_seats"`
	PricePerSeat   string    `json:"price_per_seat" db:"price_per_seat"`
	TotalPrice     string    `json:"total_price" db:"total_price"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Event represents an event in the system
type Event struct {
	ID        string      `json:"event_id" db:"event_id"`
	Slug      string      `json:"event_slug" db:"event_slug"`
	Title     string      `json:"event_title" db:"event_title"`
	Dates     []time.Time `json:"event_dates" db:"event_dates"`
	Status    EventStatus `json:"event_status" db:"event_status"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// LastDate returns the latest scheduled date, or false when the event has none.
func (e *Event) LastDate() (time.Time, bool) {
	if len(e.Dates) == 0 {
		return time.Time{}, false
	}
	last := e.Dates[0]
	for _, d := range e.Dates[1:] {
		if d.After(last) {
			last = d
		}
	}
	return last, true
}

// Ended reports whether every scheduled date is before today. Events without
// dates never end.
func (e *Event) Ended(today time.Time) bool {
	last, ok := e.LastDate()
	if !ok {
		return false
	}
	return last.Before(today)
}

// Coupon is a discount code with a fixed number of redemptions.
type Coupon struct {
	ID              string    `json:"coupon_id" db:"coupon_id"`
	EventID         string    `json:"event_id" db:"event_id"`
	Code            string    `json:"coupon_code" db:"coupon_code"`
	NumberOfCoupons int       `json:"number_of_coupons" db:"number_of_coupons"`
	Applied         int       `json:"applied_coupons" db:"applied_coupons"`
	Sold            int       `json:"sold_coupons" db:"sold_coupons"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HeldCoupons is the number of applications not yet backed by a sale.
func (c *Coupon) HeldCoupons() int {
	if c.Applied <= c.Sold {
		return 0
	}
	return c.Applied - c.Sold
}
