package models

// BookingStatus is the lifecycle state of a booking order.
type BookingStatus string

const (
	BookingStatusProcessing BookingStatus = "PROCESSING"
	BookingStatusApproved   BookingStatus = "APPROVED"
	BookingStatusCancelled  BookingStatus = "CANCELLED"
	BookingStatusFailed     BookingStatus = "FAILED"
)

// PaymentStatus is the state of the payment attached to a booking order.
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusApproved          PaymentStatus = "APPROVED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentStatusCancelled         PaymentStatus = "CANCELLED"
	PaymentStatusCompleted         PaymentStatus = "COMPLETED"
)

// ResolvedPaymentStatuses are the payment outcomes after which a hold is no
// longer the reconciler's business.
var ResolvedPaymentStatuses = []PaymentStatus{PaymentStatusCompleted, PaymentStatusFailed}

// Resolved reports whether the payment reached a final outcome.
func (s PaymentStatus) Resolved() bool {
	for _, resolved := range ResolvedPaymentStatuses {
		if s == resolved {
			return true
		}
	}
	return false
}

// EventStatus - статус публикации события
type EventStatus string

const (
	EventStatusActive   EventStatus = "ACTIVE"
	EventStatusInactive EventStatus = "INACTIVE"
	EventStatusPending  EventStatus = "PENDING"
)

// Strings converts statuses for pq.Array arguments.
func Strings[S ~string](statuses ...S) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
