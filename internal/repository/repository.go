package repository

import (
	"github.com/Eventstwogo/events-backend-sub002/internal/database"
)

type Repositories struct {
	Orders         *BookingOrderRepository
	SeatCategories *SeatCategoryRepository
	Events         *EventRepository
	Coupons        *CouponRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Orders:         NewBookingOrderRepository(db),
		SeatCategories: NewSeatCategoryRepository(db),
		Events:         NewEventRepository(db),
		Coupons:        NewCouponRepository(db),
	}
}
