package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/metrics"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

const DefaultCouponHoldDuration = 15 * time.Minute

type CouponStore interface {
	ListHeldSince(ctx context.Context, cutoff time.Time) ([]models.Coupon, error)
	ResetApplied(ctx context.Context, id string) error
}

// CouponReleaser gives back coupon applications whose checkout never completed.
type CouponReleaser struct {
	options
	tx           Transactor
	coupons      CouponStore
	holdDuration time.Duration
}

func NewCouponReleaser(tx Transactor, coupons CouponStore, holdDuration time.Duration, opts ...Option) *CouponReleaser {
	if holdDuration <= 0 {
		holdDuration = DefaultCouponHoldDuration
	}
	return &CouponReleaser{
		options:      newOptions(opts),
		tx:           tx,
		coupons:      coupons,
		holdDuration: holdDuration,
	}
}

func (c *CouponReleaser) Run(ctx context.Context) error {
	_, err := c.ReleaseExpiredCoupons(ctx)
	return err
}

// ReleaseExpiredCoupons resets applied_coupons to sold_coupons for coupons
// untouched since the hold duration and returns the number of released applications.
func (c *CouponReleaser) ReleaseExpiredCoupons(ctx context.Context) (int, error) {
	cutoff := c.now().Add(-c.holdDuration)

	var released, touched int
	err := c.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		released, touched = 0, 0

		coupons, err := c.coupons.ListHeldSince(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("list held coupons: %w", err)
		}

		for _, coupon := range coupons {
			held := coupon.HeldCoupons()
			if held == 0 {
				continue
			}
			if err := c.coupons.ResetApplied(ctx, coupon.ID); err != nil {
				return fmt.Errorf("reset coupon %s: %w", coupon.ID, err)
			}
			released += held
			touched++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.CouponsReleased.Add(float64(released))
	if touched > 0 {
		slog.Info("Released expired coupon applications", "coupons", touched, "released", released)
	}

	return released, nil
}
