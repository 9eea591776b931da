package repository

import (
	"context"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

type CouponRepository struct {
	db *database.DB
}

func NewCouponRepository(db *database.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// ListHeldSince returns coupons with applications not backed by a sale whose
// last update is at or before cutoff.
func (r *CouponRepository) ListHeldSince(ctx context.Context, cutoff time.Time) ([]models.Coupon, error) {
	query := `
		SELECT coupon_id, event_id, coupon_code, number_of_coupons,
		       applied_coupons, sold_coupons, updated_at
		FROM coupons
		WHERE applied_coupons > sold_coupons
		  AND updated_at <= $1
		ORDER BY updated_at ASC
		FOR UPDATE`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []models.Coupon
	for rows.Next() {
		var coupon models.Coupon
		err := rows.Scan(
			&coupon.ID,
			&coupon.EventID,
			&coupon.Code,
			&coupon.NumberOfCoupons,
			&coupon.Applied,
			&coupon.Sold,
			&coupon.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}

	return coupons, rows.Err()
}

// ResetApplied drops unsold applications: applied_coupons becomes sold_coupons.
func (r *CouponRepository) ResetApplied(ctx context.Context, id string) error {
	query := `
		UPDATE coupons
		SET applied_coupons = sold_coupons, updated_at = NOW()
		WHERE coupon_id = $1`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, id)
	return err
}
