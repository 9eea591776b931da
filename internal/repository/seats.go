package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	apperrors "github.com/Eventstwogo/events-backend-sub002/internal/errors"
	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

type SeatCategoryRepository struct {
	db *database.DB
}

func NewSeatCategoryRepository(db *database.DB) *SeatCategoryRepository {
	return &SeatCategoryRepository{db: db}
}

const seatCategoryColumns = `seat_category_id, slot_ref_id, category_label, price,
		       total_tickets, booked, held, updated_at`

func scanSeatCategory(row interface{ Scan(...any) error }, c *models.SeatCategory) error {
	return row.Scan(
		&c.ID,
		&c.SlotID,
		&c.Label,
		&c.Price,
		&c.TotalTickets,
		&c.Booked,
		&c.Held,
		&c.UpdatedAt,
	)
}

// GetByIDForUpdate locks and returns the seat category, or nil when it does not exist.
func (r *SeatCategoryRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.SeatCategory, error) {
	query := `
		SELECT ` + seatCategoryColumns + `
		FROM event_seat_categories
		WHERE seat_category_id = $1
		FOR UPDATE`

	category := &models.SeatCategory{}
	err := scanSeatCategory(r.db.Executor(ctx).QueryRowContext(ctx, query, id), category)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return category, nil
}

// ListForUpdate locks and returns every seat category.
func (r *SeatCategoryRepository) ListForUpdate(ctx context.Context) ([]models.SeatCategory, error) {
	query := `
		SELECT ` + seatCategoryColumns + `
		FROM event_seat_categories
		ORDER BY seat_category_id
		FOR UPDATE`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.SeatCategory
	for rows.Next() {
		var category models.SeatCategory
		if err := scanSeatCategory(rows, &category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *SeatCategoryRepository) UpdateHeld(ctx context.Context, id string, held int) error {
	query := `
		UPDATE event_seat_categories
		SET held = $1, updated_at = NOW()
		WHERE seat_category_id = $2`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, held, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("seat category %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}
