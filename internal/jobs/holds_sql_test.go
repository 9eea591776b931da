package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/database"
	"github.com/Eventstwogo/events-backend-sub002/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLReconciler(t *testing.T) (*HoldReconciler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: sqlDB}
	repos := repository.NewRepositories(db)
	return NewHoldReconciler(db, repos.Orders, repos.SeatCategories, 15*time.Minute, WithClock(fixedClock(sweepNow))), mock
}

func expectExpiredOrder(mock sqlmock.Sqlmock) {
	created := minutesAgo(20)
	mock.ExpectQuery("FROM event_booking_orders").
		WithArgs("PROCESSING", pq.Array([]string{"COMPLETED", "FAILED"}), minutesAgo(15)).
		WillReturnRows(sqlmock.NewRows([]string{
			"order_id", "user_ref_id", "event_ref_id", "slot_ref_id", "total_amount",
			"booking_status", "payment_status", "payment_reference", "coupon_status",
			"created_at", "updated_at",
		}).AddRow("o1", "u1", "e1", "s1", "40.00", "PROCESSING", "PENDING", nil, false, created, created))
	mock.ExpectQuery("FROM event_booking_line_items").
		WithArgs(pq.Array([]string{"o1"})).
		WillReturnRows(sqlmock.NewRows([]string{
			"booking_id", "order_id", "seat_category_ref_id", "num_seats",
			"price_per_seat", "total_price", "created_at",
		}).AddRow("b1", "o1", "C", 2, "20.00", "40.00", created))
	mock.ExpectQuery("FROM event_seat_categories").
		WithArgs("C").
		WillReturnRows(sqlmock.NewRows([]string{
			"seat_category_id", "slot_ref_id", "category_label", "price",
			"total_tickets", "booked", "held", "updated_at",
		}).AddRow("C", "s1", "General", "20.00", 10, 0, 2, created))
}

func TestReleaseExpiredHoldsCommitsOneTransaction(t *testing.T) {
	reconciler, mock := newSQLReconciler(t)

	mock.ExpectBegin()
	expectExpiredOrder(mock)
	mock.ExpectExec("UPDATE event_seat_categories").
		WithArgs(0, "C").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE event_booking_orders").
		WithArgs("CANCELLED", "FAILED", "o1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	released, err := reconciler.ReleaseExpiredHolds(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredHoldsRollsBackOnWriteError(t *testing.T) {
	reconciler, mock := newSQLReconciler(t)

	mock.ExpectBegin()
	expectExpiredOrder(mock)
	mock.ExpectExec("UPDATE event_seat_categories").
		WithArgs(0, "C").
		WillReturnError(errors.New("could not serialize access"))
	mock.ExpectRollback()

	released, err := reconciler.ReleaseExpiredHolds(context.Background())

	assert.ErrorContains(t, err, "could not serialize access")
	assert.Zero(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredHoldsEmptySweepWritesNothing(t *testing.T) {
	reconciler, mock := newSQLReconciler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM event_booking_orders").
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectCommit()

	released, err := reconciler.ReleaseExpiredHolds(context.Background())

	require.NoError(t, err)
	assert.Zero(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}
