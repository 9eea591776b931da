package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillHeldCountsRebuildsDrift(t *testing.T) {
	store := newMemStore()
	store.addCategory(models.SeatCategory{ID: "A", TotalTickets: 10, Held: 7})
	store.addCategory(models.SeatCategory{ID: "B", TotalTickets: 10, Held: 1})
	store.addCategory(models.SeatCategory{ID: "C", TotalTickets: 10, Held: 3})
	store.addOrder(pendingOrder("o1", minutesAgo(1)), item("b1", "A", 2), item("b2", "C", 3))
	store.addOrder(pendingOrder("o2", minutesAgo(2)), item("b3", "A", 1))

	paid := pendingOrder("paid", minutesAgo(60))
	paid.BookingStatus = models.BookingStatusApproved
	paid.PaymentStatus = models.PaymentStatusCompleted
	store.addOrder(paid, item("b4", "B", 4))

	publisher := &recordingPublisher{}
	cache := &recordingCache{}
	backfiller := NewHeldBackfiller(store, store, store,
		WithClock(fixedClock(sweepNow)), WithPublisher(publisher), WithSeatCache(cache))

	corrected, err := backfiller.BackfillHeldCounts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, corrected)
	assert.Equal(t, 3, store.held("A"))
	assert.Equal(t, 0, store.held("B"))
	assert.Equal(t, 3, store.held("C"))
	assert.Equal(t, []string{"A", "B"}, cache.seatCategories)
	require.Len(t, publisher.events, 2)
	assert.Equal(t, models.SeatHoldsRebuiltEvent{
		SeatCategoryID: "A", PreviousHeld: 7, Held: 3, Timestamp: sweepNow,
	}, publisher.events[0])
}

func TestBackfillHeldCountsConsistentIsNoop(t *testing.T) {
	store := newMemStore()
	store.addCategory(models.SeatCategory{ID: "A", TotalTickets: 10, Held: 2})
	store.addOrder(pendingOrder("o1", minutesAgo(1)), item("b1", "A", 2))

	corrected, err := NewHeldBackfiller(store, store, store).BackfillHeldCounts(context.Background())

	require.NoError(t, err)
	assert.Zero(t, corrected)
	assert.Zero(t, store.writes)
}

func TestBackfillHeldCountsRollsBack(t *testing.T) {
	store := newMemStore()
	store.addCategory(models.SeatCategory{ID: "A", TotalTickets: 10, Held: 9})
	store.addCategory(models.SeatCategory{ID: "B", TotalTickets: 10, Held: 9})
	store.failUpdateHeld["B"] = errors.New("boom")

	_, err := NewHeldBackfiller(store, store, store).BackfillHeldCounts(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 9, store.held("A"))
	assert.Equal(t, 9, store.held("B"))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpdateExpiredEvents(t *testing.T) {
	store := newMemStore()
	store.events["past"] = &models.Event{ID: "past", Slug: "past-show", Status: models.EventStatusActive,
		Dates: []time.Time{date(2026, 2, 20), date(2026, 2, 28)}}
	store.events["pending-past"] = &models.Event{ID: "pending-past", Slug: "pending-show", Status: models.EventStatusPending,
		Dates: []time.Time{date(2026, 1, 5)}}
	store.events["today"] = &models.Event{ID: "today", Slug: "today-show", Status: models.EventStatusActive,
		Dates: []time.Time{date(2026, 2, 1), date(2026, 3, 1)}}
	store.events["undated"] = &models.Event{ID: "undated", Slug: "tba", Status: models.EventStatusActive}
	store.events["inactive"] = &models.Event{ID: "inactive", Slug: "old", Status: models.EventStatusInactive,
		Dates: []time.Time{date(2025, 1, 1)}}

	indexer := &recordingIndexer{}
	cache := &recordingCache{}
	publisher := &recordingPublisher{}
	updater := NewExpiredEventUpdater(store, eventStore{store},
		WithClock(fixedClock(sweepNow)), WithEventIndexer(indexer), WithEventCache(cache), WithPublisher(publisher))

	updated, err := updater.UpdateExpiredEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, models.EventStatusInactive, store.events["past"].Status)
	assert.Equal(t, models.EventStatusInactive, store.events["pending-past"].Status)
	assert.Equal(t, models.EventStatusActive, store.events["today"].Status)
	assert.Equal(t, models.EventStatusActive, store.events["undated"].Status)
	assert.Equal(t, 2, store.writes)

	assert.Equal(t, map[string]models.EventStatus{
		"past":         models.EventStatusInactive,
		"pending-past": models.EventStatusInactive,
	}, indexer.statuses)
	assert.ElementsMatch(t, []string{"past-show", "pending-show"}, cache.events)
	assert.Len(t, publisher.events, 2)
}

func TestUpdateExpiredEventsIndexFailureDoesNotFail(t *testing.T) {
	store := newMemStore()
	store.events["past"] = &models.Event{ID: "past", Slug: "past-show", Status: models.EventStatusActive,
		Dates: []time.Time{date(2026, 2, 1)}}

	updater := NewExpiredEventUpdater(store, eventStore{store},
		WithClock(fixedClock(sweepNow)), WithEventIndexer(&recordingIndexer{err: errors.New("es down")}))

	updated, err := updater.UpdateExpiredEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, models.EventStatusInactive, store.events["past"].Status)
}

func TestReleaseExpiredCoupons(t *testing.T) {
	store := newMemStore()
	store.coupons["stale"] = &models.Coupon{ID: "stale", Applied: 5, Sold: 2, UpdatedAt: minutesAgo(30)}
	store.coupons["boundary"] = &models.Coupon{ID: "boundary", Applied: 1, Sold: 0, UpdatedAt: minutesAgo(15)}
	store.coupons["recent"] = &models.Coupon{ID: "recent", Applied: 4, Sold: 1, UpdatedAt: minutesAgo(5)}
	store.coupons["settled"] = &models.Coupon{ID: "settled", Applied: 3, Sold: 3, UpdatedAt: minutesAgo(90)}

	releaser := NewCouponReleaser(store, store, 15*time.Minute, WithClock(fixedClock(sweepNow)))

	released, err := releaser.ReleaseExpiredCoupons(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, released)
	assert.Equal(t, 2, store.coupons["stale"].Applied)
	assert.Equal(t, 0, store.coupons["boundary"].Applied)
	assert.Equal(t, 4, store.coupons["recent"].Applied)
	assert.Equal(t, 3, store.coupons["settled"].Applied)
	assert.Equal(t, 2, store.writes)
}
