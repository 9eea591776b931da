package jobs

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Eventstwogo/events-backend-sub002/internal/models"
)

// memStore is an in-memory implementation of every store the jobs use.
// WithinTransaction snapshots state and restores it when fn fails.
type memStore struct {
	orders     map[string]*models.BookingOrder
	categories map[string]*models.SeatCategory
	events     map[string]*models.Event
	coupons    map[string]*models.Coupon

	writes    int
	commits   int
	rollbacks int
	lastCut   time.Time

	failUpdateHeld   map[string]error
	failUpdateStatus map[string]error
	failList         error
}

func newMemStore() *memStore {
	return &memStore{
		orders:           map[string]*models.BookingOrder{},
		categories:       map[string]*models.SeatCategory{},
		events:           map[string]*models.Event{},
		coupons:          map[string]*models.Coupon{},
		failUpdateHeld:   map[string]error{},
		failUpdateStatus: map[string]error{},
	}
}

type memSnapshot struct {
	orders     map[string]models.BookingOrder
	categories map[string]models.SeatCategory
	events     map[string]models.Event
	coupons    map[string]models.Coupon
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		orders:     map[string]models.BookingOrder{},
		categories: map[string]models.SeatCategory{},
		events:     map[string]models.Event{},
		coupons:    map[string]models.Coupon{},
	}
	for id, o := range s.orders {
		snap.orders[id] = copyOrder(*o)
	}
	for id, c := range s.categories {
		snap.categories[id] = *c
	}
	for id, e := range s.events {
		snap.events[id] = *e
	}
	for id, c := range s.coupons {
		snap.coupons[id] = *c
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.orders = map[string]*models.BookingOrder{}
	for id, o := range snap.orders {
		o := o
		s.orders[id] = &o
	}
	s.categories = map[string]*models.SeatCategory{}
	for id, c := range snap.categories {
		c := c
		s.categories[id] = &c
	}
	s.events = map[string]*models.Event{}
	for id, e := range snap.events {
		e := e
		s.events[id] = &e
	}
	s.coupons = map[string]*models.Coupon{}
	for id, c := range snap.coupons {
		c := c
		s.coupons[id] = &c
	}
}

func copyOrder(o models.BookingOrder) models.BookingOrder {
	o.LineItems = append([]models.LineItem(nil), o.LineItems...)
	return o
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// Orders

func (s *memStore) addOrder(o models.BookingOrder, items ...models.LineItem) {
	for i := range items {
		items[i].OrderID = o.ID
	}
	o.LineItems = items
	s.orders[o.ID] = &o
}

func (s *memStore) ListExpiredHolds(_ context.Context, cutoff time.Time) ([]models.BookingOrder, error) {
	s.lastCut = cutoff
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.BookingOrder
	for _, o := range s.orders {
		if o.HoldExpired(cutoff) {
			out = append(out, copyOrder(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, order *models.BookingOrder) error {
	s.writes++
	if err := s.failUpdateStatus[order.ID]; err != nil {
		return err
	}
	stored, ok := s.orders[order.ID]
	if !ok {
		return errors.New("order not found")
	}
	stored.BookingStatus = order.BookingStatus
	stored.PaymentStatus = order.PaymentStatus
	return nil
}

func (s *memStore) HeldSeatsByCategory(context.Context) (map[string]int, error) {
	held := map[string]int{}
	for _, o := range s.orders {
		if o.BookingStatus != models.BookingStatusProcessing {
			continue
		}
		for _, item := range o.LineItems {
			held[item.SeatCategoryID] += item.NumSeats
		}
	}
	return held, nil
}

// Seat categories

func (s *memStore) addCategory(c models.SeatCategory) {
	s.categories[c.ID] = &c
}

func (s *memStore) held(id string) int {
	return s.categories[id].Held
}

func (s *memStore) GetByIDForUpdate(_ context.Context, id string) (*models.SeatCategory, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (s *memStore) ListForUpdate(context.Context) ([]models.SeatCategory, error) {
	var out []models.SeatCategory
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) UpdateHeld(_ context.Context, id string, held int) error {
	s.writes++
	if err := s.failUpdateHeld[id]; err != nil {
		return err
	}
	c, ok := s.categories[id]
	if !ok {
		return errors.New("seat category not found")
	}
	c.Held = held
	return nil
}

// Events

func (s *memStore) ListByStatusForUpdate(_ context.Context, statuses ...models.EventStatus) ([]models.Event, error) {
	var out []models.Event
	for _, e := range s.events {
		for _, status := range statuses {
			if e.Status == status {
				out = append(out, *e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// updateEventStatus backs eventStore.UpdateStatus, which would clash with
// the order store method of the same name.
func (s *memStore) updateEventStatus(id string, status models.EventStatus) error {
	s.writes++
	e, ok := s.events[id]
	if !ok {
		return errors.New("event not found")
	}
	e.Status = status
	return nil
}

type eventStore struct{ *memStore }

func (e eventStore) UpdateStatus(_ context.Context, id string, status models.EventStatus) error {
	return e.updateEventStatus(id, status)
}

// Coupons

func (s *memStore) ListHeldSince(_ context.Context, cutoff time.Time) ([]models.Coupon, error) {
	var out []models.Coupon
	for _, c := range s.coupons {
		if c.Applied > c.Sold && !c.UpdatedAt.After(cutoff) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ResetApplied(_ context.Context, id string) error {
	s.writes++
	c, ok := s.coupons[id]
	if !ok {
		return errors.New("coupon not found")
	}
	c.Applied = c.Sold
	return nil
}

// Collaborators

type recordingPublisher struct {
	subjects []string
	events   []interface{}
	err      error
}

func (p *recordingPublisher) Publish(subject string, data interface{}) error {
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, data)
	return p.err
}

type recordingCache struct {
	seatCategories []string
	events         []string
	err            error
}

func (c *recordingCache) InvalidateSeatCategories(_ context.Context, ids []string) error {
	c.seatCategories = append(c.seatCategories, ids...)
	return c.err
}

func (c *recordingCache) InvalidateEvents(_ context.Context, slugs []string) error {
	c.events = append(c.events, slugs...)
	return c.err
}

type recordingIndexer struct {
	statuses map[string]models.EventStatus
	err      error
}

func (i *recordingIndexer) UpdateEventStatus(_ context.Context, event *models.Event) error {
	if i.statuses == nil {
		i.statuses = map[string]models.EventStatus{}
	}
	i.statuses[event.ID] = event.Status
	return i.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
