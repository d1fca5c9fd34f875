package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/payment"
	q "github.com/iliyamo/discover-nairobi/internal/queue"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

var testNow = time.Date(2025, 10, 24, 10, 0, 0, 0, catalog.Nairobi)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishBookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockPublisher) PublishBookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type stubEvents map[string]catalog.Event

func (s stubEvents) Lookup(_ context.Context, id string) (catalog.Event, error) {
	e, ok := s[id]
	if !ok {
		return catalog.Event{}, catalog.ErrNotFound
	}
	return e, nil
}

// queueClock queues scheduled calls until drain runs them.
type queueClock struct {
	mu    sync.Mutex
	queue []*queuedTimer
}

type queuedTimer struct {
	f       func()
	stopped bool
}

func (t *queuedTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *queueClock) AfterFunc(_ time.Duration, f func()) payment.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &queuedTimer{f: f}
	c.queue = append(c.queue, t)
	return t
}

func (c *queueClock) drain() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		t := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		if !t.stopped {
			t.f()
		}
	}
}

type fixture struct {
	store      *store.MemoryStore
	bookings   *repository.BookingRepo
	organizers *repository.OrganizerRepo
	pub        *mockPublisher
	clock      *queueClock
	payments   *payment.Manager
	svc        *BookingService
	org        *OrganizerService
}

func newFixture(events stubEvents) *fixture {
	st := store.NewMemoryStore()
	f := &fixture{
		store:      st,
		bookings:   repository.NewBookingRepo(st),
		organizers: repository.NewOrganizerRepo(st),
		pub:        &mockPublisher{},
		clock:      &queueClock{},
	}
	gw := payment.NewSimulatedGateway(0)
	gw.Draw = func() float64 { return 0.99 }
	f.payments = payment.NewManager(gw, payment.Timings{})
	f.payments.Sched = f.clock

	f.svc = NewBookingService(f.bookings, events, f.payments, f.pub)
	f.svc.Now = func() time.Time { return testNow }
	f.org = NewOrganizerService(f.organizers, f.bookings, f.pub)
	f.org.Now = func() time.Time { return testNow }
	f.organizers.Now = f.org.Now
	return f
}
