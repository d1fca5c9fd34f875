// Package service holds the booking and organizer workflows that sit
// between the HTTP handlers and the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/payment"
	q "github.com/iliyamo/discover-nairobi/internal/queue"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

var (
	// ErrInvalidQuantity is returned for ticket counts outside 1..10.
	ErrInvalidQuantity = fmt.Errorf("ticket quantity must be between %d and %d", model.MinTickets, model.MaxTickets)
	// ErrNotBookable is returned for draft or cancelled events.
	ErrNotBookable = errors.New("event is not open for booking")
	// ErrSoldOut is returned when the request exceeds remaining capacity.
	ErrSoldOut = errors.New("not enough tickets left")
)

// saveAttempts bounds retries on confirmation code or id collisions.
const saveAttempts = 5

var logger = log.New("service")

// EventLookup resolves an event id regardless of status.
type EventLookup interface {
	Lookup(ctx context.Context, id string) (catalog.Event, error)
}

// Checkout is the outcome of starting a booking.  Exactly one of Booking
// (free events) and Payment (paid events) is set.
type Checkout struct {
	Booking *model.Booking    `json:"booking,omitempty"`
	Payment *payment.Snapshot `json:"payment,omitempty"`
}

// BookingService runs checkout, listing and cancellation for customers.
type BookingService struct {
	Bookings  *repository.BookingRepo
	Events    EventLookup
	Payments  *payment.Manager
	Publisher Publisher
	Now       func() time.Time

	// per-event mutexes; the capacity check and the write happen under one
	seats sync.Map
}

func NewBookingService(bookings *repository.BookingRepo, events EventLookup, payments *payment.Manager, pub Publisher) *BookingService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &BookingService{Bookings: bookings, Events: events, Payments: payments, Publisher: pub, Now: time.Now}
}

// Checkout books qty tickets for eventID.  Free events are confirmed at
// once.  Paid events open an M-PESA session whose success writes the
// booking.
func (s *BookingService) Checkout(ctx context.Context, userID, eventID string, qty int) (*Checkout, error) {
	if qty < model.MinTickets || qty > model.MaxTickets {
		return nil, ErrInvalidQuantity
	}
	ev, err := s.bookableEvent(ctx, eventID, qty)
	if err != nil {
		return nil, err
	}

	if ev.IsFree() {
		b, err := s.reserve(ctx, userID, ev, qty, model.PaymentFree)
		if err != nil {
			return nil, err
		}
		return &Checkout{Booking: b}, nil
	}

	sess := s.Payments.Open(payment.Config{
		Owner:     userID,
		Amount:    ev.Price * float64(qty),
		Reference: ev.Title,
		OnSuccess: func(ctx context.Context) (string, error) {
			// capacity may have changed while the customer was paying
			b, err := s.reserve(ctx, userID, ev, qty, model.PaymentMpesa)
			if err != nil {
				return "", err
			}
			return b.ID, nil
		},
	})
	snap := sess.Snapshot()
	return &Checkout{Payment: &snap}, nil
}

// reserve re-checks capacity and writes the booking while holding the
// event's lock.  It serializes checkouts within this process only.
func (s *BookingService) reserve(ctx context.Context, userID string, ev catalog.Event, qty int, method string) (*model.Booking, error) {
	v, _ := s.seats.LoadOrStore(ev.ID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.bookableEvent(ctx, ev.ID, qty); err != nil {
		return nil, err
	}
	return s.book(ctx, userID, ev, qty, method)
}

func (s *BookingService) bookableEvent(ctx context.Context, eventID string, qty int) (catalog.Event, error) {
	ev, err := s.Events.Lookup(ctx, eventID)
	if err != nil {
		return catalog.Event{}, err
	}
	if !ev.Bookable() {
		return catalog.Event{}, ErrNotBookable
	}
	if ev.Capacity <= 0 {
		return ev, nil
	}
	existing, err := s.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return catalog.Event{}, err
	}
	sold := repository.Summarize(eventID, existing).TotalTicketsSold
	if sold+qty > ev.Capacity {
		return catalog.Event{}, ErrSoldOut
	}
	return ev, nil
}

// book writes a confirmed booking, regenerating the code and bumping the
// id on collision.
func (s *BookingService) book(ctx context.Context, userID string, ev catalog.Event, qty int, method string) (*model.Booking, error) {
	now := s.Now().UTC()
	total := 0.0
	if method == model.PaymentMpesa {
		total = ev.Price * float64(qty)
	}
	b := &model.Booking{
		UserID:         userID,
		EventID:        ev.ID,
		EventTitle:     ev.Title,
		EventDate:      ev.StartsAt,
		EventTime:      ev.Time,
		Location:       ev.Venue,
		Neighborhood:   ev.Neighborhood,
		ImageURL:       ev.ImageURL,
		TicketQuantity: qty,
		TotalAmount:    total,
		PaymentMethod:  method,
		BookingDate:    now,
		Status:         model.BookingConfirmed,
	}

	var err error
	for i := 0; i < saveAttempts; i++ {
		b.ID = repository.NewBookingID(now.Add(time.Duration(i) * time.Millisecond))
		b.ConfirmationCode = repository.GenerateConfirmationCode()
		err = s.Bookings.Save(ctx, b)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.publishConfirmed(ctx, b)
	return b, nil
}

// List returns the user's bookings for scope "upcoming", "past" or "" (all).
// A store read failure is logged and yields an empty list.
func (s *BookingService) List(ctx context.Context, userID, scope string) ([]model.Booking, error) {
	all := store.OrEmpty(s.Bookings.ListByUser(ctx, userID))
	upcoming, past := repository.SplitByDate(all, s.Now())
	switch scope {
	case "upcoming":
		return upcoming, nil
	case "past":
		return past, nil
	}
	return all, nil
}

// Get returns the booking if userID owns it.
func (s *BookingService) Get(ctx context.Context, userID, id string) (*model.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// Cancel cancels the user's booking, refunding per RefundFor.  Cancelling
// an already cancelled booking succeeds without publishing again.
func (s *BookingService) Cancel(ctx context.Context, userID, id string) (*model.Booking, error) {
	b, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return b, nil
	}
	refund := RefundFor(b.TotalAmount, b.EventDate, s.Now())
	b, err = s.Bookings.CancelWithRefund(ctx, id, refund)
	if err != nil {
		return nil, err
	}
	s.publishCancelled(ctx, b, q.ReasonCustomer)
	return b, nil
}

func (s *BookingService) publishConfirmed(ctx context.Context, b *model.Booking) {
	ev := q.BookingConfirmedEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		EventID:          b.EventID,
		EventTitle:       b.EventTitle,
		EventDate:        b.EventDate.Format(time.RFC3339),
		Location:         b.Location,
		Tickets:          b.TicketQuantity,
		TotalAmount:      b.TotalAmount,
		PaymentMethod:    b.PaymentMethod,
		ConfirmationCode: b.ConfirmationCode,
		ConfirmedAt:      b.BookingDate.Format(time.RFC3339),
	}
	if err := s.Publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		logger.Warnf("publish booking.confirmed %s: %v", b.ID, err)
	}
}

func (s *BookingService) publishCancelled(ctx context.Context, b *model.Booking, reason string) {
	ev := q.BookingCancelledEvent{
		BookingID:        b.ID,
		UserID:           b.UserID,
		EventID:          b.EventID,
		ConfirmationCode: b.ConfirmationCode,
		RefundAmount:     b.Refunded(),
		Reason:           reason,
		CancelledAt:      s.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Publisher.PublishBookingCancelled(ctx, ev); err != nil {
		logger.Warnf("publish booking.cancelled %s: %v", b.ID, err)
	}
}
