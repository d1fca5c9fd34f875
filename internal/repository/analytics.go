package repository

import (
	"context"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
)

// AnalyticsRepo folds bookings into organizer-facing metrics.  It reads
// through BookingRepo so hydration and storage keys stay in one place.
type AnalyticsRepo struct {
	bookings *BookingRepo
}

func NewAnalyticsRepo(bookings *BookingRepo) *AnalyticsRepo {
	return &AnalyticsRepo{bookings: bookings}
}

// EventAnalytics totals the confirmed bookings of eventID.  Cancelled
// bookings only contribute to CancelledCount and RefundedAmount.
func (r *AnalyticsRepo) EventAnalytics(ctx context.Context, eventID string) (model.EventAnalytics, error) {
	bookings, err := r.bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return model.EventAnalytics{EventID: eventID}, err
	}
	return Summarize(eventID, bookings), nil
}

// Summarize computes analytics over an already loaded booking slice.
func Summarize(eventID string, bookings []model.Booking) model.EventAnalytics {
	a := model.EventAnalytics{EventID: eventID}
	for _, b := range bookings {
		if b.EventID != eventID {
			continue
		}
		if b.IsCancelled() {
			a.CancelledCount++
			a.RefundedAmount += b.Refunded()
			continue
		}
		a.TotalTicketsSold += b.TicketQuantity
		a.TotalRevenue += b.TotalAmount
		a.BookingCount++
	}
	return a
}

// Dashboard groups an organizer's events and totals their analytics.
// Upcoming holds published events dated now or later, Past every event
// before now, Drafts every draft regardless of date.
func (r *AnalyticsRepo) Dashboard(ctx context.Context, org model.Organizer, events []model.OrganizerEvent, now time.Time) (model.Dashboard, error) {
	d := model.Dashboard{
		Organizer:   org,
		Upcoming:    []model.OrganizerEvent{},
		Past:        []model.OrganizerEvent{},
		Drafts:      []model.OrganizerEvent{},
		TotalEvents: len(events),
	}
	all, err := r.bookings.List(ctx)
	if err != nil {
		return d, err
	}
	byEvent := make(map[string][]model.Booking)
	for _, b := range all {
		byEvent[b.EventID] = append(byEvent[b.EventID], b)
	}
	for _, e := range events {
		if e.Date.Before(now) {
			d.Past = append(d.Past, e)
		} else if e.Status == model.EventPublished {
			d.Upcoming = append(d.Upcoming, e)
		}
		if e.Status == model.EventDraft {
			d.Drafts = append(d.Drafts, e)
		}
		a := Summarize(e.ID, byEvent[e.ID])
		d.TotalTicketsSold += a.TotalTicketsSold
		d.TotalRevenue += a.TotalRevenue
	}
	return d, nil
}
