package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/discover-nairobi/internal/model"
	q "github.com/iliyamo/discover-nairobi/internal/queue"
	"github.com/iliyamo/discover-nairobi/internal/repository"
)

func validInput() EventInput {
	return EventInput{
		Title:    "Nairobi Book Fair",
		Category: "Art Exhibitions",
		Date:     "2025-11-15",
		Time:     "10:00",
		Location: "Sarit Centre",
		Price:    500,
		Tags:     TagList{" books ", "fair", "", "books"},
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	e, err := f.org.Create(ctx, "u1", "org@example.com", validInput())
	require.NoError(t, err)
	assert.Regexp(t, `^EVT\d+$`, e.ID)
	assert.Equal(t, model.EventPublished, e.Status)
	assert.Equal(t, model.DefaultCapacity, e.Capacity)
	assert.Equal(t, model.DefaultEventImage, e.ImageURL)
	assert.Equal(t, []string{"books", "fair"}, e.Tags)
	assert.Equal(t, repository.DefaultOrganizerName, e.OrganizerName)
	assert.Equal(t, "2025-11-15", e.Date.Format("2006-01-02"))

	me, err := f.org.Me(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, me.ID, e.OrganizerID)
	assert.Equal(t, "org@example.com", me.Email)
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(nil)
	in := validInput()
	in.Title = "  "
	in.Location = ""
	in.Date = "15/11/2025"
	in.Price = -1
	in.Status = "archived"

	_, err := f.org.Create(context.Background(), "u1", "", in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"title is required",
		"location is required",
		"date must be YYYY-MM-DD",
		"price must not be negative",
		"unknown status archived",
	}, verr.Problems)
}

func TestCreateSameMillisecondGetsDistinctIDs(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	a, err := f.org.Create(ctx, "u1", "", validInput())
	require.NoError(t, err)
	b, err := f.org.Create(ctx, "u1", "", validInput())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := f.org.List(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTagListAcceptsStringOrArray(t *testing.T) {
	var in EventInput
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"jazz, live ,jazz"}`), &in))
	assert.Equal(t, []string{"jazz", "live"}, NormalizeTags(in.Tags))
	require.NoError(t, json.Unmarshal([]byte(`{"tags":["a","b"]}`), &in))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags(in.Tags))
}

func TestEventsAreScopedToOwner(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	e, err := f.org.Create(ctx, "owner", "", validInput())
	require.NoError(t, err)

	_, err = f.org.Get(ctx, "other", "", e.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	title := "Hijacked"
	_, err = f.org.Update(ctx, "other", "", e.ID, EventUpdate{Title: &title})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.ErrorIs(t, f.org.Delete(ctx, "other", "", e.ID), repository.ErrForbidden)
	_, err = f.org.EventAnalytics(ctx, "other", "", e.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	require.NoError(t, f.org.Delete(ctx, "owner", "", e.ID))
	_, err = f.org.Get(ctx, "owner", "", e.ID)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}

func TestUpdateMergesFields(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	e, err := f.org.Create(ctx, "u1", "", validInput())
	require.NoError(t, err)

	price := 750.0
	date := "2025-12-01"
	got, err := f.org.Update(ctx, "u1", "", e.ID, EventUpdate{Price: &price, Date: &date, Tags: TagList{"new"}})
	require.NoError(t, err)
	assert.Equal(t, 750.0, got.Price)
	assert.Equal(t, "2025-12-01", got.Date.Format("2006-01-02"))
	assert.Equal(t, []string{"new"}, got.Tags)
	assert.Equal(t, e.Title, got.Title)

	empty := " "
	_, err = f.org.Update(ctx, "u1", "", e.ID, EventUpdate{Title: &empty})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCancellingEventCancelsBookings(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	e, err := f.org.Create(ctx, "org", "", validInput())
	require.NoError(t, err)

	for i, code := range []string{"DN-AAAAAA", "DN-BBBBBB"} {
		require.NoError(t, f.bookings.Save(ctx, &model.Booking{
			ID: repository.NewBookingID(testNow.Add(time.Duration(i) * time.Millisecond)), UserID: "cust",
			EventID: e.ID, EventDate: testNow.Add(time.Hour), TicketQuantity: 1, TotalAmount: 500,
			ConfirmationCode: code, PaymentMethod: model.PaymentMpesa, BookingDate: testNow,
			Status: model.BookingConfirmed,
		}))
	}
	f.pub.On("PublishBookingCancelled", mock.Anything, mock.MatchedBy(func(ev q.BookingCancelledEvent) bool {
		return ev.Reason == q.ReasonEventCancelled && ev.RefundAmount == 500
	})).Return(nil).Twice()

	status := model.EventCancelled
	_, err = f.org.Update(ctx, "org", "", e.ID, EventUpdate{Status: &status})
	require.NoError(t, err)

	bookings, err := f.bookings.ListByEvent(ctx, e.ID)
	require.NoError(t, err)
	for _, b := range bookings {
		assert.Equal(t, model.BookingCancelled, b.Status)
	}
	a, err := f.org.EventAnalytics(ctx, "org", "", e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, a.CancelledCount)
	assert.Equal(t, 1000.0, a.RefundedAmount)

	// a second cancel does not publish again
	_, err = f.org.Update(ctx, "org", "", e.ID, EventUpdate{Status: &status})
	require.NoError(t, err)
	f.pub.AssertExpectations(t)
}

func TestCheckIn(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	e, err := f.org.Create(ctx, "org", "", validInput())
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(ctx, &model.Booking{
		ID: "BK1", UserID: "cust", EventID: e.ID, EventDate: testNow, TicketQuantity: 2,
		ConfirmationCode: "DN-CHECK1", PaymentMethod: model.PaymentFree, BookingDate: testNow,
		Status: model.BookingConfirmed,
	}))
	require.NoError(t, f.bookings.Save(ctx, &model.Booking{
		ID: "BK2", UserID: "cust", EventID: "1", EventDate: testNow, TicketQuantity: 1,
		ConfirmationCode: "DN-OTHER1", PaymentMethod: model.PaymentFree, BookingDate: testNow,
		Status: model.BookingConfirmed,
	}))

	res, err := f.org.CheckIn(ctx, "org", "", "dn-check1")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.Booking.CheckedInAt)

	res, err = f.org.CheckIn(ctx, "org", "", "DN-CHECK1")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "already checked in", res.Reason)

	_, err = f.org.CheckIn(ctx, "org", "", "DN-OTHER1")
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = f.org.CheckIn(ctx, "org", "", "DN-NOPE00")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
}

func TestDashboardTotals(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	e, err := f.org.Create(ctx, "org", "", validInput())
	require.NoError(t, err)
	draft := validInput()
	draft.Status = model.EventDraft
	_, err = f.org.Create(ctx, "org", "", draft)
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(ctx, &model.Booking{
		ID: "BK1", UserID: "cust", EventID: e.ID, EventDate: testNow, TicketQuantity: 3, TotalAmount: 1500,
		ConfirmationCode: "DN-DASH01", PaymentMethod: model.PaymentMpesa, BookingDate: testNow,
		Status: model.BookingConfirmed,
	}))

	d, err := f.org.Dashboard(ctx, "org", "")
	require.NoError(t, err)
	assert.Equal(t, 2, d.TotalEvents)
	assert.Equal(t, 3, d.TotalTicketsSold)
	assert.Equal(t, 1500.0, d.TotalRevenue)
	assert.Len(t, d.Upcoming, 1)
	assert.Len(t, d.Drafts, 1)
	assert.Empty(t, d.Past)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	name := "Karura Events"
	o, err := f.org.UpdateMe(ctx, "u1", "", OrganizerUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Karura Events", o.Name)

	again, err := f.org.Me(ctx, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, o.ID, again.ID)
	assert.Equal(t, "Karura Events", again.Name)

	blank := ""
	_, err = f.org.UpdateMe(ctx, "u1", "", OrganizerUpdate{Name: &blank})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
