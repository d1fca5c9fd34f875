package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/iliyamo/discover-nairobi/internal/model"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

const (
	bookingsCollection = "bookings"
	codesCollection    = "confirmation_codes"
)

const (
	confirmationPrefix  = "DN-"
	confirmationCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	confirmationLength  = 6
)

// BookingRepo stores bookings keyed by id plus a confirmation code index
// used for venue check-in and collision detection.
type BookingRepo struct {
	store store.Store
}

// NewBookingRepo returns a BookingRepo bound to the provided store.
func NewBookingRepo(s store.Store) *BookingRepo { return &BookingRepo{store: s} }

type codeEntry struct {
	BookingID string `json:"bookingId"`
}

// GenerateConfirmationCode returns "DN-" followed by six characters drawn
// uniformly from [A-Z0-9].  The source is not cryptographic; uniqueness is
// enforced by Save, not here.
func GenerateConfirmationCode() string {
	var b strings.Builder
	b.Grow(len(confirmationPrefix) + confirmationLength)
	b.WriteString(confirmationPrefix)
	for i := 0; i < confirmationLength; i++ {
		b.WriteByte(confirmationCharset[rand.Intn(len(confirmationCharset))])
	}
	return b.String()
}

// NewBookingID derives a booking id from the creation time.
func NewBookingID(at time.Time) string {
	return fmt.Sprintf("BK%d", at.UnixMilli())
}

// List returns every stored booking ordered by booking date then id.
func (r *BookingRepo) List(ctx context.Context) ([]model.Booking, error) {
	bookings, err := store.LoadAll[model.Booking](ctx, r.store, bookingsCollection)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].BookingDate.Equal(bookings[j].BookingDate) {
			return bookings[i].BookingDate.Before(bookings[j].BookingDate)
		}
		return bookings[i].ID < bookings[j].ID
	})
	return bookings, nil
}

// Save reserves the booking's confirmation code and inserts the booking.
// A taken code or booking id yields an error wrapping ErrConflict so the
// caller can regenerate and retry.
func (r *BookingRepo) Save(ctx context.Context, b *model.Booking) error {
	err := store.Create(ctx, r.store, codesCollection, b.ConfirmationCode, codeEntry{BookingID: b.ID})
	if errors.Is(err, store.ErrExists) {
		return fmt.Errorf("confirmation code %s: %w", b.ConfirmationCode, ErrConflict)
	}
	if err != nil {
		return err
	}
	err = store.Create(ctx, r.store, bookingsCollection, b.ID, b)
	if err == nil {
		return nil
	}
	// release the code so a retry can claim it again
	_ = r.store.Delete(ctx, codesCollection, b.ConfirmationCode)
	if errors.Is(err, store.ErrExists) {
		return fmt.Errorf("booking id %s: %w", b.ID, ErrConflict)
	}
	return err
}

// GetByID returns the booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, err := store.LoadOne[model.Booking](ctx, r.store, bookingsCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByConfirmationCode resolves a code through the index.
func (r *BookingRepo) GetByConfirmationCode(ctx context.Context, code string) (*model.Booking, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	entry, err := store.LoadOne[codeEntry](ctx, r.store, codesCollection, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, entry.BookingID)
}

// Cancel marks a booking cancelled with a full refund.  Cancelling twice
// is a no-op and no other booking is touched.
func (r *BookingRepo) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return r.cancel(ctx, id, nil)
}

// CancelWithRefund is Cancel recording a partial refund.
func (r *BookingRepo) CancelWithRefund(ctx context.Context, id string, refund float64) (*model.Booking, error) {
	return r.cancel(ctx, id, &refund)
}

func (r *BookingRepo) cancel(ctx context.Context, id string, refund *float64) (*model.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsCancelled() {
		return b, nil
	}
	b.Status = model.BookingCancelled
	b.RefundAmount = refund
	if err := store.Put(ctx, r.store, bookingsCollection, b.ID, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MarkCheckedIn records the venue check-in time.  A booking already
// checked in keeps its original time.
func (r *BookingRepo) MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.CheckedInAt != nil {
		return b, nil
	}
	at = at.UTC()
	b.CheckedInAt = &at
	if err := store.Put(ctx, r.store, bookingsCollection, b.ID, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the bookings owned by userID.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	return r.filter(ctx, func(b *model.Booking) bool { return b.UserID == userID })
}

// ListByEvent returns every booking whose eventId equals eventID.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Booking, error) {
	return r.filter(ctx, func(b *model.Booking) bool { return b.EventID == eventID })
}

func (r *BookingRepo) filter(ctx context.Context, keep func(*model.Booking) bool) ([]model.Booking, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(all))
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// SplitByDate partitions bookings into upcoming (event at or after now)
// and past, preserving order.
func SplitByDate(bookings []model.Booking, now time.Time) (upcoming, past []model.Booking) {
	upcoming = []model.Booking{}
	past = []model.Booking{}
	for _, b := range bookings {
		if b.IsUpcoming(now) {
			upcoming = append(upcoming, b)
		} else {
			past = append(past, b)
		}
	}
	return upcoming, past
}
