package model

import "time"

// Booking statuses.  A booking starts confirmed and can only move to
// cancelled.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Payment methods recorded on a booking.
const (
	PaymentFree  = "Free Event"
	PaymentMpesa = "M-PESA"
)

// Ticket quantity bounds accepted at checkout.
const (
	MinTickets = 1
	MaxTickets = 10
)

// Booking is a user's claim on tickets for an event.  The event fields are
// a snapshot taken at booking time and are never re-fetched.
//
// Fields:
//  ID               – "BK" + creation unix millis.
//  UserID           – account that owns the booking.
//  EventID          – catalog or organizer event id (string form).
//  TicketQuantity   – 1..10.
//  TotalAmount      – KSh; 0 for free events.
//  ConfirmationCode – DN-XXXXXX, unique across stored bookings.
//  PaymentMethod    – PaymentFree or PaymentMpesa.
//  Status           – BookingConfirmed or BookingCancelled.
//  RefundAmount     – set on cancellation; nil on a cancelled booking
//                     means the full total was refunded.
type Booking struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId,omitempty"`
	EventID          string     `json:"eventId"`
	EventTitle       string     `json:"eventTitle"`
	EventDate        time.Time  `json:"eventDate"`
	EventTime        string     `json:"eventTime"`
	Location         string     `json:"location"`
	Neighborhood     string     `json:"neighborhood"`
	ImageURL         string     `json:"imageUrl"`
	TicketQuantity   int        `json:"ticketQuantity"`
	TotalAmount      float64    `json:"totalAmount"`
	ConfirmationCode string     `json:"confirmationCode"`
	PaymentMethod    string     `json:"paymentMethod"`
	BookingDate      time.Time  `json:"bookingDate"`
	Status           string     `json:"status"`
	RefundAmount     *float64   `json:"refundAmount,omitempty"`
	CheckedInAt      *time.Time `json:"checkedInAt,omitempty"`
}

// IsCancelled reports whether the booking has been cancelled.
func (b *Booking) IsCancelled() bool { return b.Status == BookingCancelled }

// IsUpcoming reports whether the booked event is at or after now.
func (b *Booking) IsUpcoming(now time.Time) bool { return !b.EventDate.Before(now) }

// Refunded returns the amount refunded for a cancelled booking.
func (b *Booking) Refunded() float64 {
	if !b.IsCancelled() {
		return 0
	}
	if b.RefundAmount != nil {
		return *b.RefundAmount
	}
	return b.TotalAmount
}
