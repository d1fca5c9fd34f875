// Package queue defines the booking messages exchanged over RabbitMQ and
// the consumer that appends them to the booking log.
package queue

import (
	"fmt"
	"strings"
)

// Queue names.  Each message type has its own durable queue.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking is written.  It carries
// enough of the booking snapshot for consumers to log or notify without
// reading the store.
type BookingConfirmedEvent struct {
	BookingID        string  `json:"booking_id"`
	UserID           string  `json:"user_id"`
	EventID          string  `json:"event_id"`
	EventTitle       string  `json:"event_title"`
	EventDate        string  `json:"event_date"`
	Location         string  `json:"location"`
	Tickets          int     `json:"tickets"`
	TotalAmount      float64 `json:"total_amount"`
	PaymentMethod    string  `json:"payment_method"`
	ConfirmationCode string  `json:"confirmation_code"`
	ConfirmedAt      string  `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking moves to cancelled.
// Reason is "customer" or "event_cancelled".
type BookingCancelledEvent struct {
	BookingID        string  `json:"booking_id"`
	UserID           string  `json:"user_id"`
	EventID          string  `json:"event_id"`
	ConfirmationCode string  `json:"confirmation_code"`
	RefundAmount     float64 `json:"refund_amount"`
	Reason           string  `json:"reason"`
	CancelledAt      string  `json:"cancelled_at"`
}

// Cancellation reasons.
const (
	ReasonCustomer       = "customer"
	ReasonEventCancelled = "event_cancelled"
)

// LogLine renders the event as a single booking.log line.
func (e BookingConfirmedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | user_id=%s | event_id=%s | event=%q | date=%s | location=%q | tickets=%d | total=KSh %.2f | payment=%q | code=%s\n",
		e.ConfirmedAt, e.BookingID, e.UserID, e.EventID, e.EventTitle, e.EventDate, e.Location,
		e.Tickets, e.TotalAmount, e.PaymentMethod, e.ConfirmationCode)
}

// LogLine renders the event as a single booking.log line.
func (e BookingCancelledEvent) LogLine() string {
	reason := e.Reason
	if reason == "" {
		reason = ReasonCustomer
	}
	return fmt.Sprintf("[%s] Booking cancelled | booking_id=%s | user_id=%s | event_id=%s | code=%s | refund=KSh %.2f | reason=%s\n",
		e.CancelledAt, e.BookingID, e.UserID, e.EventID, e.ConfirmationCode, e.RefundAmount, strings.ToLower(reason))
}
