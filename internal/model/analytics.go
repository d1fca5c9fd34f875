package model

// EventAnalytics summarises bookings for one event.  Cancelled bookings
// are excluded from the first three totals and reported separately.
type EventAnalytics struct {
	EventID          string  `json:"eventId"`
	TotalTicketsSold int     `json:"totalTicketsSold"`
	TotalRevenue     float64 `json:"totalRevenue"`
	BookingCount     int     `json:"bookingCount"`
	CancelledCount   int     `json:"cancelledCount"`
	RefundedAmount   float64 `json:"refundedAmount"`
}

// Dashboard is the organizer overview across all of their events.
type Dashboard struct {
	Organizer        Organizer        `json:"organizer"`
	Upcoming         []OrganizerEvent `json:"upcoming"`
	Past             []OrganizerEvent `json:"past"`
	Drafts           []OrganizerEvent `json:"drafts"`
	TotalEvents      int              `json:"totalEvents"`
	TotalTicketsSold int              `json:"totalTicketsSold"`
	TotalRevenue     float64          `json:"totalRevenue"`
}
