package service

import "time"

// Refund windows measured from cancellation to event start.
const (
	FullRefundWindow = 7 * 24 * time.Hour
	HalfRefundWindow = 48 * time.Hour
)

// RefundFor applies the customer cancellation policy: a full refund a week
// or more ahead, half from 48 hours ahead, nothing after that.
func RefundFor(total float64, eventAt, now time.Time) float64 {
	until := eventAt.Sub(now)
	switch {
	case until >= FullRefundWindow:
		return total
	case until >= HalfRefundWindow:
		return total / 2
	}
	return 0
}
