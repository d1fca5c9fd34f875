package payment

import "time"

// Timings are the simulated latencies of each step.
type Timings struct {
	STKDelay        time.Duration `envconfig:"STK_DELAY" default:"2s"`
	PINSettle       time.Duration `envconfig:"PIN_SETTLE" default:"500ms"`
	ConfirmDelay    time.Duration `envconfig:"CONFIRM_DELAY" default:"2s"`
	CompletionDelay time.Duration `envconfig:"COMPLETION_DELAY" default:"1500ms"`
}

// DefaultTimings mirrors the checkout flow customers are used to.
func DefaultTimings() Timings {
	return Timings{
		STKDelay:        2 * time.Second,
		PINSettle:       500 * time.Millisecond,
		ConfirmDelay:    2 * time.Second,
		CompletionDelay: 1500 * time.Millisecond,
	}
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d.  Tests swap in a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// WallClock schedules on real timers.
var WallClock Scheduler = wallClock{}
