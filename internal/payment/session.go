// Package payment runs the M-PESA checkout flow: phone entry, STK push,
// PIN entry, confirmation and the final outcome.  Each Session is a small
// state machine driven by API calls and scheduled timers; the outcome of
// a confirmation comes from a Resolver.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// Step is the current screen of a checkout session.
type Step string

const (
	StepPhone      Step = "phone"
	StepProcessing Step = "processing"
	StepPIN        Step = "pin"
	StepSuccess    Step = "success"
	StepFailed     Step = "failed"
)

// Status messages shown while a request is in flight.
const (
	MsgAwaitingSTK = "Check your phone for STK push..."
	MsgConfirming  = "Confirming transaction..."
)

var (
	ErrWrongStep     = errors.New("operation not allowed in current step")
	ErrPhoneTooShort = errors.New("phone number must have at least 10 digits")
	ErrPhoneTooLong  = errors.New("phone number must have at most 12 digits")
)

var logger = log.New("payment")

// Completion is invoked once after a successful payment.  It returns the
// id of whatever it created, typically a booking.
type Completion func(ctx context.Context) (string, error)

// Config describes the payment a session collects.
type Config struct {
	Owner     string
	Amount    float64
	Reference string
	OnSuccess Completion
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        string    `json:"id"`
	Step      Step      `json:"step"`
	Phone     string    `json:"phone"`
	PINLength int       `json:"pinLength"`
	Amount    float64   `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	Message   string    `json:"message,omitempty"`
	BookingID string    `json:"bookingId,omitempty"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is one checkout attempt.  All methods are safe for concurrent
// use; scheduled callbacks belonging to an earlier generation are dropped.
type Session struct {
	mu sync.Mutex

	id       string
	cfg      Config
	timings  Timings
	sched    Scheduler
	resolver Resolver

	step      Step
	phone     string
	pin       string
	pinLocked bool
	gen       uint64
	timers    []Timer
	cancel    func()

	completed bool
	resultID  string
	err       string
	updatedAt time.Time
}

func newSession(id string, cfg Config, t Timings, sched Scheduler, r Resolver) *Session {
	return &Session{
		id:        id,
		cfg:       cfg,
		timings:   t,
		sched:     sched,
		resolver:  r,
		step:      StepPhone,
		updatedAt: time.Now().UTC(),
	}
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.cfg.Owner }

// SetPhone normalizes raw and stores it.  A result longer than
// MaxPhoneDigits is rejected and the previous number is kept.
func (s *Session) SetPhone(raw string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPhone {
		return s.snapshotLocked(), ErrWrongStep
	}
	n := NormalizePhone(raw)
	if len(n) > MaxPhoneDigits {
		return s.snapshotLocked(), ErrPhoneTooLong
	}
	s.phone = n
	s.touch()
	return s.snapshotLocked(), nil
}

// SubmitPhone sends the STK push and moves to processing.  The PIN step
// follows after the STK delay.
func (s *Session) SubmitPhone() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPhone {
		return s.snapshotLocked(), ErrWrongStep
	}
	if len(s.phone) < MinPhoneDigits {
		return s.snapshotLocked(), ErrPhoneTooShort
	}
	s.step = StepProcessing
	s.err = ""
	s.touch()
	s.after(s.timings.STKDelay, func() {
		s.step = StepPIN
	})
	return s.snapshotLocked(), nil
}

// EnterPIN replaces the PIN with value.  Values that are not all digits or
// are longer than PINLength are ignored.
func (s *Session) EnterPIN(value string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPIN {
		return s.snapshotLocked(), ErrWrongStep
	}
	if s.pinLocked || len(value) > PINLength || !isDigits(value) {
		return s.snapshotLocked(), nil
	}
	s.setPINLocked(value)
	return s.snapshotLocked(), nil
}

// PressKey applies one keypad key: a digit, KeyBackspace or KeyDot.
// Anything else, and any key once four digits are in, is a no-op.
func (s *Session) PressKey(key string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepPIN {
		return s.snapshotLocked(), ErrWrongStep
	}
	if s.pinLocked {
		return s.snapshotLocked(), nil
	}
	switch {
	case key == KeyBackspace:
		if len(s.pin) > 0 {
			s.setPINLocked(s.pin[:len(s.pin)-1])
		}
	case len(key) == 1 && isDigits(key) && len(s.pin) < PINLength:
		s.setPINLocked(s.pin + key)
	}
	return s.snapshotLocked(), nil
}

// Retry returns a failed session to the phone step with the PIN cleared.
func (s *Session) Retry() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != StepFailed {
		return s.snapshotLocked(), ErrWrongStep
	}
	s.invalidate()
	s.step = StepPhone
	s.pin = ""
	s.err = ""
	return s.snapshotLocked(), nil
}

// Reset clears phone, PIN and step and drops every pending timer and
// gateway request.  A completed session is left as is.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed {
		return s.snapshotLocked()
	}
	if s.step == StepProcessing || s.step == StepPIN || s.step == StepSuccess {
		logger.Warnf("session %s abandoned in step %s", s.id, s.step)
	}
	s.invalidate()
	s.step = StepPhone
	s.phone = ""
	s.pin = ""
	s.err = ""
	return s.snapshotLocked()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) setPINLocked(pin string) {
	s.pin = pin
	s.touch()
	if len(pin) < PINLength {
		return
	}
	s.pinLocked = true
	s.after(s.timings.PINSettle, s.confirmLocked)
}

// confirmLocked moves to processing and hands the request to the resolver.
func (s *Session) confirmLocked() {
	s.step = StepProcessing
	gen := s.gen
	req := Request{SessionID: s.id, Phone: s.phone, Amount: s.cfg.Amount, Reference: s.cfg.Reference}
	s.cancel = s.resolver.Resolve(req, s.sched, func(ok bool) { s.resolve(gen, ok) })
}

func (s *Session) resolve(gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.step != StepProcessing {
		return
	}
	s.cancel = nil
	s.touch()
	if !ok {
		logger.Infof("session %s payment declined", s.id)
		s.step = StepFailed
		s.pinLocked = false
		return
	}
	s.step = StepSuccess
	t := s.sched.AfterFunc(s.timings.CompletionDelay, func() { s.complete(gen) })
	s.timers = append(s.timers, t)
}

// complete runs the completion callback exactly once, outside the lock.
func (s *Session) complete(gen uint64) {
	s.mu.Lock()
	if s.gen != gen || s.completed {
		s.mu.Unlock()
		return
	}
	s.completed = true
	s.timers = nil
	fn := s.cfg.OnSuccess
	s.mu.Unlock()
	if fn == nil {
		return
	}

	id, err := fn(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err != nil {
		logger.Errorf("session %s completion failed: %v", s.id, err)
		s.err = err.Error()
		return
	}
	s.resultID = id
}

// after schedules fn under the session lock for the current generation.
func (s *Session) after(d time.Duration, fn func()) {
	gen := s.gen
	t := s.sched.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen != gen {
			return
		}
		fn()
		s.touch()
	})
	s.timers = append(s.timers, t)
}

func (s *Session) invalidate() {
	s.gen++
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.pinLocked = false
	s.touch()
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Step:      s.step,
		Phone:     s.phone,
		PINLength: len(s.pin),
		Amount:    s.cfg.Amount,
		Reference: s.cfg.Reference,
		BookingID: s.resultID,
		Completed: s.completed,
		Error:     s.err,
		UpdatedAt: s.updatedAt,
	}
	if s.step == StepProcessing {
		if s.pin == "" {
			snap.Message = MsgAwaitingSTK
		} else {
			snap.Message = MsgConfirming
		}
	}
	return snap
}
