package payment

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

// ErrNotPending is returned by CallbackGateway.Complete when no session is
// waiting for an outcome under the given id.
var ErrNotPending = errors.New("no pending payment for id")

// Request describes the payment a resolver is asked to confirm.
type Request struct {
	SessionID string
	Phone     string
	Amount    float64
	Reference string
}

// Resolver decides whether an authorized payment succeeded.  Resolve is
// called with the session locked, so done must be called later from
// another call stack, at most once.  The returned cancel func abandons the
// request.
type Resolver interface {
	Resolve(req Request, sched Scheduler, done func(ok bool)) (cancel func())
}

// SimulatedGateway succeeds with probability 1-FailureRate after Delay.
type SimulatedGateway struct {
	Delay       time.Duration
	FailureRate float64
	// Draw returns a value in [0,1).  Defaults to math/rand/v2.
	Draw func() float64
}

// NewSimulatedGateway returns the default 90% success gateway.
func NewSimulatedGateway(delay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{Delay: delay, FailureRate: 0.1}
}

func (g *SimulatedGateway) Resolve(_ Request, sched Scheduler, done func(bool)) func() {
	draw := g.Draw
	if draw == nil {
		draw = rand.Float64
	}
	t := sched.AfterFunc(g.Delay, func() { done(draw() > g.FailureRate) })
	return func() { t.Stop() }
}

// CallbackGateway waits for an external webhook to report the outcome.
// With a non-zero Timeout a request that hears nothing fails.
type CallbackGateway struct {
	Timeout time.Duration

	mu      sync.Mutex
	pending map[string]func(bool)
}

func NewCallbackGateway(timeout time.Duration) *CallbackGateway {
	return &CallbackGateway{Timeout: timeout, pending: make(map[string]func(bool))}
}

func (g *CallbackGateway) Resolve(req Request, sched Scheduler, done func(bool)) func() {
	g.mu.Lock()
	g.pending[req.SessionID] = done
	g.mu.Unlock()

	var t Timer
	if g.Timeout > 0 {
		t = sched.AfterFunc(g.Timeout, func() {
			if fn := g.take(req.SessionID); fn != nil {
				fn(false)
			}
		})
	}
	return func() {
		g.take(req.SessionID)
		if t != nil {
			t.Stop()
		}
	}
}

// Complete delivers the outcome for sessionID.
func (g *CallbackGateway) Complete(sessionID string, ok bool) error {
	fn := g.take(sessionID)
	if fn == nil {
		return ErrNotPending
	}
	fn(ok)
	return nil
}

// Pending reports whether sessionID is awaiting an outcome.
func (g *CallbackGateway) Pending(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[sessionID]
	return ok
}

func (g *CallbackGateway) take(id string) func(bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn := g.pending[id]
	delete(g.pending, id)
	return fn
}
