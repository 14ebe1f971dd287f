// Package resilience provides the per-service circuit breakers that protect
// the enrichment stage from repeatedly failing dependencies.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// State is the observable state of a breaker.
type State int

const (
	// StateClosed is the normal operating state — calls flow through.
	StateClosed State = iota
	// StateOpen means the failure threshold was reached — calls fast-fail.
	StateOpen
	// StateHalfOpen means the cool-down elapsed — the next call is a probe.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected because the breaker is open.
var ErrOpen = eris.New("breaker: open")

// Config controls breaker behavior.
type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. Default: 3.
	FailureThreshold int

	// CoolDown is how long the breaker stays open after the last failure
	// before the next call is allowed through as a probe. Default: 60s.
	CoolDown time.Duration
}

// DefaultConfig returns the stock threshold and cool-down.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		CoolDown:         60 * time.Second,
	}
}

// Breaker tracks consecutive failures for one enrichment service. The
// open→closed transition happens only via an elapsed cool-down followed by a
// successful probe; concurrent successes queued while open never reset it.
type Breaker struct {
	cfg Config

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreaker creates a breaker, applying defaults for zero config fields.
func NewBreaker(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 60 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		state:   StateClosed,
		nowFunc: time.Now,
	}
}

// Do runs fn through the breaker. While open it returns ErrOpen without
// invoking fn. Any error from fn (timeouts included) counts as a failure;
// success zeroes the failure counter and closes the breaker, unless it
// settles after the breaker has already opened.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the breaker's current state, accounting for an elapsed
// cool-down.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.coolDownElapsed() {
		return StateHalfOpen
	}
	return b.state
}

// Failures returns the consecutive-failure count for observability.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.coolDownElapsed() {
			b.state = StateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		// A success settling while the breaker is open was admitted before it
		// opened; it must not short-circuit the cool-down. Closing happens
		// only from closed (counter reset) or half-open (successful probe).
		if b.state == StateOpen {
			return
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.nowFunc()
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		// A probe failure reopens immediately regardless of the counter.
		b.state = StateOpen
	}
}

// coolDownElapsed must be called with the mutex held.
func (b *Breaker) coolDownElapsed() bool {
	return b.nowFunc().Sub(b.lastFailure) >= b.cfg.CoolDown
}

// Registry owns one breaker per enrichment service name. It is shared across
// requests and injected into the orchestrator at construction.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewRegistry creates a registry whose breakers all use cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		breakers: make(map[string]*Breaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named service, creating it if needed.
func (r *Registry) Get(service string) *Breaker {
	r.mu.RLock()
	b, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.breakers[service]; ok {
		return b
	}
	b = NewBreaker(r.cfg)
	r.breakers[service] = b
	return b
}

// States returns a snapshot of every known breaker's state.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
