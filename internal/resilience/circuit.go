// Package resilience guards upstream providers with circuit breakers so a
// failing provider is skipped by its waterfall instead of being hit on every
// candidate.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is the state of a provider breaker.
type State int

const (
	// Closed lets calls through.
	Closed State = iota
	// Open rejects calls until the cool-down has elapsed.
	Open
	// HalfOpen lets a single probe through.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is rejected by an open breaker.
var ErrOpen = eris.New("resilience: circuit open")

// BreakerConfig controls breaker behavior.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive faults that opens the breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// IsFault overrides CountsAsFault.
	IsFault func(err error) bool
	// OnStateChange is called on every transition.
	OnStateChange func(from, to State)
}

// DefaultBreakerConfig returns the defaults used when config leaves values unset.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	}
}

// FromConfig converts config values to a BreakerConfig. Non-positive values
// keep the defaults.
func FromConfig(failureThreshold, resetTimeoutSecs int) BreakerConfig {
	cfg := DefaultBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.Cooldown = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// Breaker is a circuit breaker for one provider.
type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    State
	faults   int
	openedAt time.Time

	now func() time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.IsFault == nil {
		cfg.IsFault = CountsAsFault
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// Call is Do for functions that return a value.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}
	v, err := fn(ctx)
	b.record(err)
	return v, err
}

// State returns the current state, reporting HalfOpen once the cool-down has
// elapsed on an open breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

// Faults returns the consecutive fault count.
func (b *Breaker) Faults() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.faults
}

// Reset closes the breaker.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = 0
	b.setState(Closed)
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
		return ErrOpen
	}
	b.setState(HalfOpen)
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.cfg.IsFault(err) {
		b.faults = 0
		b.setState(Closed)
		return
	}

	b.faults++
	if b.state == HalfOpen || b.faults >= b.cfg.FailureThreshold {
		b.openedAt = b.now()
		b.setState(Open)
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}

// Registry hands out one breaker per provider name.
type Registry struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty registry. Transitions are logged per provider
// unless cfg.OnStateChange is set.
func NewRegistry(cfg BreakerConfig) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// For returns the breaker for provider, creating it on first use.
func (r *Registry) For(provider string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[provider]; ok {
		return b
	}
	cfg := r.cfg
	if cfg.OnStateChange == nil {
		cfg.OnStateChange = func(from, to State) {
			zap.L().Warn("resilience: breaker state change",
				zap.String("provider", provider),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		}
	}
	b := NewBreaker(cfg)
	r.breakers[provider] = b
	return b
}

// Snapshot returns the state of every breaker created so far.
func (r *Registry) Snapshot() map[string]string {
	r.mu.Lock()
	names := make([]string, 0, len(r.breakers))
	list := make([]*Breaker, 0, len(r.breakers))
	for name, b := range r.breakers {
		names = append(names, name)
		list = append(list, b)
	}
	r.mu.Unlock()

	out := make(map[string]string, len(names))
	for i, name := range names {
		out[name] = list[i].State().String()
	}
	return out
}
