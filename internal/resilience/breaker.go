// Package resilience guards calls to remote dataset hosts with bounded
// retries and per-host circuit breakers.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is the position of a host breaker.
type State int

const (
	// Closed lets calls through.
	Closed State = iota
	// Open rejects calls until the cooldown passes.
	Open
	// HalfOpen lets one probe call through.
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
	}
	return "unknown"
}

// ErrOpen is returned for calls to a host whose breaker is open.
var ErrOpen = eris.New("resilience: host circuit open")

// BreakerConfig configures every breaker in a Hosts registry.
type BreakerConfig struct {
	// Failures is how many transient failures in a row open the breaker.
	Failures int
	// Cooldown is how long an open breaker rejects calls.
	Cooldown time.Duration
}

// DefaultBreakerConfig opens after 3 failures and probes again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Failures: 3, Cooldown: time.Minute}
}

// Breaker tracks the health of one remote host. Only transient errors count
// against it.
type Breaker struct {
	host string
	cfg  BreakerConfig

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool

	now func() time.Time
}

func newBreaker(host string, cfg BreakerConfig) *Breaker {
	if cfg.Failures <= 0 {
		cfg.Failures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	return &Breaker{host: host, cfg: cfg, now: time.Now}
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the current state, reporting HalfOpen once an open
// breaker's cooldown has passed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.Cooldown {
			return eris.Wrapf(ErrOpen, "host %s", b.host)
		}
		b.setState(HalfOpen)
		b.probing = true
		return nil
	case HalfOpen:
		if b.probing {
			return eris.Wrapf(ErrOpen, "host %s (probe in flight)", b.host)
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil || !IsTransient(err) {
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.Failures {
		b.openedAt = b.now()
		if b.state != Open {
			b.setState(Open)
		}
	}
}

func (b *Breaker) setState(to State) {
	zap.L().Info("host circuit state change",
		zap.String("host", b.host),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}

// Hosts holds one breaker per remote host.
type Hosts struct {
	cfg BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewHosts creates an empty registry.
func NewHosts(cfg BreakerConfig) *Hosts {
	return &Hosts{cfg: cfg, breakers: make(map[string]*Breaker)}
}

// For returns the breaker for host, creating it on first use.
func (h *Hosts) For(host string) *Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.breakers[host]
	if !ok {
		b = newBreaker(host, h.cfg)
		h.breakers[host] = b
	}
	return b
}

// States snapshots every known host's breaker state.
func (h *Hosts) States() map[string]State {
	h.mu.Lock()
	breakers := make([]*Breaker, 0, len(h.breakers))
	for _, b := range h.breakers {
		breakers = append(breakers, b)
	}
	h.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, b := range breakers {
		out[b.host] = b.State()
	}
	return out
}
