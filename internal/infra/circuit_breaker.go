package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Breaker guards calls to an optional dependency such as the Redis event
// queue. After MaxFailures consecutive errors it opens and rejects calls with
// ErrBreakerOpen. Once Cooldown has passed, calls are let through again as
// probes: ProbeSuccesses good ones close it, a single failure reopens it.
// Every transition is logged with the dependency name.

type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name used in health output and logs.
func (s BreakerState) String() string {
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

// ErrBreakerOpen is returned by Do while the breaker rejects calls.
var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Name           string        // dependency name, logged on every transition
	MaxFailures    int           // consecutive failures that open the breaker
	ProbeSuccesses int           // half-open successes needed to close it
	Cooldown       time.Duration // time spent open before probing
}

// EventsBreakerConfig is the policy for the catalog event publisher.
func EventsBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:           "redis-events",
		MaxFailures:    5,
		ProbeSuccesses: 2,
		Cooldown:       30 * time.Second,
	}
}

type Breaker struct {
	cfg BreakerConfig

	mu       sync.Mutex
	state    BreakerState
	failures int
	probes   int
	openedAt time.Time
	trips    int
	now      func() time.Time
}

// NewBreaker fills zero fields of cfg from EventsBreakerConfig.
func NewBreaker(cfg BreakerConfig) *Breaker {
	def := EventsBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ProbeSuccesses <= 0 {
		cfg.ProbeSuccesses = def.ProbeSuccesses
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	return &Breaker{cfg: cfg, state: StateClosed, now: time.Now}
}

func (b *Breaker) Name() string { return b.cfg.Name }

// State reports the current state; an open breaker whose cooldown elapsed
// reports half-open.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshLocked()
}

// Trips counts how many times the breaker has opened.
func (b *Breaker) Trips() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}

// Do runs fn unless the breaker is open and feeds the result back.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	state := b.refreshLocked()
	b.mu.Unlock()
	if state == StateOpen {
		return ErrBreakerOpen
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordLocked(err)
	return err
}

func (b *Breaker) refreshLocked() BreakerState {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		b.moveLocked(StateHalfOpen, nil)
	}
	return b.state
}

func (b *Breaker) recordLocked(err error) {
	if err == nil {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.probes++
			if b.probes >= b.cfg.ProbeSuccesses {
				b.moveLocked(StateClosed, nil)
			}
		}
		return
	}

	b.failures++
	switch {
	case b.state == StateHalfOpen:
		b.moveLocked(StateOpen, err)
	case b.state == StateClosed && b.failures >= b.cfg.MaxFailures:
		b.moveLocked(StateOpen, err)
	}
}

func (b *Breaker) moveLocked(to BreakerState, cause error) {
	from := b.state
	b.state = to
	b.failures = 0
	b.probes = 0

	ev := log.Info()
	if to == StateOpen {
		b.openedAt = b.now()
		b.trips++
		ev = log.Warn().Err(cause).Dur("cooldown", b.cfg.Cooldown)
	}
	ev.Str("dependency", b.cfg.Name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("circuit breaker state changed")
}
