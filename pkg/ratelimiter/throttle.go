package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	DefaultMaxAttempts      = 5
	DefaultBlockDuration    = 15 * time.Minute
	DefaultAttemptResetTime = 30 * time.Minute
)

type State int

const (
	StateClear State = iota
	StateAccumulating
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateBlocked:
		return "blocked"
	default:
		return "clear"
	}
}

type Config struct {
	MaxAttempts      int
	BlockDuration    time.Duration
	AttemptResetTime time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:      DefaultMaxAttempts,
		BlockDuration:    DefaultBlockDuration,
		AttemptResetTime: DefaultAttemptResetTime,
	}
}

// Status is the throttle decision for one identity after a Check or a
// RecordFailure.
type Status struct {
	State             State
	Attempts          int
	RemainingAttempts int
	RetryAfter        time.Duration
}

// LoginThrottle counts failed logins per identity and locks the identity
// out for BlockDuration once MaxAttempts is reached.
type LoginThrottle struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func NewLoginThrottle(store Store, cfg Config) *LoginThrottle {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BlockDuration <= 0 {
		cfg.BlockDuration = DefaultBlockDuration
	}
	if cfg.AttemptResetTime <= 0 {
		cfg.AttemptResetTime = DefaultAttemptResetTime
	}
	return &LoginThrottle{store: store, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source, for the store's record expiry too
// when the store keeps its own.
func (t *LoginThrottle) WithClock(now func() time.Time) *LoginThrottle {
	t.now = now
	if cs, ok := t.store.(clockedStore); ok {
		cs.setClock(now)
	}
	return t
}

// Check fails with a *RateLimitError while the identity is blocked.
func (t *LoginThrottle) Check(ctx context.Context, identity string) (Status, error) {
	now := t.now()
	rec, err := t.store.Update(ctx, identity, t.ttl(), func(rec *Record) {
		t.expire(rec, now)
	})
	if err != nil {
		return Status{}, err
	}

	status := t.status(rec, now)
	if status.State == StateBlocked {
		return status, t.LockoutError(status)
	}
	return status, nil
}

// RecordFailure counts one failed attempt. The returned status is
// StateBlocked when this attempt reached MaxAttempts.
func (t *LoginThrottle) RecordFailure(ctx context.Context, identity string) (Status, error) {
	now := t.now()
	rec, err := t.store.Update(ctx, identity, t.ttl(), func(rec *Record) {
		t.expire(rec, now)
		rec.Count++
		rec.LastAttempt = now
		if rec.Count >= t.cfg.MaxAttempts {
			rec.Blocked = true
		}
	})
	if err != nil {
		return Status{}, err
	}
	return t.status(rec, now), nil
}

func (t *LoginThrottle) Reset(ctx context.Context, identity string) error {
	return t.store.Delete(ctx, identity)
}

// LockoutError builds the "try again in N minutes" error, N ceiled to
// whole minutes.
func (t *LoginThrottle) LockoutError(status Status) *RateLimitError {
	minutes := int(math.Ceil(status.RetryAfter.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("Muitas tentativas de login. Tente novamente em %d minuto(s).", minutes),
		RetryAfter: status.RetryAfter,
	}
}

// expire applies the time-based transitions: an elapsed block clears the
// record, an elapsed attempt window resets the count of an unblocked one.
func (t *LoginThrottle) expire(rec *Record, now time.Time) {
	if rec.isZero() {
		return
	}
	elapsed := now.Sub(rec.LastAttempt)
	if rec.Blocked {
		if elapsed > t.cfg.BlockDuration {
			*rec = Record{}
		}
		return
	}
	if elapsed > t.cfg.AttemptResetTime {
		*rec = Record{}
	}
}

func (t *LoginThrottle) status(rec Record, now time.Time) Status {
	status := Status{
		Attempts:          rec.Count,
		RemainingAttempts: t.cfg.MaxAttempts - rec.Count,
	}
	if status.RemainingAttempts < 0 {
		status.RemainingAttempts = 0
	}

	switch {
	case rec.Blocked:
		status.State = StateBlocked
		status.RetryAfter = t.cfg.BlockDuration - now.Sub(rec.LastAttempt)
	case rec.Count > 0:
		status.State = StateAccumulating
	default:
		status.State = StateClear
	}
	return status
}

func (t *LoginThrottle) ttl() time.Duration {
	if t.cfg.BlockDuration > t.cfg.AttemptResetTime {
		return t.cfg.BlockDuration
	}
	return t.cfg.AttemptResetTime
}
