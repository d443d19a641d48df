// Package limiters holds the Redis-backed lockout guard used by the bridge
// engine. It is internal: callers interact with lockout only through the
// engine's login operations.
package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockoutUnavailable indicates the lockout backend is unreachable.
var ErrLockoutUnavailable = errors.New("lockout backend unavailable")

// LockoutConfig holds the lockout guard tuning parameters.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
	Prefix      string
}

// Lockout tracks failed authentication attempts per identity and enforces a
// temporary lockout window once the threshold is reached.
//
// The guard is a three-state machine per identity: open (attempts below
// threshold), locked (threshold reached, window running), and expired-lock
// (window elapsed but counters not yet reset). There is no background timer;
// the locked-to-open transition happens lazily inside Check. Counter updates
// are plain INCR/SET without a transaction: two simultaneous failures may
// lose an update, which only weakens the guard, never breaks it.
type Lockout struct {
	redis  redis.UniversalClient
	config LockoutConfig
	now    func() time.Time
}

// NewLockout creates a lockout guard. now defaults to time.Now and exists so
// the lockout window can run against a simulated clock in tests.
func NewLockout(client redis.UniversalClient, cfg LockoutConfig, now func() time.Time) *Lockout {
	if now == nil {
		now = time.Now
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "gb"
	}
	return &Lockout{redis: client, config: cfg, now: now}
}

func (l *Lockout) failKey(identityID string) string {
	return l.config.Prefix + ":lockfail:" + identityID
}

func (l *Lockout) startKey(identityID string) string {
	return l.config.Prefix + ":lockstart:" + identityID
}

// Check reports whether the identity may attempt to authenticate. A zero
// return means allowed. A positive return is the remaining lock window.
// An elapsed lock is reset here: the counter goes back to zero and the call
// returns allowed.
func (l *Lockout) Check(ctx context.Context, identityID string) (time.Duration, error) {
	startedAt, err := l.redis.Get(ctx, l.startKey(identityID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	elapsed := l.now().Unix() - startedAt
	remaining := l.config.Duration - time.Duration(elapsed)*time.Second
	if remaining <= 0 {
		if err := l.Reset(ctx, identityID); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return remaining, nil
}

// RecordFailure increments the failure counter for the identity. When the
// counter reaches MaxAttempts the lock window starts; the started-at stamp is
// written once (SETNX) so later failures cannot extend an existing lock.
// Returns true when this failure reached or passed the threshold.
func (l *Lockout) RecordFailure(ctx context.Context, identityID string) (bool, error) {
	count, err := l.redis.Incr(ctx, l.failKey(identityID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if count < int64(l.config.MaxAttempts) {
		return false, nil
	}

	if err := l.redis.SetNX(ctx, l.startKey(identityID), l.now().Unix(), 0).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return true, nil
}

// RecordSuccess unconditionally resets the failure counter and lock stamp.
func (l *Lockout) RecordSuccess(ctx context.Context, identityID string) error {
	return l.Reset(ctx, identityID)
}

// Reset clears all lockout state for the identity.
func (l *Lockout) Reset(ctx context.Context, identityID string) error {
	if err := l.redis.Del(ctx, l.failKey(identityID), l.startKey(identityID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// FailureCount returns the current failure counter. Missing keys read as
// zero.
func (l *Lockout) FailureCount(ctx context.Context, identityID string) (int, error) {
	count, err := l.redis.Get(ctx, l.failKey(identityID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return int(count), nil
}
