package gamebridge

import (
	"errors"
	"net/url"
	"time"
)

// Config holds all engine tuning parameters. Configure during
// initialization and treat as immutable afterwards.
type Config struct {
	Remote  RemoteConfig
	Lockout LockoutConfig
	Session SessionConfig
	Account AccountConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
REMOTE CONFIG
====================================
*/

// RemoteConfig locates the backend API and bounds its round trips.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-login lockout guard. MaxAttempts
// failures lock the identity for Duration; the lock expires lazily on the
// next check, not on a timer.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls token lifecycle handling. A token whose expiry is
// closer than RefreshMargin is refreshed inline before being treated as
// valid. RedisPrefix namespaces every key the bridge writes.
type SessionConfig struct {
	RefreshMargin time.Duration
	RedisPrefix   string
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls registration policy.
//
// AllowRelinkForPrivileged exempts identities marked Privileged from the
// one-remote-account rule; everyone else gets ErrAlreadyLinked on a second
// Register. AutoLogin makes a successful registration immediately establish
// a usable token with the same credentials.
type AccountConfig struct {
	AutoLogin                bool
	AllowRelinkForPrivileged bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the in-process outcome counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Remote: RemoteConfig{
			Timeout: 15 * time.Second,
		},
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    30 * time.Minute,
		},
		Session: SessionConfig{
			RefreshMargin: 60 * time.Second,
			RedisPrefix:   "gb",
		},
		Account: AccountConfig{
			AutoLogin: true,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the engine defaults: 15s remote timeout, 5 login
// attempts, 30 minute lockout, 60s refresh margin.
func DefaultConfig() Config {
	return defaultConfig()
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Remote.BaseURL == "" {
		return errors.New("Remote.BaseURL is required")
	}
	parsed, err := url.Parse(c.Remote.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errors.New("Remote.BaseURL must be an absolute http(s) URL")
	}
	if c.Remote.Timeout <= 0 {
		return errors.New("Remote.Timeout must be > 0")
	}

	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout.MaxAttempts must be > 0")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be > 0")
	}

	if c.Session.RefreshMargin < 0 {
		return errors.New("Session.RefreshMargin must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when Audit.Enabled is true")
	}

	return nil
}
