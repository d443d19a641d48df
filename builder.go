package gamebridge

import (
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hexveil/gamebridge/internal/limiters"
	"github.com/hexveil/gamebridge/remote"
	"github.com/hexveil/gamebridge/store"
)

// Builder assembles an [Engine]. Construction is allocation-only: no I/O
// happens until engine methods are called.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	httpClient *http.Client
	client     AuthClient
	tokens     TokenStore
	links      LinkStore
	auditSink  AuditSink
	now        func() time.Time

	built bool
}

// New returns a builder loaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBaseURL overrides the remote API base URL without replacing the rest
// of the configuration.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.Remote.BaseURL = baseURL
	return b
}

// WithRedis supplies the Redis client backing the token store, link store,
// and lockout guard.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the HTTP client used for remote API calls.
// Without it, a client bound by Remote.Timeout is constructed.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuthClient replaces the remote API client entirely. Intended for
// tests and non-HTTP transports.
func (b *Builder) WithAuthClient(client AuthClient) *Builder {
	b.client = client
	return b
}

// WithTokenStore overrides the default Redis-backed token store.
func (b *Builder) WithTokenStore(tokens TokenStore) *Builder {
	b.tokens = tokens
	return b
}

// WithLinkStore overrides the default Redis-backed link store.
func (b *Builder) WithLinkStore(links LinkStore) *Builder {
	b.links = links
	return b
}

// WithAuditSink sets the destination for audit events. Without it, events
// are dispatched to a NoOpSink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine's time source. Lockout windows and refresh
// margins are computed from it; tests use this to simulate elapsed time.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine. A builder can
// only be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	client := b.client
	if client == nil {
		httpClient := b.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: b.config.Remote.Timeout}
		}
		client = remote.NewClient(b.config.Remote.BaseURL, httpClient)
	}

	var backing *store.Store
	if b.tokens == nil || b.links == nil {
		backing = store.New(b.redis, b.config.Session.RedisPrefix)
	}
	tokens := b.tokens
	if tokens == nil {
		tokens = backing
	}
	links := b.links
	if links == nil {
		links = backing
	}

	lockout := limiters.NewLockout(b.redis, limiters.LockoutConfig{
		MaxAttempts: b.config.Lockout.MaxAttempts,
		Duration:    b.config.Lockout.Duration,
		Prefix:      b.config.Session.RedisPrefix,
	}, now)

	b.built = true

	return &Engine{
		config:  b.config,
		client:  client,
		tokens:  tokens,
		links:   links,
		lockout: lockout,
		audit:   newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics: newMetrics(b.config.Metrics),
		now:     now,
	}, nil
}
