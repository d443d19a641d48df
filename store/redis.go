// Package store persists bearer tokens and identity-to-remote-account links in
// Redis so they survive process restarts and are shared across concurrent
// request handlers. The store is a pure keyed store: it performs no token
// validation and no expiry bookkeeping of its own.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the storage backend is unreachable or returned a
// corrupt record. This is an infrastructure failure, distinct from the auth
// error taxonomy, and callers are expected to propagate it.
var ErrUnavailable = errors.New("credential store unavailable")

// Token is the persisted bearer credential for one identity. The expiry is
// embedded in the token itself and is decoded on read by callers, never
// stored here.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Store is a Redis-backed token and link store. Safe for concurrent use.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store on the given Redis client. All keys are namespaced
// under prefix (default "gb").
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gb"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) tokenKey(identityID string) string {
	return s.prefix + ":tok:" + identityID
}

func (s *Store) linkKey(identityID string) string {
	return s.prefix + ":lnk:" + identityID
}

// GetToken returns the stored token for the identity, or nil when none is
// stored. Overwritten wholesale by SetToken; there are no merge semantics.
func (s *Store) GetToken(ctx context.Context, identityID string) (*Token, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(identityID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: corrupt token record: %v", ErrUnavailable, err)
	}
	return &tok, nil
}

// SetToken overwrites the stored token for the identity.
func (s *Store) SetToken(ctx context.Context, identityID string, tok Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("%w: encode token record: %v", ErrUnavailable, err)
	}
	if err := s.redis.Set(ctx, s.tokenKey(identityID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ClearToken removes the stored token for the identity. Clearing an absent
// token is not an error.
func (s *Store) ClearToken(ctx context.Context, identityID string) error {
	if err := s.redis.Del(ctx, s.tokenKey(identityID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetLink returns the remote account username linked to the identity, or ""
// when the identity has never registered (or the link was reset).
func (s *Store) GetLink(ctx context.Context, identityID string) (string, error) {
	username, err := s.redis.Get(ctx, s.linkKey(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return username, nil
}

// SetLink records the identity-to-remote-account link. At most one remote
// username per identity: a second SetLink overwrites the first.
func (s *Store) SetLink(ctx context.Context, identityID, remoteUsername string) error {
	if err := s.redis.Set(ctx, s.linkKey(identityID), remoteUsername, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ClearLink removes the identity-to-remote-account link.
func (s *Store) ClearLink(ctx context.Context, identityID string) error {
	if err := s.redis.Del(ctx, s.linkKey(identityID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping round-trips the backend and reports latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
