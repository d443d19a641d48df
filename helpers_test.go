package gamebridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/hexveil/gamebridge/remote"
	"github.com/hexveil/gamebridge/token"
)

// testClock is a manually advanced time source shared by the engine, the
// lockout guard, and the fake backend.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1700000000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeUser struct {
	password string
	email    string
}

// fakeRemote implements AuthClient against an in-memory account set and
// counts every network operation so tests can assert which calls happened.
type fakeRemote struct {
	mu    sync.Mutex
	users map[string]fakeUser

	now      func() time.Time
	tokenTTL time.Duration

	networkDown   bool
	rejectRefresh bool

	authCalls     int
	registerCalls int
	refreshCalls  int
	fetchCalls    int
	existsCalls   int
}

func newFakeRemote(now func() time.Time) *fakeRemote {
	return &fakeRemote{
		users:    map[string]fakeUser{},
		now:      now,
		tokenTTL: time.Hour,
	}
}

func (f *fakeRemote) addUser(username, password, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = fakeUser{password: password, email: email}
}

func (f *fakeRemote) mint(sub string) *remote.Token {
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(f.now().Add(f.tokenTTL)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fake-backend-key"))
	if err != nil {
		panic(err)
	}
	return &remote.Token{AccessToken: raw, TokenType: "bearer"}
}

func (f *fakeRemote) Authenticate(ctx context.Context, username, password string) (*remote.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++

	if f.networkDown {
		return nil, &remote.NetworkError{Err: errors.New("dial tcp: connection refused")}
	}
	user, ok := f.users[username]
	if !ok || user.password != password {
		return nil, remote.ErrInvalidCredentials
	}
	return f.mint(username), nil
}

func (f *fakeRemote) Register(ctx context.Context, username, email, password string, flags remote.RegisterFlags) (*remote.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerCalls++

	if f.networkDown {
		return nil, &remote.NetworkError{Err: errors.New("dial tcp: connection refused")}
	}
	if _, ok := f.users[username]; ok {
		return nil, remote.ErrConflict
	}
	if !strings.Contains(email, "@") {
		return nil, &remote.ValidationError{Detail: "value is not a valid email address"}
	}

	f.users[username] = fakeUser{password: password, email: email}
	return &remote.Identity{
		Username:  username,
		Email:     email,
		IsActive:  true,
		CreatedAt: f.now(),
	}, nil
}

func (f *fakeRemote) Refresh(ctx context.Context, raw string) (*remote.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++

	if f.networkDown {
		return nil, &remote.NetworkError{Err: errors.New("dial tcp: connection refused")}
	}
	if f.rejectRefresh {
		return nil, remote.ErrInvalidToken
	}
	sub := token.Subject(raw)
	if sub == "" {
		return nil, remote.ErrInvalidToken
	}
	return f.mint(sub), nil
}

func (f *fakeRemote) FetchIdentity(ctx context.Context, raw string) (*remote.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++

	sub := token.Subject(raw)
	user, ok := f.users[sub]
	if !ok {
		return nil, remote.ErrInvalidToken
	}
	return &remote.Identity{
		Username:  sub,
		Email:     user.email,
		IsActive:  true,
		CreatedAt: f.now(),
	}, nil
}

func (f *fakeRemote) CheckExists(ctx context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++

	if f.networkDown {
		return false, &remote.NetworkError{Err: errors.New("dial tcp: connection refused")}
	}
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeRemote) counts() (auth, register, refresh, fetch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls, f.registerCalls, f.refreshCalls, f.fetchCalls
}

// newTestEngine builds an engine on miniredis, a fake backend, and a
// simulated clock. Audit is off by default; tests that assert on the trail
// build their own engine with a sink.
func newTestEngine(t *testing.T, mutate func(*Config)) (*Engine, *fakeRemote, *testClock, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	clock := newTestClock()
	backend := newFakeRemote(clock.Now)

	cfg := defaultConfig()
	cfg.Remote.BaseURL = "http://backend.test"
	cfg.Audit.Enabled = false
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuthClient(backend).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return engine, backend, clock, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
