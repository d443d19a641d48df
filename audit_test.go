package gamebridge

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newAuditedEngine(t *testing.T, sink AuditSink) (*Engine, *fakeRemote, func()) {
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
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuthClient(backend).
		WithClock(clock.Now).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return engine, backend, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func waitEvent(t *testing.T, ch <-chan AuditEvent) AuditEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAudit_LoginOutcomesRecorded(t *testing.T) {
	sink := NewChannelSink(64)
	engine, backend, done := newAuditedEngine(t, sink)
	defer done()

	backend.addUser("alice", "correct-horse", "alice@example.com")
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	identity := Identity{ID: "wp-1"}

	if _, err := engine.Login(ctx, identity, "alice", "correct-horse"); err != nil {
		t.Fatalf("login: %v", err)
	}

	ev := waitEvent(t, sink.Events())
	if ev.EventType != auditEventLoginSuccess {
		t.Fatalf("expected login_success, got %q", ev.EventType)
	}
	if !ev.Success || ev.IdentityID != "wp-1" || ev.RemoteUser != "alice" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.IP != "203.0.113.7" {
		t.Fatalf("expected client IP on the event, got %q", ev.IP)
	}
	if ev.ID == "" {
		t.Fatal("expected an event id")
	}

	_, _ = engine.Login(ctx, identity, "alice", "wrong")
	ev = waitEvent(t, sink.Events())
	if ev.EventType != auditEventLoginFailure {
		t.Fatalf("expected login_failure, got %q", ev.EventType)
	}
	if ev.Error != string(auditErrInvalidCredentials) {
		t.Fatalf("expected invalid_credentials tag, got %q", ev.Error)
	}
}

func TestAudit_NoSecretMaterialInTrail(t *testing.T) {
	var buf bytes.Buffer
	engine, backend, done := newAuditedEngine(t, NewJSONWriterSink(&buf))

	backend.addUser("alice", "hunter2-secret-pw", "alice@example.com")
	ctx := context.Background()
	identity := Identity{ID: "wp-1"}

	tok, err := engine.Login(ctx, identity, "alice", "hunter2-secret-pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	_, _ = engine.Login(ctx, identity, "alice", "another-secret-guess")
	_ = engine.Logout(ctx, identity)

	// Close drains the dispatcher before the buffer is inspected.
	done()

	trail := buf.String()
	if trail == "" {
		t.Fatal("expected a non-empty audit trail")
	}
	for _, secret := range []string{"hunter2-secret-pw", "another-secret-guess", tok.AccessToken} {
		if strings.Contains(trail, secret) {
			t.Fatalf("audit trail leaked secret material: %q", secret)
		}
	}
}

func TestAudit_DropAccounting(t *testing.T) {
	cfg := AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}

	// A sink that never drains forces drops once the buffer is full.
	blocked := make(chan struct{})
	d := newAuditDispatcher(cfg, blockingSink{unblock: blocked})

	for i := 0; i < 10; i++ {
		d.emit(context.Background(), AuditEvent{EventType: "login_failure"})
	}
	if d.droppedCount() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}

	close(blocked)
	d.close()
}

type blockingSink struct {
	unblock <-chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, event AuditEvent) {
	<-s.unblock
}
