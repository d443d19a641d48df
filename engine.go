package gamebridge

import (
	"errors"
	"fmt"
	"time"

	"github.com/hexveil/gamebridge/internal/limiters"
	"github.com/hexveil/gamebridge/remote"
)

// Engine is the session bridge: it answers whether a local identity has a
// currently usable remote session, and performs the login, registration,
// logout, and link-reset flows against the remote game API.
//
// Engine instances are built through [Builder.Build], configured during
// initialization, and safe for concurrent use afterwards. All state lives in
// the injected stores, so multiple processes can share one Redis backend.
type Engine struct {
	config  Config
	client  AuthClient
	tokens  TokenStore
	links   LinkStore
	lockout *limiters.Lockout
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full (only possible with Audit.DropIfFull).
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// MetricsSnapshot returns a point-in-time copy of the outcome counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// mapRemoteErr translates the remote package's typed failures into the
// engine's public taxonomy. Unknown errors pass through unchanged.
func mapRemoteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remote.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, remote.ErrConflict):
		return ErrConflict
	case errors.Is(err, remote.ErrInvalidToken):
		return ErrTokenInvalid
	}

	var ve *remote.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Detail: ve.Detail}
	}
	var ne *remote.NetworkError
	if errors.As(err, &ne) {
		return &NetworkError{Err: ne.Err}
	}
	var se *remote.ServerError
	if errors.As(err, &se) {
		return &ServerError{Status: se.Status, Detail: se.Detail}
	}

	return err
}

// storeErr wraps a storage-layer failure as an infrastructure error,
// keeping it out of the auth taxonomy.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
