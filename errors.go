package gamebridge

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned by Login when the remote API rejects
	// the username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLocked is returned by Login while the identity's lockout window is
	// running. Match with errors.Is; the concrete value is a [*LockedError]
	// carrying the remaining time.
	ErrLocked = errors.New("login attempts locked")
	// ErrConflict is returned by Register when the remote account already
	// exists and the fallback login could not recover it.
	ErrConflict = errors.New("remote account already exists")
	// ErrValidation is returned by Register for field-level rejections. The
	// concrete value is a [*ValidationError] carrying the backend detail.
	ErrValidation = errors.New("registration rejected by remote validation")
	// ErrNetwork indicates a transport-level failure reaching the remote
	// API. Never counted as a failed login attempt.
	ErrNetwork = errors.New("remote API unreachable")
	// ErrServer indicates an unexpected non-2xx remote response. The
	// concrete value is a [*ServerError] carrying the HTTP status.
	ErrServer = errors.New("remote API server error")
	// ErrTokenInvalid indicates the remote API rejected the presented bearer
	// token, or no currently usable token exists for the identity.
	ErrTokenInvalid = errors.New("invalid bearer token")
	// ErrMalformedToken indicates a stored token that is not structurally a
	// JWT. Treated like an absent token: cleared, never refreshed.
	ErrMalformedToken = errors.New("malformed bearer token")
	// ErrAlreadyLinked is returned by Register when the identity is already
	// linked to a remote account and relinking is not permitted.
	ErrAlreadyLinked = errors.New("identity already linked to a remote account")
	// ErrNotLinked is returned when an operation needs a linked remote
	// account and the identity has none.
	ErrNotLinked = errors.New("identity has no linked remote account")
	// ErrStoreUnavailable wraps storage-layer failures. Infrastructure, not
	// part of the auth taxonomy; callers should fail the request.
	ErrStoreUnavailable = errors.New("bridge storage unavailable")
	// ErrEngineNotReady is returned when an Engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockedError carries the remaining lockout window. errors.Is(err, ErrLocked)
// matches it. UI code must render this distinctly from ErrInvalidCredentials:
// the required user action is "wait", not "retry".
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("login attempts locked for another %d seconds", int(e.Remaining.Seconds()))
}

// Is reports whether target is [ErrLocked].
func (e *LockedError) Is(target error) bool { return target == ErrLocked }

// ValidationError carries the backend's field-level rejection detail.
// errors.Is(err, ErrValidation) matches it.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Detail
}

// Is reports whether target is [ErrValidation].
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NetworkError carries the underlying transport failure.
// errors.Is(err, ErrNetwork) matches it.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return ErrNetwork.Error() + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports whether target is [ErrNetwork].
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError carries the remote HTTP status for unexpected responses.
// errors.Is(err, ErrServer) matches it.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (status %d)", ErrServer.Error(), e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", ErrServer.Error(), e.Status, e.Detail)
}

// Is reports whether target is [ErrServer].
func (e *ServerError) Is(target error) bool { return target == ErrServer }
