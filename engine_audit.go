package gamebridge

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginLocked           = "login_locked"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshFailure        = "refresh_failure"
	auditEventTokenMalformed        = "token_malformed"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterConflict      = "register_conflict"
	auditEventRegisterFallbackLogin = "register_fallback_login"
	auditEventRegisterFailure       = "register_failure"
	auditEventRegisterRefused       = "register_refused"
	auditEventLogout                = "logout"
	auditEventLinkReset             = "link_reset"
	auditEventGateDenied            = "gate_denied"
)

// AuditErrorCode is the machine-readable error tag recorded on events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrLocked             AuditErrorCode = "locked"
	auditErrConflict           AuditErrorCode = "conflict"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrNetwork            AuditErrorCode = "network"
	auditErrServer             AuditErrorCode = "server"
	auditErrTokenInvalid       AuditErrorCode = "token_invalid"
	auditErrTokenMalformed     AuditErrorCode = "token_malformed"
	auditErrAlreadyLinked      AuditErrorCode = "already_linked"
	auditErrNotLinked          AuditErrorCode = "not_linked"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identityID string,
	remoteUser string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		IdentityID: identityID,
		RemoteUser: remoteUser,
		IP:         clientIPFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLocked):
		return auditErrLocked
	case errors.Is(err, ErrConflict):
		return auditErrConflict
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrNetwork):
		return auditErrNetwork
	case errors.Is(err, ErrServer):
		return auditErrServer
	case errors.Is(err, ErrMalformedToken):
		return auditErrTokenMalformed
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrAlreadyLinked):
		return auditErrAlreadyLinked
	case errors.Is(err, ErrNotLinked):
		return auditErrNotLinked
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}
