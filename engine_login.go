package gamebridge

import (
	"context"
	"errors"

	"github.com/hexveil/gamebridge/store"
)

// Login authenticates the identity against the remote API and persists the
// issued token.
//
// The lockout guard is consulted first: while the identity's lock window is
// running the call returns a [*LockedError] without any network traffic.
// Only a credential rejection counts as a failed attempt; network and server
// failures are not attributable to the user and leave the counter untouched.
// The attempt that reaches the threshold still reports ErrInvalidCredentials;
// the lock takes effect on the next call.
func (e *Engine) Login(ctx context.Context, identity Identity, username, password string) (*Token, error) {
	if e == nil || e.client == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	remaining, err := e.lockout.Check(ctx, identity.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if remaining > 0 {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, identity.ID, username, ErrLocked, nil)
		return nil, &LockedError{Remaining: remaining}
	}

	issued, authErr := e.client.Authenticate(ctx, username, password)
	if authErr != nil {
		mapped := mapRemoteErr(authErr)
		if errors.Is(mapped, ErrInvalidCredentials) {
			if _, lerr := e.lockout.RecordFailure(ctx, identity.ID); lerr != nil {
				return nil, storeErr(lerr)
			}
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, username, mapped, nil)
			return nil, mapped
		}

		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, username, mapped, nil)
		return nil, mapped
	}

	if err := e.lockout.RecordSuccess(ctx, identity.ID); err != nil {
		return nil, storeErr(err)
	}

	tok := store.Token{AccessToken: issued.AccessToken, TokenType: issued.TokenType}
	if err := e.tokens.SetToken(ctx, identity.ID, tok); err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, username, nil, nil)
	return &tok, nil
}
