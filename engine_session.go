package gamebridge

import (
	"context"

	"github.com/hexveil/gamebridge/store"
	"github.com/hexveil/gamebridge/token"
)

// IsAuthenticated reports whether the identity holds a currently usable
// remote session.
//
// A missing token is simply false. A malformed token is treated like a
// missing one: cleared from storage, reported false, and never sent for
// refresh. A token whose expiry is more than Session.RefreshMargin in the
// future is usable with no network traffic at all. Anything closer to expiry
// triggers one synchronous refresh; on success the new token is persisted,
// on any refresh failure the stored token is cleared and the caller must log
// in again. The error return is reserved for storage failures.
func (e *Engine) IsAuthenticated(ctx context.Context, identity Identity) (bool, error) {
	if e == nil || e.tokens == nil || e.client == nil {
		return false, ErrEngineNotReady
	}

	stored, err := e.tokens.GetToken(ctx, identity.ID)
	if err != nil {
		return false, storeErr(err)
	}
	if stored == nil {
		return false, nil
	}

	expiry, perr := token.Expiry(stored.AccessToken)
	if perr != nil {
		e.metricInc(MetricTokenMalformed)
		e.emitAudit(ctx, auditEventTokenMalformed, false, identity.ID, "", ErrMalformedToken, nil)
		if cerr := e.tokens.ClearToken(ctx, identity.ID); cerr != nil {
			return false, storeErr(cerr)
		}
		return false, nil
	}

	if expiry.After(e.now().Add(e.config.Session.RefreshMargin)) {
		return true, nil
	}

	fresh, rerr := e.client.Refresh(ctx, stored.AccessToken)
	if rerr != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, identity.ID, token.Subject(stored.AccessToken), mapRemoteErr(rerr), nil)
		if cerr := e.tokens.ClearToken(ctx, identity.ID); cerr != nil {
			return false, storeErr(cerr)
		}
		return false, nil
	}

	renewed := store.Token{AccessToken: fresh.AccessToken, TokenType: fresh.TokenType}
	if err := e.tokens.SetToken(ctx, identity.ID, renewed); err != nil {
		return false, storeErr(err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, identity.ID, token.Subject(renewed.AccessToken), nil, nil)
	return true, nil
}

// Logout clears the identity's stored token. The remote account and the
// identity link are untouched; a later Login restores access.
func (e *Engine) Logout(ctx context.Context, identity Identity) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	if err := e.tokens.ClearToken(ctx, identity.ID); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, identity.ID, "", nil, nil)
	return nil
}

// ResetLink clears both the stored token and the identity-to-remote-account
// link. This is the administrative unregister flow; the remote account
// itself is not deleted.
func (e *Engine) ResetLink(ctx context.Context, identity Identity) error {
	if e == nil || e.tokens == nil || e.links == nil {
		return ErrEngineNotReady
	}

	if err := e.tokens.ClearToken(ctx, identity.ID); err != nil {
		return storeErr(err)
	}
	if err := e.links.ClearLink(ctx, identity.ID); err != nil {
		return storeErr(err)
	}

	e.metricInc(MetricLinkReset)
	e.emitAudit(ctx, auditEventLinkReset, true, identity.ID, "", nil, nil)
	return nil
}

// RemoteIdentity fetches the live account snapshot for the identity's
// current session. The snapshot is never cached: profile data is re-fetched
// on every call so it cannot go stale. Returns ErrTokenInvalid when the
// identity has no usable session.
func (e *Engine) RemoteIdentity(ctx context.Context, identity Identity) (*RemoteIdentity, error) {
	if e == nil || e.tokens == nil || e.client == nil {
		return nil, ErrEngineNotReady
	}

	ok, err := e.IsAuthenticated(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenInvalid
	}

	stored, err := e.tokens.GetToken(ctx, identity.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if stored == nil {
		// Raced with a concurrent logout.
		return nil, ErrTokenInvalid
	}

	snapshot, ferr := e.client.FetchIdentity(ctx, stored.AccessToken)
	if ferr != nil {
		return nil, mapRemoteErr(ferr)
	}
	return snapshot, nil
}

// LinkedUsername returns the remote account username linked to the identity,
// or ErrNotLinked when the identity never registered (or the link was reset).
func (e *Engine) LinkedUsername(ctx context.Context, identity Identity) (string, error) {
	if e == nil || e.links == nil {
		return "", ErrEngineNotReady
	}

	linked, err := e.links.GetLink(ctx, identity.ID)
	if err != nil {
		return "", storeErr(err)
	}
	if linked == "" {
		return "", ErrNotLinked
	}
	return linked, nil
}
