package gamebridge

import (
	"context"
	"errors"

	"github.com/hexveil/gamebridge/remote"
)

// Register creates a remote account for the identity and persists the
// identity-to-account link.
//
// An identity already linked to a remote account is refused with
// ErrAlreadyLinked unless Account.AllowRelinkForPrivileged is set and the
// identity is Privileged. When the backend reports the account already
// exists, typically the residue of a prior partial registration, the
// engine falls back to a login with the same credentials; if those match,
// registration completes transparently against the existing account. With
// Account.AutoLogin the plain success path also establishes a token
// immediately.
func (e *Engine) Register(ctx context.Context, identity Identity, username, email, password string) (*RemoteIdentity, error) {
	if e == nil || e.client == nil || e.links == nil {
		return nil, ErrEngineNotReady
	}

	linked, err := e.links.GetLink(ctx, identity.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if linked != "" && !(e.config.Account.AllowRelinkForPrivileged && identity.Privileged) {
		e.emitAudit(ctx, auditEventRegisterRefused, false, identity.ID, linked, ErrAlreadyLinked, nil)
		return nil, ErrAlreadyLinked
	}

	created, regErr := e.client.Register(ctx, username, email, password, remote.RegisterFlags{})
	if regErr != nil {
		mapped := mapRemoteErr(regErr)
		if errors.Is(mapped, ErrConflict) {
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterConflict, false, identity.ID, username, mapped, nil)
			return e.registerFallbackLogin(ctx, identity, username, password, mapped)
		}

		if errors.Is(mapped, ErrValidation) {
			e.metricInc(MetricRegisterValidation)
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, identity.ID, username, mapped, nil)
		return nil, mapped
	}

	if err := e.links.SetLink(ctx, identity.ID, created.Username); err != nil {
		return nil, storeErr(err)
	}

	if e.config.Account.AutoLogin {
		if _, lerr := e.Login(ctx, identity, username, password); lerr != nil {
			// The account exists and the link is recorded; the caller can
			// still establish a token with an explicit login.
			e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, username, lerr, func() map[string]string {
				return map[string]string{"stage": "register_auto_login"}
			})
		}
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, identity.ID, created.Username, nil, nil)
	return created, nil
}

// registerFallbackLogin resolves a registration conflict by logging in with
// the same credentials. When they match the existing account, registration
// completes as if it had succeeded; otherwise the original conflict is
// surfaced.
func (e *Engine) registerFallbackLogin(ctx context.Context, identity Identity, username, password string, conflict error) (*RemoteIdentity, error) {
	tok, err := e.Login(ctx, identity, username, password)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, conflict
	}

	snapshot, err := e.client.FetchIdentity(ctx, tok.AccessToken)
	if err != nil {
		return nil, mapRemoteErr(err)
	}

	if err := e.links.SetLink(ctx, identity.ID, snapshot.Username); err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricRegisterFallbackLogin)
	e.emitAudit(ctx, auditEventRegisterFallbackLogin, true, identity.ID, snapshot.Username, nil, nil)
	return snapshot, nil
}

// UsernameAvailable probes the backend for an unclaimed username. Useful
// before offering a registration form; the register flow itself still
// handles the race where the name is taken in between.
func (e *Engine) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if e == nil || e.client == nil {
		return false, ErrEngineNotReady
	}

	exists, err := e.client.CheckExists(ctx, username)
	if err != nil {
		return false, mapRemoteErr(err)
	}
	return !exists, nil
}
