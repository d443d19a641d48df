package gamebridge

import (
	"context"

	"github.com/hexveil/gamebridge/remote"
	"github.com/hexveil/gamebridge/store"
)

// Identity is the local user on whose behalf the bridge acts. The ID is
// opaque to the bridge; Privileged marks administrative identities, which
// config may exempt from the one-remote-account rule.
type Identity struct {
	ID         string
	Privileged bool
}

// Token is the bearer credential held for an identity. Opaque: expiry is
// decoded from the token's own claims, never tracked separately.
type Token = store.Token

// RemoteIdentity is the backend's live view of the linked account. Fetched
// on demand and never cached, so profile data is never stale.
type RemoteIdentity = remote.Identity

// TokenStore is the durable per-identity token storage consumed by the
// engine. [store.Store] is the Redis implementation; the interface exists so
// the persistence technology is an injection point, not a hidden dependency.
type TokenStore interface {
	GetToken(ctx context.Context, identityID string) (*store.Token, error)
	SetToken(ctx context.Context, identityID string, tok store.Token) error
	ClearToken(ctx context.Context, identityID string) error
}

// LinkStore is the durable identity-to-remote-account link storage.
// [store.Store] implements it alongside [TokenStore].
type LinkStore interface {
	GetLink(ctx context.Context, identityID string) (string, error)
	SetLink(ctx context.Context, identityID, remoteUsername string) error
	ClearLink(ctx context.Context, identityID string) error
}

// AuthClient is the remote API surface the engine depends on.
// [remote.Client] is the production implementation.
type AuthClient interface {
	Authenticate(ctx context.Context, username, password string) (*remote.Token, error)
	Register(ctx context.Context, username, email, password string, flags remote.RegisterFlags) (*remote.Identity, error)
	Refresh(ctx context.Context, token string) (*remote.Token, error)
	FetchIdentity(ctx context.Context, token string) (*remote.Identity, error)
	CheckExists(ctx context.Context, username string) (bool, error)
}
