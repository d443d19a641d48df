// Package token decodes the claims embedded in bearer tokens issued by the
// remote game API. The backend owns the signing key, so the bridge never
// verifies signatures; it only needs the expiry claim to decide when a token
// is due for refresh. A token that does not have the expected three-segment
// shape, or whose payload is not a JSON object carrying an expiry, is
// reported as malformed so callers treat it like no token at all.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed indicates the raw token is not structurally a JWT carrying an
// expiry claim. Structurally invalid tokens must never be sent for refresh.
var ErrMalformed = errors.New("malformed bearer token")

var parser = jwt.NewParser()

// Expiry returns the expiry timestamp embedded in raw.
//
// The token is decoded, not verified: the remote API is the authority on
// signatures and the bridge only schedules refreshes. Any structural defect
// (wrong segment count, undecodable payload, missing exp) returns
// [ErrMalformed].
func Expiry(raw string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, ErrMalformed
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformed
	}
	return claims.ExpiresAt.Time, nil
}

// Subject returns the sub claim, or "" when absent. Used for audit metadata
// only; authorization decisions always go back to the remote API.
func Subject(raw string) string {
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return ""
	}
	return claims.Subject
}
