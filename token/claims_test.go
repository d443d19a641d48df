package token

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return raw
}

func TestExpiry_ValidToken(t *testing.T) {
	want := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := mint(t, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(want),
	})

	got, err := Expiry(raw)
	if err != nil {
		t.Fatalf("expiry: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
}

func TestExpiry_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"single segment", "nodots"},
		{"two segments", "header.payload"},
		{"four segments", "a.b.c.d"},
		{"non-base64 middle", "aGVhZGVy.!!!bad!!!.c2ln"},
		{"non-json middle", "aGVhZGVy." + base64.RawURLEncoding.EncodeToString([]byte("plain text")) + ".c2ln"},
		{"json array middle", "aGVhZGVy." + base64.RawURLEncoding.EncodeToString([]byte(`[1,2,3]`)) + ".c2ln"},
		{"missing exp", "aGVhZGVy." + base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"alice"}`)) + ".c2ln"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Expiry(tc.raw); !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestExpiry_MissingExpOnSignedToken(t *testing.T) {
	raw := mint(t, jwt.MapClaims{"sub": "alice"})
	if _, err := Expiry(raw); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for a token without exp, got %v", err)
	}
}

func TestSubject(t *testing.T) {
	raw := mint(t, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if got := Subject(raw); got != "alice" {
		t.Fatalf("subject = %q, want alice", got)
	}
	if got := Subject("garbage"); got != "" {
		t.Fatalf("subject of garbage = %q, want empty", got)
	}
}
