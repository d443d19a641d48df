// Package gamebridge maps local user identities onto accounts of a remote
// tabletop-RPG backend API: it obtains, caches, and lazily refreshes bearer
// tokens, enforces a failed-login lockout window, and answers the single
// question presentation code cares about: does this identity have a usable
// remote session right now.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], [Gate], the error taxonomy, and the audit/metrics types.
// Supporting packages hold the mechanics: remote (the backend HTTP client),
// store (Redis persistence for tokens and account links), token (bearer
// claim decoding), and internal/limiters (the lockout guard).
//
// # Architecture boundaries
//
//   - The engine never validates token signatures; the backend owns the
//     keys. Tokens are decoded only to schedule refreshes.
//   - All durable state (tokens, links, lockout counters) lives in Redis, so
//     any number of request-handling processes can share one engine
//     configuration.
//   - No secret material (passwords, raw bearer tokens) is ever written to
//     audit events or error strings.
//
// # Failure model
//
// Expected business failures (bad credentials, lockout, duplicate account,
// field validation, unreachable backend) are typed returns matched with
// errors.Is. Storage failures are wrapped in [ErrStoreUnavailable] and kept
// out of the auth taxonomy. Nothing in this package panics for an expected
// failure mode.
package gamebridge
