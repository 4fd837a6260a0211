// Package authclient provides a client-side session and authorization core:
// a two-step OTP login state machine, a password-recovery state machine, a
// pluggable token store, and a role-based route authorization gate.
//
// The package is designed for concurrent callers: Engine methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authclient is the public surface. It exposes [Engine], [Builder], [Config],
// [Backend], [TokenStore], and value types (SessionState, Decision, etc.).
// Token persistence lives in the store sub-package, the countdown primitive
// in countdown, the OTP entry buffer in otpfield, and the HTTP backend
// adapter in httpapi. None of them import authclient back except httpapi,
// which implements [Backend] and is never imported from here.
//
// # What this package must NOT do
//
//   - Validate OTP codes, decide challenge expiry, or mint tokens — the
//     server is the sole authority on all of those.
//   - Persist pre-auth or reset tokens. Challenge state is process-local and
//     a restart returns the owning flow to its first step.
//   - Surface CheckAuth token-validation failures to callers; an invalid
//     stored session degrades silently to the unauthenticated state.
package authclient
