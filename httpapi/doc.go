// Package httpapi implements the authclient backend contract over a JSON
// HTTP API.
//
// # Design
//
// [Client] owns the wire shapes and the mapping from transport failures
// and server error codes onto the engine's sentinel errors; the engine
// never sees an HTTP status. Every request carries an X-Request-ID header,
// taken from the caller's context via [authclient.WithRequestID] when
// present and freshly minted otherwise.
//
// # What this package must NOT do
//
//   - Hold session state. The engine owns the state machines; Client is a
//     stateless transport adapter.
//   - Retry. Callers decide how transient failures are handled.
package httpapi
