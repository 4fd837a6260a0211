// Package otpfield models a segmented one-time-passcode input as pure
// state: N digit cells plus a focused cell index, with insert, backspace,
// arrow, paste, and clear transitions.
//
// # Design
//
// The field is UI-framework-agnostic. It never validates the code it
// holds; the composed digits are read via [Field.Value] and submitted
// through the session engine, which defers validity to the server.
//
// # What this package must NOT do
//
//   - Perform I/O or talk to the backend.
//   - Auto-submit on completion. Submission is an explicit caller action.
package otpfield
