// Package countdown provides a deadline-based, restartable one-second
// countdown for OTP expiry and resend-cooldown displays.
//
// # Design
//
// A [Countdown] holds one absolute deadline and recomputes the remaining
// time from it on every tick, so interval drift never accumulates. Each
// Start is an activation with its own generation; the expiry callback of
// an activation fires exactly once, and restarting or stopping suppresses
// it. The [Clock] and [Ticker] seams exist so tests advance time manually.
//
// # What this package must NOT do
//
//   - Decide challenge validity. The deadline drives display only; the
//     server remains the authority on whether a code is still acceptable.
//   - Leak timers. Every exit path releases the underlying ticker.
package countdown
