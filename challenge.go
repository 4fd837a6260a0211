package authclient

import "time"

// PreAuthToken is the opaque receipt issued after credential verification,
// exchanged for a session on successful OTP entry. It is valid only within
// the login flow.
type PreAuthToken string

// ResetToken is the opaque receipt issued after reset-OTP verification,
// consumed exactly once by [Engine.ResetPassword]. It is valid only within
// the recovery flow.
type ResetToken string

// tokenKind restricts challenge parameterization to the two challenge
// token namespaces. Holding the namespace in the type keeps a reset token
// from ever flowing into the login flow or vice versa.
type tokenKind interface {
	PreAuthToken | ResetToken
}

// challenge is the transient OTP window held by a state machine between
// issuance and consumption. It is process state only and is never
// persisted; a reload restarts the owning flow from its first step.
type challenge[T tokenKind] struct {
	token       T
	source      OTPSource
	expiresAt   time.Time
	resendAfter time.Time
}

func newChallenge[T tokenKind](token T, source OTPSource, now time.Time, expiresIn, resendIn int) *challenge[T] {
	return &challenge[T]{
		token:       token,
		source:      source,
		expiresAt:   now.Add(time.Duration(expiresIn) * time.Second),
		resendAfter: now.Add(time.Duration(resendIn) * time.Second),
	}
}

// rearm overwrites the expiry and cooldown after a resend. The previous
// OTP is invalid server-side the instant the new window is issued.
func (c *challenge[T]) rearm(now time.Time, expiresIn, resendIn int) {
	c.expiresAt = now.Add(time.Duration(expiresIn) * time.Second)
	c.resendAfter = now.Add(time.Duration(resendIn) * time.Second)
}

func (c *challenge[T]) resendAllowed(now time.Time) bool {
	return !now.Before(c.resendAfter)
}
