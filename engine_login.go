package authclient

import (
	"context"
)

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier, secret string) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.stage != StageCredentials {
		e.mu.Unlock()
		return ErrLoginPending
	}
	e.loginBusy = true
	e.mu.Unlock()

	ch, err := e.backend.Login(ctx, identifier, secret)

	e.mu.Lock()
	e.loginBusy = false
	if err != nil {
		e.mu.Unlock()
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, auditFlowLogin, false, "", err, func() map[string]string {
			return map[string]string{"identifier": identifier}
		})
		return err
	}

	expiresIn := ch.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int(e.config.OTP.DefaultExpiry.Seconds())
	}
	resendIn := ch.ResendAvailableIn
	if resendIn <= 0 {
		resendIn = int(e.config.OTP.DefaultCooldown.Seconds())
	}

	e.loginChallenge = newChallenge(ch.PreAuthToken, ch.Source, e.clock.Now(), expiresIn, resendIn)
	e.stage = StageOTP
	e.mu.Unlock()

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, auditFlowLogin, true, "", nil, func() map[string]string {
		return map[string]string{"identifier": identifier, "otp_source": ch.Source.String()}
	})
	return nil
}

// VerifyOTP describes the verifyotp operation and its observable behavior.
//
// VerifyOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyOTP(ctx context.Context, code string) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.stage != StageOTP {
		e.mu.Unlock()
		return ErrNotAwaitingOTP
	}
	if e.loginChallenge == nil || e.loginChallenge.token == "" {
		e.mu.Unlock()
		return ErrNoActiveChallenge
	}
	token := e.loginChallenge.token
	e.loginBusy = true
	e.mu.Unlock()

	// The server owns challenge validity. Local expiry is never consulted
	// here: a verify that completes after the visible countdown ran out is
	// honored when the server accepts it.
	grant, err := e.backend.VerifyOTP(ctx, token, code)
	if err != nil {
		e.mu.Lock()
		e.loginBusy = false
		// Wrong or expired codes leave the challenge in place so the
		// user can retry or resend. Only the server retires it.
		e.mu.Unlock()
		e.metricInc(MetricOTPVerifyFailure)
		e.emitAudit(ctx, auditEventOTPVerifyFailure, auditFlowLogin, false, "", err, nil)
		return err
	}

	// Persistence is best effort: a failed write only costs rehydration
	// on the next launch, the in-process session is already valid.
	_ = e.tokens.SetTokens(ctx, grant.AccessToken, grant.RefreshToken)
	_ = e.tokens.SaveSnapshot(ctx, snapshotFromUser(grant.User, grant.MustChangePassword))

	e.mu.Lock()
	e.loginBusy = false
	e.loginChallenge = nil
	e.stage = StageCredentials
	e.authenticated = true
	e.loading = false
	e.user = grant.User
	e.mustChangePassword = grant.MustChangePassword
	userID := grant.User.ID
	e.mu.Unlock()

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerifySuccess, auditFlowLogin, true, userID, nil, nil)
	return nil
}

// ResendOTP describes the resendotp operation and its observable behavior.
//
// ResendOTP may return an error when input validation, dependency calls, or security checks fail.
// ResendOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResendOTP(ctx context.Context) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.stage != StageOTP {
		e.mu.Unlock()
		return ErrNotAwaitingOTP
	}
	if e.loginChallenge == nil || e.loginChallenge.token == "" {
		e.mu.Unlock()
		return ErrNoActiveChallenge
	}
	if e.config.OTP.EnforceResendCooldown && !e.loginChallenge.resendAllowed(e.clock.Now()) {
		e.mu.Unlock()
		return ErrResendCooldown
	}
	token := e.loginChallenge.token
	e.loginBusy = true
	e.mu.Unlock()

	win, err := e.backend.ResendOTP(ctx, token)

	e.mu.Lock()
	e.loginBusy = false
	if err != nil {
		e.mu.Unlock()
		e.emitAudit(ctx, auditEventOTPResend, auditFlowLogin, false, "", err, nil)
		return err
	}

	expiresIn := win.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int(e.config.OTP.DefaultExpiry.Seconds())
	}
	resendIn := win.ResendAvailableIn
	if resendIn <= 0 {
		resendIn = int(e.config.OTP.DefaultCooldown.Seconds())
	}
	if e.loginChallenge != nil {
		e.loginChallenge.rearm(e.clock.Now(), expiresIn, resendIn)
	}
	e.mu.Unlock()

	e.metricInc(MetricOTPResend)
	e.emitAudit(ctx, auditEventOTPResend, auditFlowLogin, true, "", nil, nil)
	return nil
}

// CancelLogin describes the cancellogin operation and its observable behavior.
//
// CancelLogin may return an error when input validation, dependency calls, or security checks fail.
// CancelLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CancelLogin(ctx context.Context) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.stage != StageOTP {
		e.mu.Unlock()
		return ErrNotAwaitingOTP
	}
	// Local discard only. The server-side challenge dies by its own TTL;
	// there is no cancellation endpoint to call.
	e.loginChallenge = nil
	e.stage = StageCredentials
	e.mu.Unlock()

	e.metricInc(MetricLoginCancelled)
	e.emitAudit(ctx, auditEventLoginCancelled, auditFlowLogin, true, "", nil, nil)
	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	e.loginBusy = true
	e.mu.Unlock()

	// Server-side revoke is best effort. The user's intent to leave
	// always succeeds locally, whatever the network does.
	refresh, _ := e.tokens.RefreshToken(ctx)
	if refresh != "" {
		_ = e.backend.Logout(ctx, refresh)
	}
	clearErr := e.tokens.Clear(ctx)

	e.mu.Lock()
	e.loginBusy = false
	e.resetSessionLocked()
	e.loading = false
	e.mu.Unlock()

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, auditFlowSession, true, "", nil, nil)
	return storeErr(clearErr)
}

// CheckAuth describes the checkauth operation and its observable behavior.
//
// CheckAuth may return an error when input validation, dependency calls, or security checks fail.
// CheckAuth does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckAuth(ctx context.Context) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	e.loginBusy = true
	e.mu.Unlock()

	access, err := e.tokens.AccessToken(ctx)
	if err != nil || access == "" {
		e.mu.Lock()
		e.loginBusy = false
		e.authenticated = false
		e.user = User{}
		e.mustChangePassword = false
		e.loading = false
		e.mu.Unlock()
		if err != nil {
			return storeErr(err)
		}
		return nil
	}

	user, err := e.backend.CurrentUser(ctx, access)
	if err != nil {
		// Any validation failure degrades to a clean unauthenticated
		// state. Expired or revoked tokens are not an error the caller
		// can act on, so nothing is surfaced.
		_ = e.tokens.Clear(ctx)
		e.mu.Lock()
		e.loginBusy = false
		e.authenticated = false
		e.user = User{}
		e.mustChangePassword = false
		e.loading = false
		e.mu.Unlock()
		e.metricInc(MetricCheckAuthFallback)
		e.emitAudit(ctx, auditEventCheckAuthFallback, auditFlowSession, false, "", err, nil)
		return nil
	}

	_ = e.tokens.SaveSnapshot(ctx, snapshotFromUser(*user, user.MustChangePassword))

	e.mu.Lock()
	e.loginBusy = false
	e.authenticated = true
	e.user = *user
	e.mustChangePassword = user.MustChangePassword
	e.loading = false
	e.mu.Unlock()

	e.metricInc(MetricCheckAuthSuccess)
	e.emitAudit(ctx, auditEventCheckAuthSuccess, auditFlowSession, true, user.ID, nil, nil)
	return nil
}
