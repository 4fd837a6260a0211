package authclient

import (
	"context"
	"errors"
)

// RequestPasswordReset describes the requestpasswordreset operation and its observable behavior.
//
// RequestPasswordReset may return an error when input validation, dependency calls, or security checks fail.
// RequestPasswordReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	e.mu.Lock()
	if e.recoveryBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.resetStage != ResetStageEmail {
		e.mu.Unlock()
		return ErrResetNotRequested
	}
	e.recoveryBusy = true
	e.mu.Unlock()

	// The backend answers success-shaped whether or not the address
	// exists, so only transport failures come back here. Enumeration
	// resistance is the server's job; the client just does not leak
	// anything extra through its state machine.
	err := e.backend.ForgotPassword(ctx, email)

	e.mu.Lock()
	e.recoveryBusy = false
	if err != nil {
		e.mu.Unlock()
		return err
	}

	expiresIn := int(e.config.Recovery.DefaultExpiry.Seconds())
	resendIn := int(e.config.Recovery.DefaultCooldown.Seconds())
	e.resetEmail = email
	e.resetWindow = newChallenge(ResetToken(""), OTPSourceEmail, e.clock.Now(), expiresIn, resendIn)
	e.resetToken = ""
	e.resetStage = ResetStageOTP
	e.mu.Unlock()

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventResetRequest, auditFlowRecovery, true, "", nil, func() map[string]string {
		return map[string]string{"email": email}
	})
	return nil
}

// VerifyResetOTP describes the verifyresetotp operation and its observable behavior.
//
// VerifyResetOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyResetOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyResetOTP(ctx context.Context, code string) error {
	e.mu.Lock()
	if e.recoveryBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.resetStage != ResetStageOTP {
		e.mu.Unlock()
		return ErrResetNotRequested
	}
	email := e.resetEmail
	e.recoveryBusy = true
	e.mu.Unlock()

	grant, err := e.backend.VerifyResetOTP(ctx, email, code)

	e.mu.Lock()
	e.recoveryBusy = false
	if err != nil {
		// Stay on the OTP step so the user can retype or resend.
		e.mu.Unlock()
		e.metricInc(MetricResetVerifyFailure)
		e.emitAudit(ctx, auditEventResetVerifyFailure, auditFlowRecovery, false, "", err, nil)
		return err
	}

	e.resetToken = grant.ResetToken
	e.resetWindow = nil
	e.resetStage = ResetStageNewPassword
	e.mu.Unlock()

	e.metricInc(MetricResetVerifySuccess)
	e.emitAudit(ctx, auditEventResetVerifySuccess, auditFlowRecovery, true, "", nil, nil)
	return nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, newPassword string) error {
	e.mu.Lock()
	if e.recoveryBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.resetStage != ResetStageNewPassword {
		e.mu.Unlock()
		return ErrResetNotVerified
	}
	if e.resetToken == "" {
		e.mu.Unlock()
		return ErrNoActiveChallenge
	}
	token := e.resetToken
	e.recoveryBusy = true
	e.mu.Unlock()

	err := e.backend.ResetPassword(ctx, token, newPassword)

	e.mu.Lock()
	e.recoveryBusy = false
	if err != nil {
		// A rejected token is gone for good; force the user back to the
		// start. Transport failures keep the token so a retry can reuse
		// it within its server-side lifetime.
		if errors.Is(err, ErrInvalidChallenge) {
			e.resetToken = ""
			e.resetEmail = ""
			e.resetWindow = nil
			e.resetStage = ResetStageEmail
		}
		e.mu.Unlock()
		e.metricInc(MetricResetConfirmFailure)
		e.emitAudit(ctx, auditEventResetConfirm, auditFlowRecovery, false, "", err, nil)
		return err
	}

	// The reset token is single-use; the machine winds back to its start
	// and the user signs in with the new password. No session is minted.
	e.resetToken = ""
	e.resetEmail = ""
	e.resetWindow = nil
	e.resetStage = ResetStageEmail
	e.mu.Unlock()

	e.metricInc(MetricResetConfirmSuccess)
	e.emitAudit(ctx, auditEventResetConfirm, auditFlowRecovery, true, "", nil, nil)
	return nil
}

// ResendResetOTP describes the resendresetotp operation and its observable behavior.
//
// ResendResetOTP may return an error when input validation, dependency calls, or security checks fail.
// ResendResetOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResendResetOTP(ctx context.Context) error {
	e.mu.Lock()
	if e.recoveryBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.resetStage != ResetStageOTP {
		e.mu.Unlock()
		return ErrResetNotRequested
	}
	if e.resetWindow != nil && e.config.OTP.EnforceResendCooldown && !e.resetWindow.resendAllowed(e.clock.Now()) {
		e.mu.Unlock()
		return ErrResendCooldown
	}
	email := e.resetEmail
	e.recoveryBusy = true
	e.mu.Unlock()

	// Re-requesting for the same address issues a fresh code and
	// invalidates the previous one server-side.
	err := e.backend.ForgotPassword(ctx, email)

	e.mu.Lock()
	e.recoveryBusy = false
	if err != nil {
		e.mu.Unlock()
		return err
	}

	expiresIn := int(e.config.Recovery.DefaultExpiry.Seconds())
	resendIn := int(e.config.Recovery.DefaultCooldown.Seconds())
	if e.resetWindow != nil {
		e.resetWindow.rearm(e.clock.Now(), expiresIn, resendIn)
	} else {
		e.resetWindow = newChallenge(ResetToken(""), OTPSourceEmail, e.clock.Now(), expiresIn, resendIn)
	}
	e.mu.Unlock()

	e.metricInc(MetricResetRequest)
	e.emitAudit(ctx, auditEventResetRequest, auditFlowRecovery, true, "", nil, func() map[string]string {
		return map[string]string{"email": email, "resend": "true"}
	})
	return nil
}

// AbandonReset describes the abandonreset operation and its observable behavior.
//
// AbandonReset may return an error when input validation, dependency calls, or security checks fail.
// AbandonReset does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AbandonReset(ctx context.Context) error {
	e.mu.Lock()
	if e.recoveryBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if e.resetStage == ResetStageEmail {
		e.mu.Unlock()
		return ErrResetNotRequested
	}
	// Backward navigation is purely local. Whatever code or token was
	// outstanding expires server-side on its own.
	e.resetToken = ""
	e.resetEmail = ""
	e.resetWindow = nil
	e.resetStage = ResetStageEmail
	e.mu.Unlock()

	e.emitAudit(ctx, auditEventResetAbandoned, auditFlowRecovery, true, "", nil, nil)
	return nil
}
