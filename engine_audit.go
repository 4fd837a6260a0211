package authclient

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventOTPVerifySuccess   = "otp_verify_success"
	auditEventOTPVerifyFailure   = "otp_verify_failure"
	auditEventOTPResend          = "otp_resend"
	auditEventLoginCancelled     = "login_cancelled"
	auditEventLogout             = "logout"
	auditEventCheckAuthSuccess   = "check_auth_success"
	auditEventCheckAuthFallback  = "check_auth_fallback"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshFailure     = "refresh_failure"
	auditEventResetRequest       = "reset_request"
	auditEventResetVerifySuccess = "reset_verify_success"
	auditEventResetVerifyFailure = "reset_verify_failure"
	auditEventResetConfirm       = "reset_confirm"
	auditEventResetAbandoned     = "reset_abandoned"
	auditEventPasswordChange     = "password_change"
)

const (
	auditFlowLogin    = "login"
	auditFlowSession  = "session"
	auditFlowRecovery = "recovery"
)

// AuditErrorCode defines a public type used by authclient APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountBlocked     AuditErrorCode = "account_blocked"
	auditErrAccountDeactivated AuditErrorCode = "account_deactivated"
	auditErrInvalidChallenge   AuditErrorCode = "invalid_challenge"
	auditErrNoActiveChallenge  AuditErrorCode = "no_active_challenge"
	auditErrStateMachine       AuditErrorCode = "state_machine_violation"
	auditErrResendCooldown     AuditErrorCode = "resend_cooldown"
	auditErrRefreshInvalid     AuditErrorCode = "refresh_invalid"
	auditErrNetwork            AuditErrorCode = "network_failure"
	auditErrStore              AuditErrorCode = "store_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	flow string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Flow:      flow,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountBlocked):
		return auditErrAccountBlocked
	case errors.Is(err, ErrAccountDeactivated):
		return auditErrAccountDeactivated
	case errors.Is(err, ErrInvalidChallenge):
		return auditErrInvalidChallenge
	case errors.Is(err, ErrNoActiveChallenge):
		return auditErrNoActiveChallenge
	case errors.Is(err, ErrLoginPending),
		errors.Is(err, ErrNotAwaitingOTP),
		errors.Is(err, ErrResetNotRequested),
		errors.Is(err, ErrResetNotVerified),
		errors.Is(err, ErrOperationInFlight),
		errors.Is(err, ErrNotAuthenticated):
		return auditErrStateMachine
	case errors.Is(err, ErrResendCooldown):
		return auditErrResendCooldown
	case errors.Is(err, ErrRefreshInvalid):
		return auditErrRefreshInvalid
	case errors.Is(err, ErrNetworkFailure):
		return auditErrNetwork
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStore
	default:
		return auditErrInternal
	}
}
