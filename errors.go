package authclient

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked is an exported constant or variable used by the session engine.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrAccountDeactivated is an exported constant or variable used by the session engine.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrInvalidChallenge is an exported constant or variable used by the session engine.
	ErrInvalidChallenge = errors.New("invalid or expired challenge")
	// ErrNoActiveChallenge is an exported constant or variable used by the session engine.
	ErrNoActiveChallenge = errors.New("no active challenge held")
	// ErrLoginPending is an exported constant or variable used by the session engine.
	ErrLoginPending = errors.New("login challenge already pending")
	// ErrNotAwaitingOTP is an exported constant or variable used by the session engine.
	ErrNotAwaitingOTP = errors.New("no otp step in progress")
	// ErrResetNotRequested is an exported constant or variable used by the session engine.
	ErrResetNotRequested = errors.New("password reset not requested")
	// ErrResetNotVerified is an exported constant or variable used by the session engine.
	ErrResetNotVerified = errors.New("reset challenge not verified")
	// ErrResendCooldown is an exported constant or variable used by the session engine.
	ErrResendCooldown = errors.New("resend cooldown active")
	// ErrOperationInFlight is an exported constant or variable used by the session engine.
	ErrOperationInFlight = errors.New("operation already in flight")
	// ErrNotAuthenticated is an exported constant or variable used by the session engine.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshInvalid is an exported constant or variable used by the session engine.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrNetworkFailure is an exported constant or variable used by the session engine.
	ErrNetworkFailure = errors.New("network failure")
	// ErrServerError is an exported constant or variable used by the session engine.
	ErrServerError = errors.New("server error")
	// ErrStoreUnavailable is an exported constant or variable used by the session engine.
	ErrStoreUnavailable = errors.New("token store unavailable")
)
