package authclient

import (
	"context"
	"time"

	"github.com/mkovrig/authclient/store"
)

// Role is the server-issued authorization role carried by a [User]. The
// client never computes or upgrades a role locally.
type Role string

const (
	// RoleUser is an exported constant or variable used by the session engine.
	RoleUser Role = "user"
	// RoleAdmin is an exported constant or variable used by the session engine.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin is an exported constant or variable used by the session engine.
	RoleSuperAdmin Role = "super_admin"
)

// AccountStatus represents the lifecycle state of a user account as
// reported by the backend.
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the session engine.
	AccountActive AccountStatus = iota
	// AccountBlocked is an exported constant or variable used by the session engine.
	AccountBlocked
	// AccountDeactivated is an exported constant or variable used by the session engine.
	AccountDeactivated
)

// OTPSource identifies the delivery channel the backend used for a
// one-time passcode.
type OTPSource uint8

const (
	// OTPSourceEmail is an exported constant or variable used by the session engine.
	OTPSourceEmail OTPSource = iota
	// OTPSourceWelcomeEmail is an exported constant or variable used by the session engine.
	OTPSourceWelcomeEmail
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s OTPSource) String() string {
	switch s {
	case OTPSourceWelcomeEmail:
		return "welcome_email"
	default:
		return "email"
	}
}

// User is the authenticated identity returned by the backend. All fields
// are server-issued facts; the engine only copies them.
type User struct {
	ID                 string
	Identifier         string
	Email              string
	Role               Role
	Status             AccountStatus
	MustChangePassword bool
}

// LoginChallenge is returned by [Backend.Login] when the credential pair
// is accepted and an OTP step is pending.
type LoginChallenge struct {
	PreAuthToken      PreAuthToken
	ExpiresIn         int
	ResendAvailableIn int
	Source            OTPSource
}

// ChallengeWindow is returned by the resend operations. It re-arms the
// expiry and cooldown of the challenge currently held.
type ChallengeWindow struct {
	ExpiresIn         int
	ResendAvailableIn int
}

// SessionGrant is returned by [Backend.VerifyOTP] on successful code
// verification. It carries the full token pair and the identity snapshot.
type SessionGrant struct {
	AccessToken        string
	RefreshToken       string
	ExpiresIn          int
	MustChangePassword bool
	User               User
}

// TokenGrant is returned by [Backend.Refresh].
type TokenGrant struct {
	AccessToken string
	ExpiresIn   int
}

// ResetGrant is returned by [Backend.VerifyResetOTP]. The reset token is
// scoped to the recovery flow and is not interchangeable with a
// [PreAuthToken].
type ResetGrant struct {
	ResetToken ResetToken
	ExpiresIn  int
}

// Backend is the authentication collaborator that callers must implement
// (or satisfy via [httpapi.Client]) to integrate the engine with their
// backend. Implementations map transport failures to [ErrNetworkFailure]
// and server-reported rejections to the sentinel taxonomy in errors.go.
type Backend interface {
	Login(ctx context.Context, identifier, secret string) (*LoginChallenge, error)
	VerifyOTP(ctx context.Context, token PreAuthToken, code string) (*SessionGrant, error)
	ResendOTP(ctx context.Context, token PreAuthToken) (*ChallengeWindow, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, code string) (*ResetGrant, error)
	ResetPassword(ctx context.Context, token ResetToken, newPassword string) error
	ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error
}

// TokenStore is the persistence port for the token pair and the minimal
// rehydration snapshot. Implementations survive process restart; the
// store itself performs no expiry bookkeeping.
type TokenStore interface {
	SetTokens(ctx context.Context, access, refresh string) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SaveSnapshot(ctx context.Context, snap store.Snapshot) error
	Snapshot(ctx context.Context) (store.Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// LoginStage is the current step of the two-step login state machine.
type LoginStage uint8

const (
	// StageCredentials is an exported constant or variable used by the session engine.
	StageCredentials LoginStage = iota
	// StageOTP is an exported constant or variable used by the session engine.
	StageOTP
)

// ResetStage is the current step of the three-step recovery state machine.
type ResetStage uint8

const (
	// ResetStageEmail is an exported constant or variable used by the session engine.
	ResetStageEmail ResetStage = iota
	// ResetStageOTP is an exported constant or variable used by the session engine.
	ResetStageOTP
	// ResetStageNewPassword is an exported constant or variable used by the session engine.
	ResetStageNewPassword
)

// SessionState is a point-in-time copy of the engine's session state,
// consumed by [Authorize] and by views. Loading is true until the first
// [Engine.CheckAuth] completes; the gate must treat it as blocking, never
// as unauthenticated.
type SessionState struct {
	Stage              LoginStage
	Loading            bool
	Authenticated      bool
	MustChangePassword bool
	User               User

	OTPSource    OTPSource
	OTPExpiresAt time.Time
	ResendAfter  time.Time
}

// RecoveryState is a point-in-time copy of the password-recovery machine.
type RecoveryState struct {
	Stage        ResetStage
	Email        string
	OTPExpiresAt time.Time
	ResendAfter  time.Time
}
