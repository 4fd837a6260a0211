package authclient

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mkovrig/authclient/countdown"
	"github.com/mkovrig/authclient/store"
)

// fakeClock is a manually advanced clock for deterministic cooldown and
// expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(time.Duration) countdown.Ticker {
	return &fakeTicker{ch: make(chan time.Time)}
}

type fakeTicker struct{ ch chan time.Time }

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// fakeBackend scripts server behavior per call. Zero values answer the
// happy path for the fixture user alice.
type fakeBackend struct {
	mu sync.Mutex

	loginErr   error
	verifyErr  error
	resendErr  error
	refreshErr error
	logoutErr  error
	currentErr error
	forgotErr  error
	resetVErr  error
	resetErr   error
	changeErr  error

	mustChangePassword bool
	role               Role

	issuedToken     PreAuthToken
	lastVerifyTok   PreAuthToken
	lastResendTok   PreAuthToken
	forgotCalls     int
	logoutCalls     int
	resetConsumed   ResetToken
	currentUserTok  string
	otpGeneration   int
	resetGeneration int
	expiresIn       int
	resendIn        int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{role: RoleUser, expiresIn: 300, resendIn: 60}
}

// otpCode is the code the server would deliver for the current login
// challenge. Each login or resend bumps the generation, so a code captured
// before a resend no longer verifies. The first generation is "424242".
func (f *fakeBackend) otpCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otpCodeLocked()
}

func (f *fakeBackend) otpCodeLocked() string {
	return fmt.Sprintf("%06d", 424241+f.otpGeneration)
}

// resetCode mirrors otpCode for the recovery flow.
func (f *fakeBackend) resetCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetCodeLocked()
}

func (f *fakeBackend) resetCodeLocked() string {
	return fmt.Sprintf("%06d", 424241+f.resetGeneration)
}

func (f *fakeBackend) user() User {
	return User{
		ID:                 "u-1",
		Identifier:         "alice",
		Email:              "alice@example.com",
		Role:               f.role,
		Status:             AccountActive,
		MustChangePassword: f.mustChangePassword,
	}
}

func (f *fakeBackend) Login(_ context.Context, identifier, secret string) (*LoginChallenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if identifier != "alice" || secret != "correct-password-123" {
		return nil, ErrInvalidCredentials
	}
	f.otpGeneration++
	f.issuedToken = PreAuthToken("pre-auth-1")
	return &LoginChallenge{
		PreAuthToken:      f.issuedToken,
		ExpiresIn:         f.expiresIn,
		ResendAvailableIn: f.resendIn,
		Source:            OTPSourceEmail,
	}, nil
}

func (f *fakeBackend) VerifyOTP(_ context.Context, token PreAuthToken, code string) (*SessionGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVerifyTok = token
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if token != f.issuedToken || code != f.otpCodeLocked() {
		return nil, ErrInvalidChallenge
	}
	f.issuedToken = ""
	return &SessionGrant{
		AccessToken:        "access-1",
		RefreshToken:       "refresh-1",
		ExpiresIn:          900,
		MustChangePassword: f.mustChangePassword,
		User:               f.user(),
	}, nil
}

func (f *fakeBackend) ResendOTP(_ context.Context, token PreAuthToken) (*ChallengeWindow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastResendTok = token
	if f.resendErr != nil {
		return nil, f.resendErr
	}
	if token != f.issuedToken {
		return nil, ErrInvalidChallenge
	}
	f.otpGeneration++
	return &ChallengeWindow{ExpiresIn: f.expiresIn, ResendAvailableIn: f.resendIn}, nil
}

func (f *fakeBackend) Refresh(_ context.Context, refreshToken string) (*TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	if refreshToken != "refresh-1" {
		return nil, ErrRefreshInvalid
	}
	return &TokenGrant{AccessToken: "access-2", ExpiresIn: 900}, nil
}

func (f *fakeBackend) Logout(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeBackend) CurrentUser(_ context.Context, accessToken string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentUserTok = accessToken
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	u := f.user()
	return &u, nil
}

func (f *fakeBackend) ForgotPassword(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forgotErr != nil {
		return f.forgotErr
	}
	f.forgotCalls++
	f.resetGeneration++
	return nil
}

func (f *fakeBackend) VerifyResetOTP(_ context.Context, email, code string) (*ResetGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetVErr != nil {
		return nil, f.resetVErr
	}
	if email != "alice@example.com" || code != f.resetCodeLocked() {
		return nil, ErrInvalidChallenge
	}
	return &ResetGrant{ResetToken: "reset-1", ExpiresIn: 600}, nil
}

func (f *fakeBackend) ResetPassword(_ context.Context, token ResetToken, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	if token != "reset-1" || f.resetConsumed == token {
		return ErrInvalidChallenge
	}
	f.resetConsumed = token
	return nil
}

func (f *fakeBackend) ChangePassword(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changeErr
}

func newTestEngine(t *testing.T) (*Engine, *fakeBackend, *fakeClock) {
	t.Helper()

	backend := newFakeBackend()
	clock := newFakeClock()
	engine, err := New().
		WithBackend(backend).
		WithTokenStore(store.NewMemory()).
		WithClock(clock).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, backend, clock
}

// loginToOTP drives the engine through the credential step.
func loginToOTP(t *testing.T, engine *Engine) {
	t.Helper()
	if err := engine.Login(context.Background(), "alice", "correct-password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := engine.State().Stage; got != StageOTP {
		t.Fatalf("expected StageOTP after login, got %v", got)
	}
}

// authenticate drives the full happy path to an authenticated session.
func authenticate(t *testing.T, engine *Engine) {
	t.Helper()
	loginToOTP(t, engine)
	if err := engine.VerifyOTP(context.Background(), "424242"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if !engine.State().Authenticated {
		t.Fatal("expected authenticated session")
	}
}
