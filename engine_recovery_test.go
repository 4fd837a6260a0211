package authclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func requestReset(t *testing.T, engine *Engine) {
	t.Helper()
	if err := engine.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageOTP {
		t.Fatalf("expected ResetStageOTP, got %v", got)
	}
}

func verifyReset(t *testing.T, engine *Engine) {
	t.Helper()
	requestReset(t, engine)
	if err := engine.VerifyResetOTP(context.Background(), "424242"); err != nil {
		t.Fatalf("VerifyResetOTP failed: %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageNewPassword {
		t.Fatalf("expected ResetStageNewPassword, got %v", got)
	}
}

func TestRequestPasswordResetArmsWindow(t *testing.T) {
	engine, backend, clock := newTestEngine(t)
	requestReset(t, engine)

	if backend.forgotCalls != 1 {
		t.Fatalf("expected one forgot-password call, got %d", backend.forgotCalls)
	}
	st := engine.RecoveryStateView()
	if st.Email != "alice@example.com" {
		t.Fatalf("expected held email, got %q", st.Email)
	}
	if want := clock.Now().Add(5 * time.Minute); !st.OTPExpiresAt.Equal(want) {
		t.Fatalf("expected window expiry %v, got %v", want, st.OTPExpiresAt)
	}
}

func TestVerifyResetOTPWrongCodeKeepsStage(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	requestReset(t, engine)

	if err := engine.VerifyResetOTP(context.Background(), "000000"); !errors.Is(err, ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge, got %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageOTP {
		t.Fatalf("expected to stay at ResetStageOTP, got %v", got)
	}

	if err := engine.VerifyResetOTP(context.Background(), "424242"); err != nil {
		t.Fatalf("VerifyResetOTP retry failed: %v", err)
	}
}

func TestResetPasswordSuccessDoesNotAuthenticate(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	verifyReset(t, engine)

	if err := engine.ResetPassword(context.Background(), "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	rst := engine.RecoveryStateView()
	if rst.Stage != ResetStageEmail || rst.Email != "" {
		t.Fatalf("expected recovery machine back at its start, got %+v", rst)
	}
	// Recovery never mints a session; the user signs in explicitly.
	if engine.State().Authenticated {
		t.Fatal("expected no session after password reset")
	}
	access, _ := engine.tokens.AccessToken(context.Background())
	if access != "" {
		t.Fatal("expected no tokens after password reset")
	}
}

func TestResetPasswordTokenConsumedOnce(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	verifyReset(t, engine)

	if err := engine.ResetPassword(context.Background(), "new-password-456"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if err := engine.ResetPassword(context.Background(), "another-password"); !errors.Is(err, ErrResetNotVerified) {
		t.Fatalf("expected ErrResetNotVerified after consumption, got %v", err)
	}
}

func TestResetPasswordRejectedTokenForcesRestart(t *testing.T) {
	engine, backend, _ := newTestEngine(t)
	verifyReset(t, engine)

	backend.resetErr = ErrInvalidChallenge
	if err := engine.ResetPassword(context.Background(), "new-password-456"); !errors.Is(err, ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge, got %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageEmail {
		t.Fatalf("expected restart from ResetStageEmail, got %v", got)
	}
}

func TestResetPasswordTransientFailureKeepsToken(t *testing.T) {
	engine, backend, _ := newTestEngine(t)
	verifyReset(t, engine)

	backend.resetErr = ErrNetworkFailure
	if err := engine.ResetPassword(context.Background(), "new-password-456"); !errors.Is(err, ErrNetworkFailure) {
		t.Fatalf("expected ErrNetworkFailure, got %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageNewPassword {
		t.Fatalf("expected token kept for retry, got stage %v", got)
	}

	// The token outlived the transient failure; a retry succeeds.
	backend.resetErr = nil
	if err := engine.ResetPassword(context.Background(), "new-password-456"); err != nil {
		t.Fatalf("ResetPassword retry failed: %v", err)
	}
}

func TestResendResetOTPCooldown(t *testing.T) {
	engine, backend, clock := newTestEngine(t)
	requestReset(t, engine)

	if err := engine.ResendResetOTP(context.Background()); !errors.Is(err, ErrResendCooldown) {
		t.Fatalf("expected ErrResendCooldown, got %v", err)
	}

	clock.Advance(61 * time.Second)
	if err := engine.ResendResetOTP(context.Background()); err != nil {
		t.Fatalf("ResendResetOTP failed: %v", err)
	}
	if backend.forgotCalls != 2 {
		t.Fatalf("expected a second forgot-password call, got %d", backend.forgotCalls)
	}
}

func TestResendResetOTPInvalidatesPriorCode(t *testing.T) {
	engine, backend, clock := newTestEngine(t)
	requestReset(t, engine)

	staleCode := backend.resetCode()

	clock.Advance(61 * time.Second)
	if err := engine.ResendResetOTP(context.Background()); err != nil {
		t.Fatalf("ResendResetOTP failed: %v", err)
	}

	if err := engine.VerifyResetOTP(context.Background(), staleCode); !errors.Is(err, ErrInvalidChallenge) {
		t.Fatalf("expected ErrInvalidChallenge for the pre-resend code, got %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageOTP {
		t.Fatalf("expected to stay in ResetStageOTP after stale code, got %v", got)
	}

	if err := engine.VerifyResetOTP(context.Background(), backend.resetCode()); err != nil {
		t.Fatalf("VerifyResetOTP with the replacement code failed: %v", err)
	}
	if got := engine.RecoveryStateView().Stage; got != ResetStageNewPassword {
		t.Fatalf("expected ResetStageNewPassword, got %v", got)
	}
}

func TestAbandonResetDiscardsLocally(t *testing.T) {
	engine, backend, _ := newTestEngine(t)
	verifyReset(t, engine)

	calls := backend.forgotCalls
	if err := engine.AbandonReset(context.Background()); err != nil {
		t.Fatalf("AbandonReset failed: %v", err)
	}
	rst := engine.RecoveryStateView()
	if rst.Stage != ResetStageEmail || rst.Email != "" {
		t.Fatalf("expected clean recovery state, got %+v", rst)
	}
	if backend.forgotCalls != calls {
		t.Fatal("expected no server call on abandon")
	}

	if err := engine.ResetPassword(context.Background(), "x"); !errors.Is(err, ErrResetNotVerified) {
		t.Fatalf("expected ErrResetNotVerified after abandon, got %v", err)
	}
}

func TestRecoveryStateMachineOrdering(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.VerifyResetOTP(context.Background(), "424242"); !errors.Is(err, ErrResetNotRequested) {
		t.Fatalf("expected ErrResetNotRequested, got %v", err)
	}
	if err := engine.ResetPassword(context.Background(), "x"); !errors.Is(err, ErrResetNotVerified) {
		t.Fatalf("expected ErrResetNotVerified, got %v", err)
	}
	if err := engine.ResendResetOTP(context.Background()); !errors.Is(err, ErrResetNotRequested) {
		t.Fatalf("expected ErrResetNotRequested, got %v", err)
	}
	if err := engine.AbandonReset(context.Background()); !errors.Is(err, ErrResetNotRequested) {
		t.Fatalf("expected ErrResetNotRequested, got %v", err)
	}
}

func TestRecoveryIndependentOfLoginMachine(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	loginToOTP(t, engine)

	// Both machines hold a challenge at once; neither interferes with
	// the other's token namespace.
	requestReset(t, engine)
	if err := engine.VerifyResetOTP(context.Background(), "424242"); err != nil {
		t.Fatalf("VerifyResetOTP failed: %v", err)
	}

	if got := engine.State().Stage; got != StageOTP {
		t.Fatalf("expected login machine untouched at StageOTP, got %v", got)
	}
	if err := engine.VerifyOTP(context.Background(), "424242"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
}
