package authclient

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	e.loginBusy = true
	e.mu.Unlock()

	refresh, err := e.tokens.RefreshToken(ctx)
	if err != nil {
		e.mu.Lock()
		e.loginBusy = false
		e.mu.Unlock()
		return storeErr(err)
	}
	if refresh == "" {
		e.mu.Lock()
		e.loginBusy = false
		e.mu.Unlock()
		return ErrNotAuthenticated
	}

	grant, err := e.backend.Refresh(ctx, refresh)
	if err != nil {
		if errors.Is(err, ErrRefreshInvalid) || errors.Is(err, ErrInvalidChallenge) {
			// The refresh token is dead; the whole session goes with it.
			_ = e.tokens.Clear(ctx)
			e.mu.Lock()
			e.loginBusy = false
			e.resetSessionLocked()
			e.loading = false
			e.mu.Unlock()
		} else {
			e.mu.Lock()
			e.loginBusy = false
			e.mu.Unlock()
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, auditFlowSession, false, "", err, nil)
		return err
	}

	// The refresh token itself is not rotated by this endpoint; only the
	// access token is replaced.
	setErr := e.tokens.SetTokens(ctx, grant.AccessToken, refresh)

	e.mu.Lock()
	e.loginBusy = false
	e.mu.Unlock()

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, auditFlowSession, true, "", nil, nil)
	return storeErr(setErr)
}

// AccessTokenExpiresAt describes the accesstokenexpiresat operation and its observable behavior.
//
// AccessTokenExpiresAt may return an error when input validation, dependency calls, or security checks fail.
// AccessTokenExpiresAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AccessTokenExpiresAt(ctx context.Context) (time.Time, error) {
	access, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return time.Time{}, storeErr(err)
	}
	if access == "" {
		return time.Time{}, ErrNotAuthenticated
	}
	return accessTokenExpiry(access)
}

// NeedsRefresh describes the needsrefresh operation and its observable behavior.
//
// NeedsRefresh may return an error when input validation, dependency calls, or security checks fail.
// NeedsRefresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NeedsRefresh(ctx context.Context, leeway time.Duration) (bool, error) {
	expiresAt, err := e.AccessTokenExpiresAt(ctx)
	if err != nil {
		return false, err
	}
	return expiresAt.Before(e.clock.Now().Add(leeway)), nil
}

// accessTokenExpiry reads the exp claim without verifying the signature.
// The client holds no signing key; validity is always the server's call,
// the expiry is only used to schedule refreshes ahead of rejection.
func accessTokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, ErrRefreshInvalid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrRefreshInvalid
	}
	return exp.Time, nil
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	e.mu.Lock()
	if e.loginBusy {
		e.mu.Unlock()
		return ErrOperationInFlight
	}
	if !e.authenticated {
		e.mu.Unlock()
		return ErrNotAuthenticated
	}
	e.loginBusy = true
	e.mu.Unlock()

	access, err := e.tokens.AccessToken(ctx)
	if err != nil || access == "" {
		e.mu.Lock()
		e.loginBusy = false
		e.mu.Unlock()
		if err != nil {
			return storeErr(err)
		}
		return ErrNotAuthenticated
	}

	err = e.backend.ChangePassword(ctx, access, currentPassword, newPassword)

	e.mu.Lock()
	e.loginBusy = false
	if err != nil {
		e.mu.Unlock()
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChange, auditFlowSession, false, "", err, nil)
		return err
	}
	e.mustChangePassword = false
	e.user.MustChangePassword = false
	user := e.user
	e.mu.Unlock()

	_ = e.tokens.SaveSnapshot(ctx, snapshotFromUser(user, false))

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChange, auditFlowSession, true, user.ID, nil, nil)
	return nil
}
