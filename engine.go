package authclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkovrig/authclient/countdown"
	"github.com/mkovrig/authclient/store"
)

// Engine defines a public type used by authclient APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Session state behind the Engine is mutex-guarded; transitions occur only
// in response to caller actions or completed backend calls, and at most one
// backend call per state machine is in flight at a time.
type Engine struct {
	config  Config
	backend Backend
	tokens  TokenStore
	clock   countdown.Clock
	audit   *auditDispatcher
	metrics *Metrics

	mu sync.Mutex

	// Two-step login machine. The challenge is transient process state
	// and is never persisted.
	stage          LoginStage
	loginChallenge *challenge[PreAuthToken]
	loginBusy      bool

	// Authenticated session. loading stays true until the first
	// CheckAuth completes; the authorization gate blocks on it.
	loading            bool
	authenticated      bool
	user               User
	mustChangePassword bool

	// Three-step recovery machine, in its own token namespace.
	resetStage   ResetStage
	resetEmail   string
	resetWindow  *challenge[ResetToken]
	resetToken   ResetToken
	recoveryBusy bool
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByFlow describes the auditdroppedbyflow operation and its observable behavior.
//
// AuditDroppedByFlow may return an error when input validation, dependency calls, or security checks fail.
// AuditDroppedByFlow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDroppedByFlow() map[string]uint64 {
	if e == nil || e.audit == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByFlow()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// State describes the state operation and its observable behavior.
//
// State may return an error when input validation, dependency calls, or security checks fail.
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := SessionState{
		Stage:              e.stage,
		Loading:            e.loading,
		Authenticated:      e.authenticated,
		MustChangePassword: e.mustChangePassword,
		User:               e.user,
	}
	if e.loginChallenge != nil {
		st.OTPSource = e.loginChallenge.source
		st.OTPExpiresAt = e.loginChallenge.expiresAt
		st.ResendAfter = e.loginChallenge.resendAfter
	}
	return st
}

// RecoveryStateView describes the recoverystateview operation and its observable behavior.
//
// RecoveryStateView may return an error when input validation, dependency calls, or security checks fail.
// RecoveryStateView does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecoveryStateView() RecoveryState {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := RecoveryState{
		Stage: e.resetStage,
		Email: e.resetEmail,
	}
	if e.resetWindow != nil {
		st.OTPExpiresAt = e.resetWindow.expiresAt
		st.ResendAfter = e.resetWindow.resendAfter
	}
	return st
}

// resetSessionLocked drops every piece of session and challenge state,
// both machines included, back to the unauthenticated baseline. Callers
// hold e.mu.
func (e *Engine) resetSessionLocked() {
	e.stage = StageCredentials
	e.loginChallenge = nil
	e.authenticated = false
	e.user = User{}
	e.mustChangePassword = false
	e.resetStage = ResetStageEmail
	e.resetEmail = ""
	e.resetWindow = nil
	e.resetToken = ""
}

// CachedUser returns the identity snapshot persisted by the last
// authenticated session, for instant UI hydration before the first
// CheckAuth completes. The second return value is false when no snapshot
// is held. The snapshot is display data only; it confers no authority.
func (e *Engine) CachedUser(ctx context.Context) (*User, bool, error) {
	snap, ok, err := e.tokens.Snapshot(ctx)
	if err != nil {
		return nil, false, storeErr(err)
	}
	if !ok {
		return nil, false, nil
	}
	user := userFromSnapshot(snap)
	return &user, true, nil
}

// storeErr folds token store failures onto the public sentinel so callers
// match one error regardless of the backing store implementation.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrCorruptRecord) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func snapshotFromUser(user User, mustChangePassword bool) store.Snapshot {
	return store.Snapshot{
		UserID:             user.ID,
		Identifier:         user.Identifier,
		Email:              user.Email,
		Role:               string(user.Role),
		Status:             uint8(user.Status),
		MustChangePassword: mustChangePassword,
	}
}

func userFromSnapshot(snap store.Snapshot) User {
	return User{
		ID:                 snap.UserID,
		Identifier:         snap.Identifier,
		Email:              snap.Email,
		Role:               Role(snap.Role),
		Status:             AccountStatus(snap.Status),
		MustChangePassword: snap.MustChangePassword,
	}
}
