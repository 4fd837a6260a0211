package authclient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkovrig/authclient/store"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func newAuditTestEngine(t *testing.T, sink AuditSink) (*Engine, *fakeBackend) {
	t.Helper()

	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64

	backend := newFakeBackend()
	engine, err := New().
		WithConfig(cfg).
		WithBackend(backend).
		WithTokenStore(store.NewMemory()).
		WithClock(newFakeClock()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, backend
}

func waitForEvent(t *testing.T, sink *captureSink, eventType string) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q audit event", eventType)
		}
	}
}

func TestAuditLoginFlowEvents(t *testing.T) {
	sink := newCaptureSink(64)
	engine, _ := newAuditTestEngine(t, sink)

	ctx := WithRequestID(context.Background(), "req-123")
	if err := engine.Login(ctx, "alice", "correct-password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	ev := waitForEvent(t, sink, "login_success")
	if ev.Flow != "login" || !ev.Success {
		t.Fatalf("unexpected event shape: %+v", ev)
	}
	if ev.RequestID != "req-123" {
		t.Fatalf("expected caller request ID carried, got %q", ev.RequestID)
	}
	if ev.Metadata["identifier"] != "alice" {
		t.Fatalf("expected identifier metadata, got %v", ev.Metadata)
	}

	if err := engine.VerifyOTP(ctx, "424242"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	ev = waitForEvent(t, sink, "otp_verify_success")
	if ev.UserID != "u-1" {
		t.Fatalf("expected user id on verify event, got %q", ev.UserID)
	}
}

func TestAuditFailureCarriesErrorCode(t *testing.T) {
	sink := newCaptureSink(64)
	engine, _ := newAuditTestEngine(t, sink)

	if err := engine.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	ev := waitForEvent(t, sink, "login_failure")
	if ev.Success {
		t.Fatal("expected failure event")
	}
	if ev.Error == "" {
		t.Fatal("expected an error code on the failure event")
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := &countingSink{}

	backend := newFakeBackend()
	engine, err := New().
		WithBackend(backend).
		WithTokenStore(store.NewMemory()).
		WithClock(newFakeClock()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if err := engine.Login(context.Background(), "alice", "correct-password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	engine.Close()

	if got := sink.count.Load(); got != 0 {
		t.Fatalf("expected no events with audit disabled, got %d", got)
	}
}

// gateSink blocks the dispatcher worker inside Emit until released, so
// tests can fill the queue deterministically.
type gateSink struct {
	entered chan struct{}
	release chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release
}

func TestAuditDropAccountingPerFlow(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer d.Close()
	defer close(sink.release)

	ctx := context.Background()
	d.Emit(ctx, AuditEvent{EventType: "login_failure", Flow: "login"})
	// The worker is now stuck inside the sink holding the first event.
	<-sink.entered

	d.Emit(ctx, AuditEvent{Flow: "login"}) // fills the one-slot buffer
	d.Emit(ctx, AuditEvent{Flow: "login"})
	d.Emit(ctx, AuditEvent{Flow: "session"})
	d.Emit(ctx, AuditEvent{Flow: "recovery"})
	d.Emit(ctx, AuditEvent{Flow: "recovery"})
	d.Emit(ctx, AuditEvent{Flow: "bench"})

	if got := d.Dropped(); got != 5 {
		t.Fatalf("expected 5 dropped events, got %d", got)
	}
	byFlow := d.DroppedByFlow()
	if byFlow["login"] != 1 || byFlow["session"] != 1 || byFlow["recovery"] != 2 || byFlow["other"] != 1 {
		t.Fatalf("unexpected per-flow drop counts: %v", byFlow)
	}
}

func TestEngineAuditDroppedByFlow(t *testing.T) {
	sink := newGateSink()
	cfg := defaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true

	engine, err := New().
		WithConfig(cfg).
		WithBackend(newFakeBackend()).
		WithTokenStore(store.NewMemory()).
		WithClock(newFakeClock()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	t.Cleanup(func() { close(sink.release) })

	ctx := context.Background()
	engine.emitAudit(ctx, auditEventLogout, auditFlowSession, true, "", nil, nil)
	<-sink.entered

	engine.emitAudit(ctx, auditEventLogout, auditFlowSession, true, "", nil, nil) // buffered
	engine.emitAudit(ctx, auditEventLogout, auditFlowSession, true, "", nil, nil)
	engine.emitAudit(ctx, auditEventResetAbandoned, auditFlowRecovery, true, "", nil, nil)

	if got := engine.AuditDropped(); got != 2 {
		t.Fatalf("expected 2 dropped events, got %d", got)
	}
	byFlow := engine.AuditDroppedByFlow()
	if byFlow[auditFlowSession] != 1 || byFlow[auditFlowRecovery] != 1 {
		t.Fatalf("unexpected per-flow drop counts: %v", byFlow)
	}
}

func TestAuditEmitStampsContextRequestID(t *testing.T) {
	sink := newCaptureSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	ctx := WithRequestID(context.Background(), "req-99")
	d.Emit(ctx, AuditEvent{EventType: "logout", Flow: "session"})

	ev := waitForEvent(t, sink, "logout")
	if ev.RequestID != "req-99" {
		t.Fatalf("expected request ID stamped from context, got %q", ev.RequestID)
	}
}

func TestAuditCloseDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	engine, _ := newAuditTestEngine(t, sink)

	ctx := context.Background()
	if err := engine.Login(ctx, "alice", "correct-password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := engine.VerifyOTP(ctx, "424242"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if err := engine.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	// Close blocks until queued events are delivered.
	engine.Close()

	if got := sink.count.Load(); got != 3 {
		t.Fatalf("expected 3 drained events, got %d", got)
	}
}
