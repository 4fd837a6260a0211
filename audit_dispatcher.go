package authclient

import (
	"context"
	"sync"
	"sync/atomic"
)

// Drop accounting is kept per state machine flow so backpressure on one
// flow (a login storm, say) is distinguishable from recovery traffic.
const (
	dropLaneLogin = iota
	dropLaneSession
	dropLaneRecovery
	dropLaneOther
	dropLaneCount
)

func dropLane(flow string) int {
	switch flow {
	case auditFlowLogin:
		return dropLaneLogin
	case auditFlowSession:
		return dropLaneSession
	case auditFlowRecovery:
		return dropLaneRecovery
	default:
		return dropLaneOther
	}
}

func dropLaneFlow(lane int) string {
	switch lane {
	case dropLaneLogin:
		return auditFlowLogin
	case dropLaneSession:
		return auditFlowSession
	case dropLaneRecovery:
		return auditFlowRecovery
	default:
		return "other"
	}
}

// auditDispatcher hands session transitions to the configured sink from a
// single goroutine, so a slow sink never stalls an engine operation.
type auditDispatcher struct {
	cfg       AuditConfig
	sink      AuditSink
	ch        chan AuditEvent
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   [dropLaneCount]atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan AuditEvent, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain flushes whatever Close found still buffered. Events accepted
// before Close are delivered, not dropped.
func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.ch:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit describes the emit operation and its observable behavior.
//
// Emit may return an error when input validation, dependency calls, or security checks fail.
// Emit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// Events handed over without a correlation ID pick one up from the
	// caller's context, matching what the backend calls were tagged with.
	if event.RequestID == "" {
		event.RequestID = requestIDFromContext(ctx)
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped[dropLane(event.Flow)].Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.dropped[dropLane(event.Flow)].Add(1)
	case <-d.done:
	}
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped describes the dropped operation and its observable behavior.
//
// Dropped may return an error when input validation, dependency calls, or security checks fail.
// Dropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	var total uint64
	for i := range d.dropped {
		total += d.dropped[i].Load()
	}
	return total
}

// DroppedByFlow describes the droppedbyflow operation and its observable behavior.
//
// DroppedByFlow may return an error when input validation, dependency calls, or security checks fail.
// DroppedByFlow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (d *auditDispatcher) DroppedByFlow() map[string]uint64 {
	counts := make(map[string]uint64, dropLaneCount)
	if d == nil {
		return counts
	}
	for lane := range d.dropped {
		if n := d.dropped[lane].Load(); n > 0 {
			counts[dropLaneFlow(lane)] = n
		}
	}
	return counts
}
