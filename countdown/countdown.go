package countdown

import (
	"fmt"
	"sync"
	"time"
)

// Ticker is the minimal surface of [time.Ticker] the countdown consumes.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall-clock access so expiry behavior is deterministic
// under test. Production code uses [System].
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time { return t.ticker.C }
func (t *systemTicker) Stop()               { t.ticker.Stop() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

// System returns the wall-clock [Clock].
func System() Clock {
	return systemClock{}
}

// Countdown is a cancellable, restartable one-second ticker over a single
// deadline. Remaining time is recomputed from the deadline on every tick,
// so accumulated interval drift cannot occur. The expiry callback fires
// exactly once per activation; restarting or stopping an activation
// guarantees its callback never fires afterwards.
type Countdown struct {
	mu         sync.Mutex
	clock      Clock
	deadline   time.Time
	generation uint64
	ticker     Ticker
	done       chan struct{}
	active     bool
}

// New creates an inactive countdown on the given clock. A nil clock
// selects [System].
func New(clock Clock) *Countdown {
	if clock == nil {
		clock = System()
	}
	return &Countdown{clock: clock}
}

// Start arms the countdown for d and invokes onExpire exactly once when
// the deadline passes. A previous activation is released first and its
// callback suppressed. Starting with a non-positive duration only stops.
func (c *Countdown) Start(d time.Duration, onExpire func()) {
	c.mu.Lock()
	c.releaseLocked()
	if d <= 0 {
		c.mu.Unlock()
		return
	}

	c.generation++
	generation := c.generation
	c.deadline = c.clock.Now().Add(d)
	c.ticker = c.clock.NewTicker(time.Second)
	c.done = make(chan struct{})
	c.active = true

	ticker := c.ticker
	done := c.done
	c.mu.Unlock()

	go c.run(generation, ticker, done, onExpire)
}

// Restart re-arms the countdown from a new duration, e.g. after a resend.
// The pending expiry of the previous window never fires.
func (c *Countdown) Restart(d time.Duration, onExpire func()) {
	c.Start(d, onExpire)
}

// Stop cancels the current activation without firing its callback and
// releases the timer resource. Safe to call on every exit path, including
// teardown of the owning view.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.releaseLocked()
	c.mu.Unlock()
}

// releaseLocked tears down the running activation. Callers hold c.mu.
func (c *Countdown) releaseLocked() {
	if !c.active {
		return
	}
	c.active = false
	c.ticker.Stop()
	close(c.done)
	c.ticker = nil
	c.done = nil
}

func (c *Countdown) run(generation uint64, ticker Ticker, done chan struct{}, onExpire func()) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			c.mu.Lock()
			if !c.active || c.generation != generation {
				c.mu.Unlock()
				return
			}
			if c.clock.Now().Before(c.deadline) {
				c.mu.Unlock()
				continue
			}
			c.releaseLocked()
			c.mu.Unlock()
			if onExpire != nil {
				onExpire()
			}
			return
		}
	}
}

// Remaining returns the whole seconds left until the deadline, rounded
// up, or 0 when inactive or expired.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	left := c.deadline.Sub(c.clock.Now())
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	return secs
}

// Active reports whether an activation is currently ticking.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Format renders a remaining-seconds value as M:SS (seconds zero-padded,
// minutes not).
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
