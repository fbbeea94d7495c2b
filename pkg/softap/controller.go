package softap

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// Config configures a Controller.
type Config struct {
	// Hotspot is the platform access point facility (required).
	Hotspot platform.Hotspot

	// Capabilities reports granted platform permissions (required).
	// Prompting for grants is the embedding application's job; the
	// controller only checks.
	Capabilities platform.CapabilityChecker

	// SSID is the preferred network name. The platform may assign its
	// own; that is a graceful degradation, not an error.
	SSID string

	// Passphrase is the preferred passphrase requested alongside SSID.
	Passphrase string

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// Events receives status events (optional).
	Events log.Logger
}

// DefaultConfig returns a Config with the conventional credentials.
func DefaultConfig(hotspot platform.Hotspot, caps platform.CapabilityChecker) Config {
	return Config{
		Hotspot:      hotspot,
		Capabilities: caps,
		SSID:         wire.DefaultSSID,
		Passphrase:   wire.DefaultPassphrase,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Hotspot == nil {
		return fmt.Errorf("%w: Hotspot is required", ErrInvalidConfig)
	}
	if c.Capabilities == nil {
		return fmt.Errorf("%w: Capabilities is required", ErrInvalidConfig)
	}
	return nil
}

// eventKind discriminates platform callback events.
type eventKind uint8

const (
	eventStarted eventKind = iota
	eventFailed
	eventStopped
)

// hotspotEvent is one platform callback, tagged with the operation sequence
// it belongs to.
type hotspotEvent struct {
	seq         uint64
	kind        eventKind
	reservation platform.Reservation
	code        int
}

// Controller manages one ephemeral access point's full lifecycle.
// Start, Stop and Restart serialize against each other; concurrent callers
// collapse to the in-flight operation's outcome.
type Controller struct {
	config Config

	// opMu serializes lifecycle operations. opSeq identifies the latest
	// requested operation (bumped under mu); platform callbacks carrying
	// an older sequence are stale and dropped.
	opMu  sync.Mutex
	opSeq atomic.Uint64

	mu          sync.RWMutex
	state       State
	failReason  string
	creds       platform.Credentials
	reservation platform.Reservation
	opID        string
	waiters     []chan struct{}

	events chan hotspotEvent
	done   chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	onRunning     func(platform.Credentials)
	onStopped     func(State)
	onStateChange func(old, new State, reason string)
}

// NewController creates a Controller and starts its event loop.
func NewController(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		config: config,
		state:  StateIdle,
		events: make(chan hotspotEvent, 8),
		done:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.eventLoop()

	return c, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// FailReason returns the reason recorded with the last Failed transition.
func (c *Controller) FailReason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failReason
}

// Credentials returns the live access point credentials. Only meaningful
// while Running.
func (c *Controller) Credentials() platform.Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds
}

// OnRunning registers a callback invoked when the access point reaches
// Running, carrying the assigned credentials. Used to start dependents such
// as the control listener.
func (c *Controller) OnRunning(fn func(platform.Credentials)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRunning = fn
}

// OnStopped registers a callback invoked when the access point leaves
// Running without an explicit Stop call (external stop or failure).
func (c *Controller) OnStopped(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStopped = fn
}

// OnStateChange registers a callback for every transition.
func (c *Controller) OnStateChange(fn func(old, new State, reason string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// Start brings the access point up. Capability preconditions are checked
// synchronously; on success the platform start is issued and the Running (or
// Failed) transition arrives asynchronously. Any previous reservation is
// fully released before the new one is requested.
func (c *Controller) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.startLocked(ctx)
}

// Stop tears the access point down and returns once the reservation is
// released. Idempotent: stopping an absent reservation is not an error.
// The controller always lands in Idle.
func (c *Controller) Stop() {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopLocked()
}

// Restart sequences a full Stop then Start. The old reservation is released
// before the new one is requested; there is no overlap window.
func (c *Controller) Restart(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.stopLocked()
	return c.startLocked(ctx)
}

// Close stops the access point and shuts the event loop down.
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.Stop()
	close(c.done)
	c.wg.Wait()
}

// WaitForState blocks until the controller reaches the given state or the
// context is done.
func (c *Controller) WaitForState(ctx context.Context, want State) error {
	for {
		c.mu.Lock()
		if c.state == want {
			c.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	// Preconditions must already be satisfied by the caller; an unmet
	// one fails without touching platform state.
	for _, capability := range platform.RequiredCapabilities() {
		if !c.config.Capabilities.Granted(capability) {
			reason := fmt.Sprintf("missing capability: %s", capability)
			c.transition(0, StateFailed, reason)
			c.logError(reason, "start", nil)
			return fmt.Errorf("%w: %s", ErrMissingCapability, capability)
		}
	}

	// Stop-before-start: the previous reservation is fully released
	// before the new request is issued.
	c.stopLocked()

	c.mu.Lock()
	seq := c.opSeq.Add(1)
	c.opID = uuid.New().String()
	c.mu.Unlock()

	c.transition(seq, StateStarting, "")
	c.logStatus(fmt.Sprintf("requesting access point %q", c.config.SSID))

	cb := platform.HotspotCallbacks{
		OnStarted: func(res platform.Reservation) {
			c.post(hotspotEvent{seq: seq, kind: eventStarted, reservation: res})
		},
		OnFailed: func(code int) {
			c.post(hotspotEvent{seq: seq, kind: eventFailed, code: code})
		},
		OnStopped: func() {
			c.post(hotspotEvent{seq: seq, kind: eventStopped})
		},
	}

	req := platform.HotspotRequest{SSID: c.config.SSID, Passphrase: c.config.Passphrase}
	if err := c.config.Hotspot.StartHotspot(ctx, req, cb); err != nil {
		reason := fmt.Sprintf("platform start rejected: %v", err)
		c.transition(seq, StateFailed, reason)
		c.logError(reason, "start", nil)
		return fmt.Errorf("failed to start access point: %w", err)
	}

	return nil
}

func (c *Controller) stopLocked() {
	c.mu.Lock()
	// Invalidate any in-flight operation so its late callbacks are
	// recognized as stale.
	c.opSeq.Add(1)
	res := c.reservation
	c.reservation = nil
	c.creds = platform.Credentials{}
	c.mu.Unlock()

	if res != nil {
		c.transition(0, StateStopping, "")
		_ = res.Close()
		c.logStatus("access point released")
	}

	c.transition(0, StateIdle, "")
}

// post delivers a platform callback into the event loop. Drops the event if
// the controller is shutting down.
func (c *Controller) post(ev hotspotEvent) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// eventLoop is the single consumer of platform callback events.
func (c *Controller) eventLoop() {
	defer c.wg.Done()
	for {
		select {
		case ev := <-c.events:
			c.handleEvent(ev)
		case <-c.done:
			return
		}
	}
}

func (c *Controller) handleEvent(ev hotspotEvent) {
	switch ev.kind {
	case eventStarted:
		c.mu.Lock()
		if ev.seq != c.opSeq.Load() {
			c.mu.Unlock()
			// Superseded. Suppress the notification, but release
			// the reservation so it doesn't leak.
			_ = ev.reservation.Close()
			c.logStatus("stale start callback dropped")
			return
		}
		creds := ev.reservation.Credentials()
		c.reservation = ev.reservation
		c.creds = creds
		onRunning := c.onRunning
		c.mu.Unlock()

		if !c.transition(ev.seq, StateRunning, "") {
			return
		}
		c.logReady(creds)
		if onRunning != nil {
			onRunning(creds)
		}

	case eventFailed:
		reason := "platform reason " + strconv.Itoa(ev.code)
		if !c.transition(ev.seq, StateFailed, reason) {
			c.logStatus("stale failure callback dropped")
			return
		}
		c.logError("access point start failed", "start", &ev.code)
		c.notifyStopped(StateFailed)

	case eventStopped:
		c.mu.Lock()
		if ev.seq != c.opSeq.Load() {
			c.mu.Unlock()
			c.logStatus("stale stop callback dropped")
			return
		}
		res := c.reservation
		c.reservation = nil
		c.creds = platform.Credentials{}
		c.mu.Unlock()

		if res != nil {
			_ = res.Close()
		}
		if !c.transition(ev.seq, StateStopped, "external stop") {
			return
		}
		c.logStatus("access point stopped by platform")
		c.notifyStopped(StateStopped)
	}
}

func (c *Controller) notifyStopped(s State) {
	c.mu.RLock()
	fn := c.onStopped
	c.mu.RUnlock()
	if fn != nil {
		fn(s)
	}
}

// transition applies a state change, wakes waiters and emits the change.
// When seq is non-zero the change only applies while seq is still the
// latest operation; a zero seq applies unconditionally (explicit calls,
// which already hold opMu). Returns whether the change was applied.
func (c *Controller) transition(seq uint64, new State, reason string) bool {
	c.mu.Lock()
	if seq != 0 && seq != c.opSeq.Load() {
		c.mu.Unlock()
		return false
	}
	old := c.state
	if old == new {
		c.mu.Unlock()
		return true
	}
	c.state = new
	if new == StateFailed {
		c.failReason = reason
	}
	opID := c.opID
	fn := c.onStateChange
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}

	if c.config.Logger != nil {
		c.config.Logger.Debug("access point state change",
			"old", old.String(), "new", new.String(), "reason", reason)
	}
	c.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAccessPoint,
		Category:    log.CategoryState,
		OperationID: opID,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: new.String(),
			Reason:   reason,
		},
	})

	if fn != nil {
		fn(old, new, reason)
	}
	return true
}

// logReady emits the "ready" event with the assigned credentials. The
// passphrase is masked; operators read it from Credentials(), not the log.
func (c *Controller) logReady(creds platform.Credentials) {
	c.mu.RLock()
	opID := c.opID
	c.mu.RUnlock()

	c.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAccessPoint,
		Category:    log.CategoryStatus,
		OperationID: opID,
		SSID:        creds.SSID,
		Message: fmt.Sprintf("access point ready: ssid=%s passphrase=%s gateway=%s",
			creds.SSID, maskSecret(creds.Passphrase), creds.Gateway),
	})
}

func (c *Controller) logStatus(msg string) {
	c.mu.RLock()
	opID := c.opID
	c.mu.RUnlock()

	c.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAccessPoint,
		Category:    log.CategoryStatus,
		OperationID: opID,
		Message:     msg,
	})
}

func (c *Controller) logError(msg, context string, code *int) {
	c.mu.RLock()
	opID := c.opID
	c.mu.RUnlock()

	c.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAccessPoint,
		Category:    log.CategoryError,
		OperationID: opID,
		Error: &log.ErrorEventData{
			Message: msg,
			Code:    code,
			Context: context,
		},
	})
}

func (c *Controller) emit(ev log.Event) {
	if c.config.Events != nil {
		c.config.Events.Log(ev)
	}
}

// maskSecret hides a passphrase in log output. Fixed width so the mask
// doesn't reveal the secret's length.
func maskSecret(s string) string {
	if s == "" {
		return "(none)"
	}
	return "********"
}
