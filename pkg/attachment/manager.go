package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
)

// Config configures a Manager.
type Config struct {
	// Requester is the platform network request facility (required).
	Requester platform.Requester

	// Binder pins process traffic to a network (required).
	Binder platform.Binder

	// Logger for debug output (optional).
	Logger *slog.Logger

	// Events receives status events (optional).
	Events log.Logger
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Requester == nil {
		return fmt.Errorf("%w: Requester is required", ErrInvalidConfig)
	}
	if c.Binder == nil {
		return fmt.Errorf("%w: Binder is required", ErrInvalidConfig)
	}
	return nil
}

// Manager owns one attachment at a time. Connect requests the network,
// Disconnect releases it; platform availability callbacks drive the state
// between them. Traffic is pinned only while Bound and unpinned on every
// path out of Bound, including Disconnect and Close.
type Manager struct {
	config Config

	mu      sync.RWMutex
	state   State
	seq     uint64
	id      string
	network platform.Network
	release func()
	waiters []chan struct{}

	onAvailability func(bool)

	closed atomic.Bool
}

// NewManager creates a Manager in the Idle state.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{config: config, state: StateIdle}, nil
}

// State returns the current attachment state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// BoundNetwork returns the attached network handle, or nil unless Bound.
func (m *Manager) BoundNetwork() platform.Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateBound {
		return nil
	}
	return m.network
}

// OnAvailability registers a callback invoked synchronously with true when
// the attachment becomes Bound and false when it stops being Bound.
// Dependents gate their traffic on it.
func (m *Manager) OnAvailability(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAvailability = fn
}

// Connect requests the network described by spec. While a request is in
// flight further Connect calls are ignored; the platform answers the first.
// Any existing attachment is released before the new request is issued.
func (m *Manager) Connect(ctx context.Context, spec platform.NetworkSpec) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mu.Lock()
	if m.state == StateRequesting {
		m.mu.Unlock()
		m.logStatus("connect ignored, request already in flight")
		return nil
	}
	m.releaseLocked()
	m.seq++
	seq := m.seq
	m.id = uuid.New().String()
	sc := m.setStateLocked(StateRequesting, "")
	m.mu.Unlock()
	m.announce(sc)

	m.logStatus(fmt.Sprintf("requesting network %q", spec.SSID))

	cb := platform.NetworkCallbacks{
		OnAvailable: func(n platform.Network) {
			m.handleAvailable(seq, n)
		},
		OnUnavailable: func() {
			m.handleUnavailable(seq)
		},
		OnLost: func(n platform.Network) {
			m.handleLost(seq, n)
		},
	}

	release, err := m.config.Requester.RequestNetwork(ctx, spec, cb)
	if err != nil {
		var sc stateChange
		m.mu.Lock()
		if seq == m.seq {
			sc = m.setStateLocked(StateUnavailable, err.Error())
		}
		m.mu.Unlock()
		m.announce(sc)
		m.logError(fmt.Sprintf("network request rejected: %v", err))
		return fmt.Errorf("failed to request network: %w", err)
	}

	m.mu.Lock()
	if seq == m.seq {
		m.release = release
	} else {
		// A Disconnect raced the request; release immediately.
		m.mu.Unlock()
		release()
		return nil
	}
	m.mu.Unlock()

	return nil
}

// Disconnect releases the attachment and unpins traffic. Idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.seq++
	wasBound := m.state == StateBound
	m.releaseLocked()
	sc := m.setStateLocked(StateIdle, "")
	fn := m.onAvailability
	m.mu.Unlock()
	m.announce(sc)

	if wasBound && fn != nil {
		fn(false)
	}
	m.logStatus("attachment released")
}

// Close disconnects and marks the manager unusable.
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.Disconnect()
}

// WaitForState blocks until the manager reaches the given state or the
// context is done.
func (m *Manager) WaitForState(ctx context.Context, want State) error {
	for {
		m.mu.Lock()
		if m.state == want {
			m.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		m.waiters = append(m.waiters, ch)
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) handleAvailable(seq uint64, n platform.Network) {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		m.logStatus("stale availability callback dropped")
		return
	}
	if err := m.config.Binder.BindProcessToNetwork(n); err != nil {
		sc := m.setStateLocked(StateUnavailable, err.Error())
		m.mu.Unlock()
		m.announce(sc)
		m.logError(fmt.Sprintf("failed to pin traffic: %v", err))
		return
	}
	m.network = n
	sc := m.setStateLocked(StateBound, "")
	fn := m.onAvailability
	m.mu.Unlock()
	m.announce(sc)

	m.logStatus(fmt.Sprintf("attached to network %s", n.ID()))
	if fn != nil {
		fn(true)
	}
}

func (m *Manager) handleUnavailable(seq uint64) {
	m.mu.Lock()
	if seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.unpinLocked()
	sc := m.setStateLocked(StateUnavailable, "network unavailable")
	fn := m.onAvailability
	wasBound := m.network != nil
	m.network = nil
	m.mu.Unlock()
	m.announce(sc)

	m.logError("requested network unavailable")
	if wasBound && fn != nil {
		fn(false)
	}
}

func (m *Manager) handleLost(seq uint64, n platform.Network) {
	m.mu.Lock()
	// Loss only applies to the handle we are actually bound to.
	if seq != m.seq || m.network == nil || m.network.ID() != n.ID() {
		m.mu.Unlock()
		m.logStatus("loss callback for unbound network dropped")
		return
	}
	m.unpinLocked()
	m.network = nil
	sc := m.setStateLocked(StateLost, "network lost")
	fn := m.onAvailability
	m.mu.Unlock()
	m.announce(sc)

	m.logError("attached network lost")
	if fn != nil {
		fn(false)
	}
}

// releaseLocked tears the current attachment down: unpins traffic, hands the
// request back to the platform and drops the handle. Caller holds m.mu.
func (m *Manager) releaseLocked() {
	m.unpinLocked()
	if m.release != nil {
		m.release()
		m.release = nil
	}
	m.network = nil
}

// unpinLocked clears the traffic binding. Safe when nothing is pinned.
func (m *Manager) unpinLocked() {
	if m.network != nil {
		if err := m.config.Binder.ClearProcessBinding(); err != nil && m.config.Logger != nil {
			m.config.Logger.Warn("failed to clear traffic binding", "error", err)
		}
	}
}

// stateChange is a transition staged under m.mu and announced after it is
// released, so event subscribers may call back into the Manager.
type stateChange struct {
	old    State
	new    State
	reason string
	id     string
}

// setStateLocked applies a state change and wakes waiters. Caller holds m.mu
// and must pass the returned change to announce after unlocking.
func (m *Manager) setStateLocked(new State, reason string) stateChange {
	old := m.state
	if old == new {
		return stateChange{}
	}
	m.state = new

	waiters := m.waiters
	m.waiters = nil
	for _, ch := range waiters {
		close(ch)
	}

	return stateChange{old: old, new: new, reason: reason, id: m.id}
}

// announce logs and emits a staged state change. No-op for the zero value.
func (m *Manager) announce(sc stateChange) {
	if sc.old == sc.new {
		return
	}
	if m.config.Logger != nil {
		m.config.Logger.Debug("attachment state change",
			"old", sc.old.String(), "new", sc.new.String(), "reason", sc.reason)
	}
	m.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAttachment,
		Category:    log.CategoryState,
		OperationID: sc.id,
		StateChange: &log.StateChangeEvent{
			OldState: sc.old.String(),
			NewState: sc.new.String(),
			Reason:   sc.reason,
		},
	})
}

func (m *Manager) logStatus(msg string) {
	m.mu.RLock()
	id := m.id
	m.mu.RUnlock()

	m.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAttachment,
		Category:    log.CategoryStatus,
		OperationID: id,
		Message:     msg,
	})
}

func (m *Manager) logError(msg string) {
	m.mu.RLock()
	id := m.id
	m.mu.RUnlock()

	m.emit(log.Event{
		Timestamp:   time.Now(),
		Component:   log.ComponentAttachment,
		Category:    log.CategoryError,
		OperationID: id,
		Error:       &log.ErrorEventData{Message: msg},
	})
}

func (m *Manager) emit(ev log.Event) {
	if m.config.Events != nil {
		m.config.Events.Log(ev)
	}
}
