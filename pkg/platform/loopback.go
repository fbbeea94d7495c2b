package platform

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
)

// LoopbackHotspot simulates the platform hotspot facility. Reservations
// resolve immediately on a background goroutine and carry the loopback
// address as gateway, so a listener bound on the same machine is reachable
// through the simulated access point.
type LoopbackHotspot struct {
	// AssignCredentials, when set, is used instead of the requested
	// credentials. This simulates platforms that refuse fixed credential
	// requests and assign their own.
	AssignCredentials *Credentials

	// FailCode, when set, makes every start fail with this reason code.
	FailCode *int

	mu     sync.Mutex
	cb     HotspotCallbacks
	active *loopbackReservation
	starts int
}

// StartHotspot issues a simulated reservation. The outcome is delivered
// asynchronously, mirroring real platform behavior.
func (h *LoopbackHotspot) StartHotspot(ctx context.Context, req HotspotRequest, cb HotspotCallbacks) error {
	h.mu.Lock()
	h.cb = cb
	h.starts++
	failCode := h.FailCode
	assigned := h.AssignCredentials
	h.mu.Unlock()

	go func() {
		if ctx.Err() != nil {
			return
		}
		if failCode != nil {
			if cb.OnFailed != nil {
				cb.OnFailed(*failCode)
			}
			return
		}

		creds := Credentials{
			SSID:       req.SSID,
			Passphrase: req.Passphrase,
			Gateway:    "127.0.0.1",
		}
		if assigned != nil {
			creds = *assigned
		}

		res := &loopbackReservation{creds: creds}
		h.mu.Lock()
		h.active = res
		h.mu.Unlock()

		if cb.OnStarted != nil {
			cb.OnStarted(res)
		}
	}()

	return nil
}

// StartCount returns how many reservations have been issued.
func (h *LoopbackHotspot) StartCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts
}

// TriggerExternalStop simulates a platform-initiated teardown of the active
// reservation.
func (h *LoopbackHotspot) TriggerExternalStop() {
	h.mu.Lock()
	cb := h.cb
	res := h.active
	h.active = nil
	h.mu.Unlock()

	if res != nil {
		_ = res.Close()
	}
	if cb.OnStopped != nil {
		cb.OnStopped()
	}
}

type loopbackReservation struct {
	creds Credentials

	mu     sync.Mutex
	closed bool
}

func (r *loopbackReservation) Credentials() Credentials {
	return r.creds
}

func (r *loopbackReservation) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ Hotspot     = (*LoopbackHotspot)(nil)
	_ Reservation = (*loopbackReservation)(nil)
)

// LoopbackRequester simulates the platform's scoped network request
// facility. Requests resolve immediately on a background goroutine with a
// LoopbackNetwork that dials over the host loopback interface.
type LoopbackRequester struct {
	// Unavailable makes every request resolve as unavailable.
	Unavailable bool

	mu       sync.Mutex
	requests int
	active   *loopbackRequest
}

type loopbackRequest struct {
	cb       NetworkCallbacks
	network  *LoopbackNetwork
	released bool
}

// RequestNetwork issues a simulated scoped attachment request.
func (r *LoopbackRequester) RequestNetwork(ctx context.Context, spec NetworkSpec, cb NetworkCallbacks) (func(), error) {
	req := &loopbackRequest{cb: cb}

	r.mu.Lock()
	r.requests++
	r.active = req
	unavailable := r.Unavailable
	r.mu.Unlock()

	go func() {
		if ctx.Err() != nil {
			return
		}
		if unavailable {
			r.mu.Lock()
			released := req.released
			r.mu.Unlock()
			if !released && cb.OnUnavailable != nil {
				cb.OnUnavailable()
			}
			return
		}

		network := NewLoopbackNetwork(spec.SSID)
		r.mu.Lock()
		req.network = network
		released := req.released
		r.mu.Unlock()

		if !released && cb.OnAvailable != nil {
			cb.OnAvailable(network)
		}
	}()

	release := func() {
		r.mu.Lock()
		req.released = true
		if r.active == req {
			r.active = nil
		}
		r.mu.Unlock()
	}
	return release, nil
}

// RequestCount returns how many platform requests have been issued.
func (r *LoopbackRequester) RequestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

// TriggerLoss simulates the platform dropping the currently attached
// network. No-op when nothing is attached.
func (r *LoopbackRequester) TriggerLoss() {
	r.mu.Lock()
	req := r.active
	r.mu.Unlock()

	if req == nil || req.network == nil || req.released {
		return
	}
	if req.cb.OnLost != nil {
		req.cb.OnLost(req.network)
	}
}

// Compile-time interface satisfaction check.
var _ Requester = (*LoopbackRequester)(nil)

// LoopbackNetwork is a Network handle whose connections travel over the host
// loopback interface.
type LoopbackNetwork struct {
	id     string
	ssid   string
	dialer net.Dialer
}

// NewLoopbackNetwork creates a handle associated with the given SSID.
func NewLoopbackNetwork(ssid string) *LoopbackNetwork {
	return &LoopbackNetwork{
		id:   uuid.New().String(),
		ssid: ssid,
	}
}

// ID returns the unique handle identifier.
func (n *LoopbackNetwork) ID() string { return n.id }

// SSID returns the network name the handle is associated with.
func (n *LoopbackNetwork) SSID() string { return n.ssid }

// DialContext opens a connection using the default dialer.
func (n *LoopbackNetwork) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return n.dialer.DialContext(ctx, network, address)
}

// Compile-time interface satisfaction check.
var _ Network = (*LoopbackNetwork)(nil)

// LoopbackBinder records process-wide traffic binding without touching any
// real routing state.
type LoopbackBinder struct {
	mu     sync.Mutex
	bound  Network
	binds  int
	clears int
}

// BindProcessToNetwork records n as the pinned network.
func (b *LoopbackBinder) BindProcessToNetwork(n Network) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = n
	b.binds++
	return nil
}

// ClearProcessBinding removes any recorded pin.
func (b *LoopbackBinder) ClearProcessBinding() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bound = nil
	b.clears++
	return nil
}

// Bound returns the currently pinned network, or nil.
func (b *LoopbackBinder) Bound() Network {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bound
}

// BindCount returns how many times a pin was applied.
func (b *LoopbackBinder) BindCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.binds
}

// ClearCount returns how many times the pin was cleared.
func (b *LoopbackBinder) ClearCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clears
}

// Compile-time interface satisfaction check.
var _ Binder = (*LoopbackBinder)(nil)
