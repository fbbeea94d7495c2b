package attachment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
)

func newTestManager(t *testing.T, requester platform.Requester, binder *platform.LoopbackBinder) *Manager {
	t.Helper()
	m, err := NewManager(Config{Requester: requester, Binder: binder})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func waitBound(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitForState(ctx, StateBound); err != nil {
		t.Fatalf("never reached BOUND: %v", err)
	}
}

func TestConnectBindsAndPins(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	var transitions []bool
	var mu sync.Mutex
	m.OnAvailability(func(up bool) {
		mu.Lock()
		transitions = append(transitions, up)
		mu.Unlock()
	})

	spec := platform.NetworkSpec{SSID: "LanDiscoveryAP", Passphrase: "lan123456"}
	if err := m.Connect(context.Background(), spec); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)

	if m.BoundNetwork() == nil {
		t.Fatal("BoundNetwork is nil while BOUND")
	}
	if binder.Bound() == nil {
		t.Error("traffic not pinned to the attached network")
	}
	mu.Lock()
	if len(transitions) != 1 || !transitions[0] {
		t.Errorf("availability transitions = %v, want [true]", transitions)
	}
	mu.Unlock()
}

// manualRequester never answers on its own; the test drives the callbacks.
type manualRequester struct {
	mu       sync.Mutex
	requests int
	cb       platform.NetworkCallbacks
}

func (r *manualRequester) RequestNetwork(ctx context.Context, spec platform.NetworkSpec, cb platform.NetworkCallbacks) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	r.cb = cb
	return func() {}, nil
}

func (r *manualRequester) requestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests
}

func TestConnectSingleFlight(t *testing.T) {
	requester := &manualRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	spec := platform.NetworkSpec{SSID: "LanDiscoveryAP"}
	if err := m.Connect(context.Background(), spec); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if m.State() != StateRequesting {
		t.Fatalf("State = %v, want REQUESTING", m.State())
	}

	// While the platform has not answered, further connects are ignored
	// and no second request is issued.
	for i := 0; i < 3; i++ {
		if err := m.Connect(context.Background(), spec); err != nil {
			t.Fatalf("repeat Connect failed: %v", err)
		}
	}
	if got := requester.requestCount(); got != 1 {
		t.Errorf("platform requests = %d, want 1", got)
	}

	// The single outstanding request resolves normally.
	requester.cb.OnAvailable(platform.NewLoopbackNetwork(spec.SSID))
	waitBound(t, m)
}

func TestDisconnectUnpins(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)

	var down bool
	m.OnAvailability(func(up bool) {
		if !up {
			down = true
		}
	})

	m.Disconnect()
	if m.State() != StateIdle {
		t.Errorf("State = %v after Disconnect, want IDLE", m.State())
	}
	if binder.Bound() != nil {
		t.Error("traffic still pinned after Disconnect")
	}
	if m.BoundNetwork() != nil {
		t.Error("BoundNetwork should be nil after Disconnect")
	}
	if !down {
		t.Error("availability(false) not signalled on Disconnect")
	}
	if binder.ClearCount() == 0 {
		t.Error("binding never cleared")
	}

	m.Disconnect() // idempotent
	if got := binder.ClearCount(); got != 1 {
		t.Errorf("ClearProcessBinding called %d times, want 1", got)
	}
}

func TestNetworkLost(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)

	requester.TriggerLoss()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitForState(ctx, StateLost); err != nil {
		t.Fatalf("never reached LOST: %v", err)
	}
	if binder.Bound() != nil {
		t.Error("traffic still pinned after loss")
	}
	if m.BoundNetwork() != nil {
		t.Error("BoundNetwork should be nil after loss")
	}
}

func TestLossOfForeignNetworkIgnored(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)

	// A loss report for a network we never bound must not disturb the
	// attachment.
	other := platform.NewLoopbackNetwork("SomeOtherNet")
	m.handleLost(1, other)

	if m.State() != StateBound {
		t.Errorf("State = %v after foreign loss, want BOUND", m.State())
	}
	if binder.Bound() == nil {
		t.Error("traffic unpinned by a foreign loss report")
	}
}

func TestNetworkUnavailable(t *testing.T) {
	requester := &platform.LoopbackRequester{Unavailable: true}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitForState(ctx, StateUnavailable); err != nil {
		t.Fatalf("never reached UNAVAILABLE: %v", err)
	}
	if binder.BindCount() != 0 {
		t.Error("traffic pinned although the network never attached")
	}
}

func TestCloseReleases(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m, err := NewManager(Config{Requester: requester, Binder: binder})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)

	m.Close()
	if binder.Bound() != nil {
		t.Error("traffic still pinned after Close")
	}
	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "x"}); err != ErrClosed {
		t.Errorf("Connect after Close = %v, want ErrClosed", err)
	}
}

// reentrantLogger reads the manager's state from inside Log, the way a live
// status display would.
type reentrantLogger struct {
	m    *Manager
	mu   sync.Mutex
	seen []State
}

func (l *reentrantLogger) Log(log.Event) {
	s := l.m.State()
	l.mu.Lock()
	l.seen = append(l.seen, s)
	l.mu.Unlock()
}

func TestEventSubscriberMayReadState(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	logger := &reentrantLogger{}
	m, err := NewManager(Config{Requester: requester, Binder: binder, Events: logger})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	logger.m = m
	t.Cleanup(m.Close)

	done := make(chan error, 1)
	go func() {
		done <- m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect blocked with a state-reading event subscriber")
	}
	waitBound(t, m)

	logger.mu.Lock()
	events := len(logger.seen)
	logger.mu.Unlock()
	if events == 0 {
		t.Error("subscriber saw no events")
	}
}

func TestReconnectReleasesPreviousAttachment(t *testing.T) {
	requester := &platform.LoopbackRequester{}
	binder := &platform.LoopbackBinder{}
	m := newTestManager(t, requester, binder)

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitBound(t, m)
	first := m.BoundNetwork()

	if err := m.Connect(context.Background(), platform.NetworkSpec{SSID: "LanDiscoveryAP"}); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	waitBound(t, m)

	if requester.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", requester.RequestCount())
	}
	if m.BoundNetwork() == first {
		t.Error("reconnect should attach a fresh network handle")
	}
}
