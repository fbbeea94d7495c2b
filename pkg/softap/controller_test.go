package softap

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/log"
	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
)

// manualHotspot is a Hotspot whose callbacks are fired explicitly by the
// test, so callback timing relative to controller operations is controlled.
type manualHotspot struct {
	mu     sync.Mutex
	starts int
	cb     platform.HotspotCallbacks
}

func (h *manualHotspot) StartHotspot(ctx context.Context, req platform.HotspotRequest, cb platform.HotspotCallbacks) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	h.cb = cb
	return nil
}

func (h *manualHotspot) startCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts
}

func (h *manualHotspot) fireStarted(res platform.Reservation) {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	cb.OnStarted(res)
}

func (h *manualHotspot) fireFailed(code int) {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	cb.OnFailed(code)
}

func (h *manualHotspot) fireStopped() {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	cb.OnStopped()
}

// fakeReservation tracks release for leak assertions.
type fakeReservation struct {
	creds platform.Credentials

	mu     sync.Mutex
	closed bool
}

func (r *fakeReservation) Credentials() platform.Credentials { return r.creds }

func (r *fakeReservation) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReservation) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func testCredentials() platform.Credentials {
	return platform.Credentials{SSID: "LanDiscoveryAP", Passphrase: "lan123456", Gateway: "192.168.49.1"}
}

func newTestController(t *testing.T, hotspot platform.Hotspot, caps platform.CapabilityChecker, events log.Logger) *Controller {
	t.Helper()
	cfg := DefaultConfig(hotspot, caps)
	cfg.Events = events
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestStartMissingCapability(t *testing.T) {
	hotspot := &manualHotspot{}
	caps := platform.StaticCapabilities{
		platform.CapabilityLocation:  true,
		platform.CapabilityProximity: false,
	}
	events := log.NewMemoryLogger()
	c := newTestController(t, hotspot, caps, events)

	err := c.Start(context.Background())
	if !errors.Is(err, ErrMissingCapability) {
		t.Fatalf("Start error = %v, want ErrMissingCapability", err)
	}
	if c.State() != StateFailed {
		t.Errorf("State = %v, want FAILED", c.State())
	}
	if !strings.Contains(c.FailReason(), "missing capability") {
		t.Errorf("FailReason = %q, want missing capability reason", c.FailReason())
	}
	if hotspot.startCount() != 0 {
		t.Errorf("platform start issued %d times, want 0", hotspot.startCount())
	}

	var logged bool
	for _, e := range events.Events() {
		if e.Category == log.CategoryError {
			logged = true
		}
	}
	if !logged {
		t.Error("missing capability should emit an error event")
	}
}

func TestStartToRunning(t *testing.T) {
	hotspot := &manualHotspot{}
	events := log.NewMemoryLogger()
	c := newTestController(t, hotspot, platform.AllGranted{}, events)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != StateStarting {
		t.Fatalf("State = %v before platform callback, want STARTING", c.State())
	}

	hotspot.fireStarted(&fakeReservation{creds: testCredentials()})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateRunning); err != nil {
		t.Fatalf("never reached RUNNING: %v", err)
	}

	creds := c.Credentials()
	if creds.SSID != "LanDiscoveryAP" || creds.Gateway != "192.168.49.1" {
		t.Errorf("Credentials = %+v, want test credentials", creds)
	}

	// The ready event must carry the SSID and gateway but never the
	// passphrase in the clear.
	var ready string
	for _, e := range events.Events() {
		if e.Category == log.CategoryStatus && strings.Contains(e.Message, "ready") {
			ready = e.Message
		}
	}
	if ready == "" {
		t.Fatal("no ready event emitted")
	}
	if strings.Contains(ready, "lan123456") {
		t.Errorf("ready event leaks the passphrase: %q", ready)
	}
	if !strings.Contains(ready, "192.168.49.1") {
		t.Errorf("ready event missing gateway: %q", ready)
	}
}

func TestStartPlatformFailure(t *testing.T) {
	hotspot := &manualHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	hotspot.fireFailed(3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateFailed); err != nil {
		t.Fatalf("never reached FAILED: %v", err)
	}
	if !strings.Contains(c.FailReason(), "3") {
		t.Errorf("FailReason = %q, want the platform reason code", c.FailReason())
	}
}

func TestExternalStop(t *testing.T) {
	hotspot := &manualHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	var stoppedWith State
	var stoppedMu sync.Mutex
	c.OnStopped(func(s State) {
		stoppedMu.Lock()
		stoppedWith = s
		stoppedMu.Unlock()
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	res := &fakeReservation{creds: testCredentials()}
	hotspot.fireStarted(res)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateRunning); err != nil {
		t.Fatalf("never reached RUNNING: %v", err)
	}

	hotspot.fireStopped()
	if err := c.WaitForState(ctx, StateStopped); err != nil {
		t.Fatalf("never reached STOPPED: %v", err)
	}
	if !res.isClosed() {
		t.Error("reservation not released on external stop")
	}
	stoppedMu.Lock()
	if stoppedWith != StateStopped {
		t.Errorf("OnStopped called with %v, want STOPPED", stoppedWith)
	}
	stoppedMu.Unlock()
}

func TestStopIdempotent(t *testing.T) {
	hotspot := &manualHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	// Stopping with nothing active is a no-op that still lands in Idle.
	c.Stop()
	c.Stop()
	if c.State() != StateIdle {
		t.Errorf("State = %v after redundant stops, want IDLE", c.State())
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	res := &fakeReservation{creds: testCredentials()}
	hotspot.fireStarted(res)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateRunning); err != nil {
		t.Fatalf("never reached RUNNING: %v", err)
	}

	c.Stop()
	if c.State() != StateIdle {
		t.Errorf("State = %v after stop, want IDLE", c.State())
	}
	if !res.isClosed() {
		t.Error("reservation not released by Stop")
	}
	c.Stop() // still fine
}

func TestStaleStartCallbackAfterStop(t *testing.T) {
	hotspot := &manualHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Stop is requested while the platform start is still in flight.
	c.Stop()

	// The late callback must not resurrect the access point, and its
	// reservation must still be released.
	res := &fakeReservation{creds: testCredentials()}
	hotspot.fireStarted(res)

	deadline := time.Now().Add(time.Second)
	for !res.isClosed() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !res.isClosed() {
		t.Error("stale reservation leaked")
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("State = %v after stale callback, want IDLE", got)
	}
}

func TestRestartReleasesBeforeRequesting(t *testing.T) {
	hotspot := &manualHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	res := &fakeReservation{creds: testCredentials()}
	hotspot.fireStarted(res)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateRunning); err != nil {
		t.Fatalf("never reached RUNNING: %v", err)
	}

	if err := c.Restart(context.Background()); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}

	// By the time the new platform request exists, the old reservation
	// must already be closed: no overlap window.
	if !res.isClosed() {
		t.Error("old reservation still held after Restart issued the new request")
	}
	if hotspot.startCount() != 2 {
		t.Errorf("platform start issued %d times, want 2", hotspot.startCount())
	}
}

func TestConcurrentLifecycleOperations(t *testing.T) {
	hotspot := &platform.LoopbackHotspot{}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = c.Start(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Stop()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = c.Restart(context.Background())
			}
		}()
	}
	wg.Wait()

	// Quiesce: settle whatever operation won.
	c.Stop()
	time.Sleep(50 * time.Millisecond)

	switch got := c.State(); got {
	case StateIdle, StateStopped, StateFailed:
		// Defined quiescent states after an explicit stop.
	default:
		t.Errorf("State = %v at quiescence, not a defined terminal state", got)
	}
}

func TestPlatformAssignedCredentials(t *testing.T) {
	assigned := platform.Credentials{SSID: "AndroidShare_4821", Passphrase: "platform-pass", Gateway: "192.168.49.1"}
	hotspot := &platform.LoopbackHotspot{AssignCredentials: &assigned}
	c := newTestController(t, hotspot, platform.AllGranted{}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, StateRunning); err != nil {
		t.Fatalf("never reached RUNNING: %v", err)
	}

	// The fixed-credential request was refused; the platform-assigned
	// credentials are adopted rather than failing the start.
	if got := c.Credentials().SSID; got != "AndroidShare_4821" {
		t.Errorf("Credentials.SSID = %q, want the platform-assigned name", got)
	}
}
