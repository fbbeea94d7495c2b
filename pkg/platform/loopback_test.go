package platform

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackHotspotStart(t *testing.T) {
	hotspot := &LoopbackHotspot{}

	var got Reservation
	started := make(chan struct{})
	err := hotspot.StartHotspot(context.Background(), HotspotRequest{SSID: "LanDiscoveryAP", Passphrase: "lan123456"}, HotspotCallbacks{
		OnStarted: func(res Reservation) {
			got = res
			close(started)
		},
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("OnStarted never fired")
	}

	creds := got.Credentials()
	assert.Equal(t, "LanDiscoveryAP", creds.SSID)
	assert.Equal(t, "127.0.0.1", creds.Gateway)
	assert.Equal(t, 1, hotspot.StartCount())

	require.NoError(t, got.Close())
	require.NoError(t, got.Close(), "Close must be idempotent")
}

func TestLoopbackHotspotAssignedCredentials(t *testing.T) {
	assigned := Credentials{SSID: "AndroidShare_4821", Passphrase: "platform-pass", Gateway: "127.0.0.1"}
	hotspot := &LoopbackHotspot{AssignCredentials: &assigned}

	started := make(chan Credentials, 1)
	err := hotspot.StartHotspot(context.Background(), HotspotRequest{SSID: "Wanted"}, HotspotCallbacks{
		OnStarted: func(res Reservation) { started <- res.Credentials() },
	})
	require.NoError(t, err)

	select {
	case creds := <-started:
		assert.Equal(t, "AndroidShare_4821", creds.SSID, "platform-assigned name wins over the request")
	case <-time.After(time.Second):
		t.Fatal("OnStarted never fired")
	}
}

func TestLoopbackHotspotExternalStop(t *testing.T) {
	hotspot := &LoopbackHotspot{}

	started := make(chan struct{})
	stopped := make(chan struct{})
	err := hotspot.StartHotspot(context.Background(), HotspotRequest{SSID: "x"}, HotspotCallbacks{
		OnStarted: func(Reservation) { close(started) },
		OnStopped: func() { close(stopped) },
	})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("OnStarted never fired")
	}

	hotspot.TriggerExternalStop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("OnStopped never fired")
	}
}

func TestLoopbackHotspotFailCode(t *testing.T) {
	code := 3
	hotspot := &LoopbackHotspot{FailCode: &code}

	failed := make(chan int, 1)
	err := hotspot.StartHotspot(context.Background(), HotspotRequest{}, HotspotCallbacks{
		OnFailed: func(c int) { failed <- c },
	})
	require.NoError(t, err)

	select {
	case got := <-failed:
		assert.Equal(t, 3, got)
	case <-time.After(time.Second):
		t.Fatal("OnFailed never fired")
	}
}

func TestLoopbackRequesterLifecycle(t *testing.T) {
	requester := &LoopbackRequester{}

	available := make(chan Network, 1)
	lost := make(chan Network, 1)
	release, err := requester.RequestNetwork(context.Background(), NetworkSpec{SSID: "LanDiscoveryAP"}, NetworkCallbacks{
		OnAvailable: func(n Network) { available <- n },
		OnLost:      func(n Network) { lost <- n },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, requester.RequestCount())

	var network Network
	select {
	case network = <-available:
	case <-time.After(time.Second):
		t.Fatal("OnAvailable never fired")
	}
	require.NotNil(t, network)
	assert.NotEmpty(t, network.ID())

	requester.TriggerLoss()
	select {
	case gone := <-lost:
		assert.Equal(t, network.ID(), gone.ID())
	case <-time.After(time.Second):
		t.Fatal("OnLost never fired")
	}

	// After release, further platform callbacks are suppressed.
	release()
	requester.TriggerLoss()
	select {
	case <-lost:
		t.Fatal("loss delivered after release")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoopbackRequesterUnavailable(t *testing.T) {
	requester := &LoopbackRequester{Unavailable: true}

	unavailable := make(chan struct{}, 1)
	_, err := requester.RequestNetwork(context.Background(), NetworkSpec{SSID: "x"}, NetworkCallbacks{
		OnUnavailable: func() { unavailable <- struct{}{} },
	})
	require.NoError(t, err)

	select {
	case <-unavailable:
	case <-time.After(time.Second):
		t.Fatal("OnUnavailable never fired")
	}
}

func TestLoopbackBinder(t *testing.T) {
	binder := &LoopbackBinder{}
	network := NewLoopbackNetwork("LanDiscoveryAP")

	require.NoError(t, binder.BindProcessToNetwork(network))
	require.NotNil(t, binder.Bound())
	assert.Equal(t, network.ID(), binder.Bound().ID())
	assert.Equal(t, 1, binder.BindCount())

	require.NoError(t, binder.ClearProcessBinding())
	assert.Nil(t, binder.Bound())
	assert.Equal(t, 1, binder.ClearCount())
}

func TestLoopbackNetworkDial(t *testing.T) {
	network := NewLoopbackNetwork("LanDiscoveryAP")
	assert.Equal(t, "LanDiscoveryAP", network.SSID())

	// Dialing a closed port still proves the handle dials over loopback.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := network.DialContext(ctx, "tcp", "127.0.0.1:1")
	if err == nil {
		conn.Close()
	}
}
