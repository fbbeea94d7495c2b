package provision

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/platform"
	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// staticSource returns a fixed network handle, or nil when unbound.
type staticSource struct {
	network platform.Network
}

func (s *staticSource) BoundNetwork() platform.Network { return s.network }

// splitHostPort extracts gateway and port from an httptest server URL.
func splitHostPort(t *testing.T, url string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(url[len("http://"):])
	if err != nil {
		t.Fatalf("bad test server URL %q: %v", url, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("bad test server port %q: %v", portStr, err)
	}
	return host, port
}

func TestSendRequiresBoundAttachment(t *testing.T) {
	source := &staticSource{} // unbound

	s, err := NewSender(Config{Attachment: source})
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	err = s.Send(context.Background(), "HomeWifi", "secret123")
	if !errors.Is(err, ErrNotBound) {
		t.Fatalf("Send = %v, want ErrNotBound", err)
	}
}

func TestSendDelivered(t *testing.T) {
	var received wire.Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != wire.ProvisionPath {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		p, err := wire.DecodePayload(body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		received = p
		io.WriteString(w, wire.ResponseAccepted)
	}))
	defer server.Close()

	gateway, port := splitHostPort(t, server.URL)
	source := &staticSource{network: platform.NewLoopbackNetwork("LanDiscoveryAP")}

	s, err := NewSender(Config{Attachment: source, Gateway: gateway, Port: port})
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	if err := s.Send(context.Background(), "HomeWifi", "secret123"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if received.TargetNetworkName != "HomeWifi" || received.TargetSecret != "secret123" {
		t.Errorf("host received %+v, want HomeWifi/secret123", received)
	}
	if received.SubmittedAt == 0 {
		t.Error("payload missing submission timestamp")
	}
}

func TestSendRejectedByHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway, port := splitHostPort(t, server.URL)
	source := &staticSource{network: platform.NewLoopbackNetwork("LanDiscoveryAP")}

	s, err := NewSender(Config{Attachment: source, Gateway: gateway, Port: port})
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	err = s.Send(context.Background(), "HomeWifi", "secret123")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("Send = %v, want ErrSendFailed", err)
	}
}

func TestSendConnectFailure(t *testing.T) {
	// A closed server: connection refused must collapse the same way a
	// server-side rejection does.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gateway, port := splitHostPort(t, server.URL)
	server.Close()

	source := &staticSource{network: platform.NewLoopbackNetwork("LanDiscoveryAP")}
	s, err := NewSender(Config{Attachment: source, Gateway: gateway, Port: port})
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	err = s.Send(context.Background(), "HomeWifi", "secret123")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("Send = %v, want ErrSendFailed", err)
	}
}

func TestSendTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	gateway, port := splitHostPort(t, server.URL)
	source := &staticSource{network: platform.NewLoopbackNetwork("LanDiscoveryAP")}

	s, err := NewSender(Config{
		Attachment:     source,
		Gateway:        gateway,
		Port:           port,
		ConnectTimeout: 50 * time.Millisecond,
		ReadTimeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSender failed: %v", err)
	}

	start := time.Now()
	err = s.Send(context.Background(), "HomeWifi", "secret123")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("Send = %v, want ErrSendFailed", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took far longer than configured")
	}
}
