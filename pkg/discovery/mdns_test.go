package discovery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lanprov-protocol/lanprov-go/pkg/discovery"
)

// TestMDNSAdvertiserLifecycle verifies advertising and withdrawing an
// endpoint announcement.
func TestMDNSAdvertiserLifecycle(t *testing.T) {
	adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	defer adv.Stop()

	info := &discovery.EndpointInfo{
		SSID:    "LanDiscoveryAP",
		Gateway: "192.168.49.1",
		Port:    8989,
	}

	if err := adv.Advertise(info); err != nil {
		t.Fatalf("Failed to advertise endpoint: %v", err)
	}

	// Re-advertising replaces the announcement rather than erroring.
	info.Port = 9090
	if err := adv.Advertise(info); err != nil {
		t.Fatalf("Failed to re-advertise endpoint: %v", err)
	}

	adv.Stop()
	adv.Stop() // safe to repeat
}

// TestMDNSBrowserFindTimeout verifies FindEndpoint gives up cleanly when
// nothing is advertised.
func TestMDNSBrowserFindTimeout(t *testing.T) {
	browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := browser.FindEndpoint(ctx)
	if !errors.Is(err, discovery.ErrNotFound) {
		t.Errorf("FindEndpoint = %v, want ErrNotFound", err)
	}
}
