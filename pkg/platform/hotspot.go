package platform

import (
	"context"
)

// Credentials are the live access point's join parameters as assigned by the
// platform. Gateway is the host address peers see once joined.
type Credentials struct {
	SSID       string
	Passphrase string
	Gateway    string
}

// HotspotRequest asks the platform for a local-only access point. SSID and
// Passphrase are preferred values; platforms are free to reject fixed
// credentials and assign their own, which is not an error.
type HotspotRequest struct {
	SSID       string
	Passphrase string
}

// HotspotCallbacks receive the outcome of an asynchronous hotspot start.
// Exactly one of OnStarted or OnFailed is invoked per request; OnStopped may
// follow OnStarted at any time if the platform tears the reservation down.
// Callbacks may be invoked from arbitrary goroutines.
type HotspotCallbacks struct {
	// OnStarted delivers the live reservation and its credentials.
	OnStarted func(Reservation)

	// OnFailed delivers the platform reason code.
	OnFailed func(code int)

	// OnStopped signals a platform-initiated teardown of a reservation
	// previously delivered via OnStarted.
	OnStopped func()
}

// Hotspot is the platform's local access point facility.
type Hotspot interface {
	// StartHotspot begins an asynchronous access point reservation. A nil
	// error means the request was issued; the outcome arrives via cb.
	// Synchronous errors indicate the request could not even be issued.
	StartHotspot(ctx context.Context, req HotspotRequest, cb HotspotCallbacks) error
}

// Reservation is a live access point reservation. Exactly one exists per
// process at a time; it is owned by the access point controller.
type Reservation interface {
	// Credentials returns the platform-assigned join parameters.
	Credentials() Credentials

	// Close releases the reservation. Closing an already-closed
	// reservation is not an error.
	Close() error
}
