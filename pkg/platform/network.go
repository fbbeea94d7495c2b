package platform

import (
	"context"
	"net"
)

// NetworkSpec identifies the access point a scoped network request targets.
// Passphrase may be empty for open networks.
type NetworkSpec struct {
	SSID       string
	Passphrase string
}

// NetworkCallbacks receive scoped network lifecycle events. At most one of
// OnAvailable or OnUnavailable is invoked per request; OnLost may follow
// OnAvailable at any time. Callbacks may be invoked from arbitrary
// goroutines.
type NetworkCallbacks struct {
	// OnAvailable delivers the attached network handle.
	OnAvailable func(Network)

	// OnUnavailable signals the platform could not satisfy the request.
	OnUnavailable func()

	// OnLost signals a previously available network has gone away. The
	// lost handle is passed so stale notifications can be recognized.
	OnLost func(Network)
}

// Requester is the platform's scoped network request facility: a connection
// to a specific named access point, isolated from the default data path.
type Requester interface {
	// RequestNetwork begins an asynchronous scoped attachment. The
	// returned release function unregisters the callbacks and abandons
	// the request; it is idempotent. A synchronous error means the
	// request could not be issued and no callback will fire.
	RequestNetwork(ctx context.Context, spec NetworkSpec, cb NetworkCallbacks) (release func(), err error)
}

// Network is an opaque handle to a live scoped attachment. Connections
// opened through DialContext travel over the attachment's link rather than
// the process default route.
type Network interface {
	// ID uniquely identifies this handle for equality checks.
	ID() string

	// DialContext opens a connection over this network.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Binder pins or unpins the process-wide default traffic route.
type Binder interface {
	// BindProcessToNetwork routes all default traffic over n.
	BindProcessToNetwork(n Network) error

	// ClearProcessBinding restores the system default route. Clearing an
	// absent binding is not an error.
	ClearProcessBinding() error
}
