package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeEndpoint is the service type for provisioning control
	// endpoints.
	ServiceTypeEndpoint = "_lanprov._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// TXT record key constants.
const (
	// TXTKeySSID is the access point network name.
	TXTKeySSID = "ssid"

	// TXTKeyGateway is the control endpoint gateway address.
	TXTKeyGateway = "gw"

	// TXTKeyPath is the provisioning path (optional, defaults apply).
	TXTKeyPath = "path"
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// Errors.
var (
	// ErrMissingRequired indicates a required TXT record is missing.
	ErrMissingRequired = errors.New("missing required TXT record")

	// ErrNotFound indicates no endpoint was discovered before the deadline.
	ErrNotFound = errors.New("no endpoint found")
)

// EndpointInfo describes an advertised control endpoint.
type EndpointInfo struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// SSID is the access point network name peers must join.
	SSID string

	// Gateway is the control endpoint address on that network.
	Gateway string

	// Port is the control endpoint port.
	Port int

	// Path is the provisioning path.
	Path string
}

// EndpointService is a discovered endpoint with its resolved addresses.
type EndpointService struct {
	EndpointInfo

	// Host is the mDNS host name.
	Host string

	// Addresses are the resolved IP addresses, aggregated across
	// interfaces.
	Addresses []string
}
