package platform

// Capability identifies a platform permission the core requires before
// touching wireless state. Prompting the user for grants is the embedding
// application's job; the core only checks.
type Capability uint8

const (
	// CapabilityLocation is required to read wireless network identities.
	CapabilityLocation Capability = 0
	// CapabilityProximity is required to create or join nearby networks.
	CapabilityProximity Capability = 1
	// CapabilityNetworkChange is required to alter the process network binding.
	CapabilityNetworkChange Capability = 2
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapabilityLocation:
		return "LOCATION"
	case CapabilityProximity:
		return "PROXIMITY"
	case CapabilityNetworkChange:
		return "NETWORK_CHANGE"
	default:
		return "UNKNOWN"
	}
}

// RequiredCapabilities lists every capability the access point controller
// checks before starting.
func RequiredCapabilities() []Capability {
	return []Capability{CapabilityLocation, CapabilityProximity, CapabilityNetworkChange}
}

// CapabilityChecker reports whether a platform capability has been granted.
// Implementations must be safe for concurrent use.
type CapabilityChecker interface {
	Granted(c Capability) bool
}

// AllGranted is a CapabilityChecker that grants everything. Used with the
// loopback platform and in tests.
type AllGranted struct{}

// Granted always returns true.
func (AllGranted) Granted(Capability) bool { return true }

// StaticCapabilities is a fixed capability table. Capabilities absent from
// the map are treated as denied.
type StaticCapabilities map[Capability]bool

// Granted returns the table entry for c.
func (s StaticCapabilities) Granted(c Capability) bool { return s[c] }

// Compile-time interface satisfaction checks.
var (
	_ CapabilityChecker = AllGranted{}
	_ CapabilityChecker = StaticCapabilities{}
)
