package log

import (
	"time"
)

// Event represents a status event captured by any lanprov component.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Component that produced the event.
	Component Component `cbor:"2,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Message is a short human-readable status line.
	Message string `cbor:"4,keyasint,omitempty"`

	// OperationID identifies the lifecycle operation (UUID) the event
	// belongs to, so stale callbacks can be correlated after the fact.
	OperationID string `cbor:"5,keyasint,omitempty"`

	// SSID is the network name involved, when applicable.
	SSID string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port), when applicable.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (at most one of these is set).
	StateChange *StateChangeEvent `cbor:"8,keyasint,omitempty"` // Lifecycle transitions
	Error       *ErrorEventData   `cbor:"9,keyasint,omitempty"` // Failures at any layer
}

// Component identifies the lanprov component that produced an event.
type Component uint8

const (
	// ComponentAccessPoint is the host-side access point controller.
	ComponentAccessPoint Component = 0
	// ComponentListener is the host-side control-plane listener.
	ComponentListener Component = 1
	// ComponentAttachment is the peer-side attachment manager.
	ComponentAttachment Component = 2
	// ComponentSender is the peer-side provisioning sender.
	ComponentSender Component = 3
	// ComponentDiscovery is the mDNS endpoint advertiser/browser.
	ComponentDiscovery Component = 4
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentAccessPoint:
		return "ACCESS_POINT"
	case ComponentListener:
		return "LISTENER"
	case ComponentAttachment:
		return "ATTACHMENT"
	case ComponentSender:
		return "SENDER"
	case ComponentDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryStatus indicates a plain status line.
	CategoryStatus Category = 0
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategoryPayload indicates a received or sent provisioning payload.
	CategoryPayload Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryStatus:
		return "STATUS"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryPayload:
		return "PAYLOAD"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures lifecycle transitions of the access point,
// listener or attachment state machines.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures failures at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the platform reason code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
