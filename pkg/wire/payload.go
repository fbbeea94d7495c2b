package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Protocol constants shared by host and peer.
const (
	// ProvisionPath is the single control-plane endpoint.
	ProvisionPath = "/provision"

	// DefaultControlPort is the fixed, well-known listener port.
	DefaultControlPort = 8989

	// DefaultGateway is the conventional access point gateway address.
	// Platform-assigned gateways vary; prefer the credentials reported by
	// the controller or a discovered endpoint over this constant.
	DefaultGateway = "192.168.49.1"

	// DefaultSSID is the access point name requested by default. The
	// platform may reject the request and assign its own.
	DefaultSSID = "LanDiscoveryAP"

	// DefaultPassphrase is the passphrase requested alongside DefaultSSID.
	DefaultPassphrase = "lan123456"
)

// JSON field names of the provisioning payload.
const (
	FieldTargetSSID       = "targetSsid"
	FieldTargetPassphrase = "targetPassphrase"
	FieldTimestamp        = "timestamp"
)

// Response bodies returned by the control listener.
const (
	// ResponseAccepted is the body of a 200 response.
	ResponseAccepted = "Provisioning payload accepted"

	// ResponseEmptyBody is the body of a 400 response.
	ResponseEmptyBody = "Request body must not be empty"

	// ResponseNotFound is the body of a 404 response.
	ResponseNotFound = "Not found"
)

// ErrNotObject is returned when a payload body is valid JSON but not an object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Payload is a peer-submitted configuration. It is immutable once
// constructed and passed by value to the application callback.
type Payload struct {
	// TargetNetworkName is the network the host should be provisioned
	// onto. May be empty at the wire level; business validation rejects
	// blank names before delivery to the application.
	TargetNetworkName string

	// TargetSecret is the network's passphrase. Empty is allowed.
	TargetSecret string

	// SubmittedAt is the submission time in epoch milliseconds.
	SubmittedAt int64

	// Extensions retains the full parsed request object, including the
	// well-known fields, for forward compatibility.
	Extensions map[string]any
}

// NewPayload constructs a payload stamped with the current time.
func NewPayload(networkName, secret string) Payload {
	return Payload{
		TargetNetworkName: networkName,
		TargetSecret:      secret,
		SubmittedAt:       time.Now().UnixMilli(),
	}
}

// SubmittedTime returns the submission timestamp as a time.Time.
func (p Payload) SubmittedTime() time.Time {
	return time.UnixMilli(p.SubmittedAt)
}

// EncodePayload encodes a payload to its JSON wire form.
func EncodePayload(p Payload) ([]byte, error) {
	obj := map[string]any{
		FieldTargetSSID:       p.TargetNetworkName,
		FieldTargetPassphrase: p.TargetSecret,
		FieldTimestamp:        p.SubmittedAt,
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses a JSON request body into a Payload.
//
// Decoding is lenient: absent or non-string targetSsid/targetPassphrase
// fields decode as empty strings rather than failing. Malformed JSON and
// non-object bodies return an error carrying the parse failure reason.
func DecodePayload(data []byte) (Payload, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return Payload{}, err
	}
	if obj == nil {
		return Payload{}, ErrNotObject
	}

	p := Payload{Extensions: obj}
	if v, ok := obj[FieldTargetSSID].(string); ok {
		p.TargetNetworkName = v
	}
	if v, ok := obj[FieldTargetPassphrase].(string); ok {
		p.TargetSecret = v
	}
	if v, ok := obj[FieldTimestamp].(float64); ok {
		p.SubmittedAt = int64(v)
	}
	return p, nil
}
