// Package wire defines the provisioning wire protocol: the JSON payload a
// peer pushes to the host's control endpoint, plus the protocol constants
// both sides share (endpoint path, control port, conventional gateway and
// default access point credentials).
//
// The protocol is deliberately lenient at the transport layer: targetSsid
// may be absent or empty and still decodes successfully. Business-level
// validation (rejecting blank network names) belongs to the application
// callback, not to the wire codec.
package wire
