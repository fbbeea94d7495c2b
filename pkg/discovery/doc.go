// Package discovery announces and finds provisioning control endpoints via
// mDNS. A host running an access point advertises its endpoint so peers on
// the network can resolve the gateway and port instead of relying purely on
// the fixed conventions.
package discovery
