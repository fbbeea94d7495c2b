// Package provision submits provisioning payloads to a host's control
// endpoint over a bound attachment. Sends are refused outright when no
// attachment is bound, so no traffic ever leaves over the wrong network.
package provision
