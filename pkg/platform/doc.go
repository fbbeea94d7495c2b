// Package platform defines the interfaces lanprov requires from the hosting
// platform: local access-point reservations, scoped network requests,
// process-wide traffic binding and capability checks.
//
// The core packages (softap, attachment, provision) depend only on these
// interfaces. Real implementations wrap the operating system's wireless and
// connectivity APIs; the Loopback* implementations in this package simulate
// the platform over the host loopback interface so the host and peer
// binaries can interoperate on a single machine and the state machines can
// be tested without real hardware.
package platform
