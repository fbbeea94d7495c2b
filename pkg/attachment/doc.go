// Package attachment manages the peer's scoped attachment to the host's
// access point network: requesting the network from the platform, pinning
// process traffic to it while it is bound, and unpinning on every exit path.
package attachment
