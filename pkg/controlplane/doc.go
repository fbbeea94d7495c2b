// Package controlplane implements the HTTP control endpoint served on the
// access point network. Peers that joined the network submit provisioning
// payloads to it; the listener validates and decodes each submission and
// hands accepted payloads to the embedding application.
package controlplane
