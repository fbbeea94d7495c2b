// Package softap manages the lifecycle of one ephemeral local access point.
//
// The Controller owns the platform reservation exclusively and drives a
// small state machine: Idle -> Starting -> Running, Running -> Stopping ->
// Stopped, with any state falling to Failed on a platform error. Failed and
// Stopped are terminal for that reservation, but a fresh Start call
// re-enters at Starting.
//
// Platform callbacks are delivered as discrete events into a single-consumer
// channel, so transitions are applied by one goroutine and the transition
// table is testable without a real platform. Callbacks belonging to an
// operation that has since been superseded are dropped as stale; a stale
// started callback still releases its reservation so nothing leaks.
package softap
