package softap

import (
	"errors"
)

// Controller errors.
var (
	ErrMissingCapability = errors.New("missing capability")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrClosed            = errors.New("controller closed")
)

// State represents the access point lifecycle phase.
type State uint8

const (
	// StateIdle - no reservation exists.
	StateIdle State = iota

	// StateStarting - a platform start is in flight.
	StateStarting

	// StateRunning - the access point is up and credentials are known.
	StateRunning

	// StateStopping - a teardown is in progress.
	StateStopping

	// StateStopped - the platform tore the access point down.
	StateStopped

	// StateFailed - the platform rejected or aborted the reservation.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
