package attachment

import "errors"

var (
	// ErrInvalidConfig indicates a missing required configuration field.
	ErrInvalidConfig = errors.New("invalid attachment config")

	// ErrClosed indicates the manager has been closed.
	ErrClosed = errors.New("attachment manager is closed")
)

// State represents the attachment lifecycle state.
type State uint8

const (
	// StateIdle means no attachment exists or is being requested.
	StateIdle State = iota

	// StateRequesting means a platform network request is in flight.
	StateRequesting

	// StateBound means the network is attached and process traffic is
	// pinned to it.
	StateBound

	// StateUnavailable means the platform reported the requested network
	// cannot be satisfied.
	StateUnavailable

	// StateLost means a previously bound network went away.
	StateLost
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRequesting:
		return "REQUESTING"
	case StateBound:
		return "BOUND"
	case StateUnavailable:
		return "UNAVAILABLE"
	case StateLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}
