package gomq

// State of the session.
type State uint8

const (
	Idle State = iota
	ResolvingName
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ResolvingName:
		return "resolving"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	}
	return "unknown"
}
