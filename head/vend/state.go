package vend

// State of one vending session. Dispensing and Refunding are
// momentary: operations pass through them and settle back in Idle
// before returning.
type State uint32

const (
	StateIdle State = iota
	StateSelected
	StateDispensing
	StateRefunding
)

func (self State) String() string {
	switch self {
	case StateIdle:
		return "idle"
	case StateSelected:
		return "selected"
	case StateDispensing:
		return "dispensing"
	case StateRefunding:
		return "refunding"
	}
	return "unknown!"
}
