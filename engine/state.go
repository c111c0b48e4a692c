package engine

// State is a per-target step, logged at debug level as the target advances.
type State int

const (
	StateIdle State = iota
	StateLocating
	StateSearchFound
	StateSearchFallback
	StateAwaitingRoomOpen
	StateOpened
	StateSending
	StateClosing
	StateDone
	StateTimedOut
	StateFailed
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateLocating:         "locating",
	StateSearchFound:      "search_found",
	StateSearchFallback:   "search_fallback",
	StateAwaitingRoomOpen: "awaiting_room_open",
	StateOpened:           "opened",
	StateSending:          "sending",
	StateClosing:          "closing",
	StateDone:             "done",
	StateTimedOut:         "timed_out",
	StateFailed:           "failed",
	StateCancelled:        "cancelled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether a target has left the state machine.
func (s State) Terminal() bool {
	return s == StateDone || s == StateTimedOut || s == StateFailed || s == StateCancelled
}
