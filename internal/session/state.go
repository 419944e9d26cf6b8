package session

import "fmt"

// State is the session lifecycle state.
type State int

const (
	Connecting State = iota
	AwaitingFirstUpdate
	Live
	Dead
	Disconnected
)

var stateNames = map[State]string{
	Connecting:          "connecting",
	AwaitingFirstUpdate: "awaiting_first_update",
	Live:                "live",
	Dead:                "dead",
	Disconnected:        "disconnected",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the session loop exits in s.
func (s State) Terminal() bool {
	return s == Dead || s == Disconnected
}

var transitions = map[State][]State{
	Connecting:          {AwaitingFirstUpdate, Disconnected},
	AwaitingFirstUpdate: {Live, Disconnected},
	Live:                {Dead, Disconnected},
}

// Next validates the transition from s to to.
func (s State) Next(to State) (State, error) {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, to)
}
