package domain

import "fmt"

// State is the lifecycle position of a monitoring session.
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateSampling
	StateDiagnosing
	StateDone
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateScheduled:  "scheduled",
	StateSampling:   "sampling",
	StateDiagnosing: "diagnosing",
	StateDone:       "done",
}

// transitions lists the states reachable from each state. Sampling loops on
// itself once per tick. Scheduled may end directly in Done when the process
// shuts down before the warm-up delay elapses.
var transitions = map[State][]State{
	StateIdle:       {StateScheduled},
	StateScheduled:  {StateSampling, StateDone},
	StateSampling:   {StateSampling, StateDiagnosing},
	StateDiagnosing: {StateDone},
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CanTransition reports whether moving from s to next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates a move and returns the new state.
func (s State) Transition(next State) (State, error) {
	if !s.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return next, nil
}

func (s State) Terminal() bool { return s == StateDone }

// ChannelState is a read-only snapshot of a channel session.
type ChannelState struct {
	Channel      string
	SessionID    string
	State        State
	Active       bool
	SamplesTaken int
	SampleCap    int
	Policy       Policy
	History      []Reading
}
