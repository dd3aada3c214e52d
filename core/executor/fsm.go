package executor

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of the interstitial slot.
type State string

const (
	Unloaded State = "unloaded"
	Loading  State = "loading"
	Loaded   State = "loaded"
	Showing  State = "showing"
)

var errInvalidTransition = errors.New("invalid state transition")

type stateMachine struct {
	currentState State
	transitions  map[State]map[State]struct{}
}

var slotTransitions = map[State]map[State]struct{}{
	Unloaded: {
		Loading: struct{}{},
	},
	Loading: {
		Loaded:   struct{}{},
		Unloaded: struct{}{},
	},
	Loaded: {
		Showing: struct{}{},
	},
	Showing: {
		Unloaded: struct{}{},
		Loading:  struct{}{},
	},
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		currentState: Unloaded,
		transitions:  slotTransitions,
	}
}

func (sm *stateMachine) Transition(nextState State) error {
	if allowedStates, ok := sm.transitions[sm.currentState]; ok {
		if _, ok = allowedStates[nextState]; ok {
			sm.currentState = nextState
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", errInvalidTransition, sm.currentState, nextState)
}

// reset drops the slot back to Unloaded regardless of the current state.
func (sm *stateMachine) reset() {
	sm.currentState = Unloaded
}

func (sm *stateMachine) GetCurrentState() State {
	return sm.currentState
}
