package session

import "fmt"

type State string

const (
	StateInitial     State = "initial"
	StateCropping    State = "cropping"
	StateCompositing State = "compositing"
	StateReady       State = "ready"
)

// Trigger names an input to the state machine.
type Trigger string

const (
	TriggerSelectFile Trigger = "select_file"
	TriggerConfirm    Trigger = "confirm"
	TriggerComposed   Trigger = "composed"
	TriggerFail       Trigger = "fail"
	TriggerCancel     Trigger = "cancel"
	TriggerReset      Trigger = "reset"
)

var transitions = map[State]map[Trigger]State{
	StateInitial: {
		TriggerSelectFile: StateCropping,
		TriggerFail:       StateInitial,
	},
	StateCropping: {
		TriggerConfirm: StateCompositing,
		TriggerCancel:  StateInitial,
	},
	StateCompositing: {
		TriggerComposed: StateReady,
		TriggerFail:     StateInitial,
	},
	StateReady: {
		TriggerReset: StateInitial,
	},
}

// Next returns the state reached from s on t.
func (s State) Next(t Trigger) (State, error) {
	if next, ok := transitions[s][t]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, t, s)
}
