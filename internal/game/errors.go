package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is wrapped by every InvalidStateError.
	ErrInvalidState = errors.New("invalid game state")

	// ErrInvalidLevel is returned for a difficulty outside [1, MaxLevel].
	ErrInvalidLevel = fmt.Errorf("level must be between 1 and %d", MaxLevel)

	// ErrLevelLocked is returned when a player picks a level the run has not reached.
	ErrLevelLocked = errors.New("level not unlocked yet")
)

// InputError reports a malformed attempt. The state machine is never touched.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an operation that is illegal in the current
// state, e.g. answering after game over. Hosts must ignore input until reset.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: game over (score %d), reset required", e.Op, e.State.Score)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }
