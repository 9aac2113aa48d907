// internal/game/engine.go
//
// Progression engine for a single language game run.
// Responsibilities:
//   - Own score, streak, lives and level for one run.
//   - Apply correctness-driven transitions and emit progression events.
//   - Apply externally decided difficulty changes.
//   - Restart a run at a slightly reduced level.
//
// Notes:
//   - The engine is synchronous and performs no I/O. Hosts serialize calls
//     per engine and act on the returned events (persistence, next challenge).
//   - Every transition is computed on a copy of the state and committed in a
//     single assignment, so no intermediate state is observable.
package game

import "math"

// Engine is the authoritative state machine for one player's game run.
type Engine struct {
	state State
}

// Option configures a new Engine.
type Option func(*Engine)

// WithLevel starts the run at level. Values below 1 are ignored; values
// above MaxLevel start at MaxLevel.
func WithLevel(level int) Option {
	return func(e *Engine) {
		if level >= 1 {
			e.state.Level = min(level, MaxLevel)
		}
	}
}

// NewEngine returns an engine in the initial state {score:0, streak:0, lives:3, level:1}.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{state: initialState(startLevel)}
	for _, o := range opts {
		o(e)
	}
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }

// Over reports whether the run has ended.
func (e *Engine) Over() bool { return e.state.Over() }

// Evaluate applies one judged attempt.
//
// Rules:
//   - After game over every call fails with *InvalidStateError and leaves the state unchanged.
//   - Malformed attempts are rejected with *InputError.
//   - Correct: score += 10 * (level + streak), then streak++. The score saturates at math.MaxInt.
//   - Incorrect: lives--, streak = 0; spending the last life also emits GameOver.
func (e *Engine) Evaluate(a Attempt, correct bool) ([]Event, error) {
	if e.state.Over() {
		return nil, &InvalidStateError{Op: "evaluate", State: e.state}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	next := e.state
	next.Attempts++

	var events []Event
	if correct {
		next.Score = addCapped(next.Score, pointsPerStep*(next.Level+next.Streak))
		next.Streak++
		next.CorrectCount++
		if next.Streak > next.MaxStreak {
			next.MaxStreak = next.Streak
		}
		events = append(events, Correct{Score: next.Score, Streak: next.Streak})
	} else {
		next.Lives--
		next.Streak = 0
		events = append(events, Incorrect{LivesRemaining: next.Lives})
		if next.Lives == 0 {
			events = append(events, GameOver{FinalScore: next.Score, MaxStreak: next.MaxStreak})
		}
	}

	e.state = next
	return events, nil
}

// AdjustDifficulty sets the level unconditionally. When to adjust is decided
// elsewhere; score, streak and lives are untouched.
func (e *Engine) AdjustDifficulty(level int) (LevelChanged, error) {
	if level < 1 || level > MaxLevel {
		return LevelChanged{}, ErrInvalidLevel
	}
	ev := LevelChanged{From: e.state.Level, To: level}
	e.state.Level = level
	return ev, nil
}

// Reset starts a new run one level below the previous one (never below 1).
func (e *Engine) Reset() State {
	e.state = initialState(max(startLevel, e.state.Level-1))
	return e.state
}

func addCapped(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
