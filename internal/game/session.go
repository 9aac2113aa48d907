package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Performance summarizes the answer given to the previous challenge.
type Performance struct {
	Correct        bool `json:"correct"`
	ResponseTimeMs int  `json:"responseTimeMs"`
}

// Session is a host-side game run: the engine plus the bookkeeping needed to
// serve challenges. Callers hold the embedded mutex while using a session.
type Session struct {
	sync.Mutex

	ID        string
	PlayerID  string
	Kind      Kind
	Engine    *Engine
	StartedAt time.Time

	Current  *Challenge  // nil when no challenge is outstanding
	IssuedAt time.Time   // when Current was served
	Previous *Performance // outcome of the last answered challenge

	// Unlocked is the highest level this run has started at or been promoted
	// to. Players may pick any level up to it.
	Unlocked int

	window []bool // outcomes since the last level decision
}

// NewSession starts a run of kind for playerID.
func NewSession(playerID string, kind Kind, opts ...Option) *Session {
	e := NewEngine(opts...)
	return &Session{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Kind:      kind,
		Engine:    e,
		StartedAt: time.Now(),
		Unlocked:  e.State().Level,
	}
}

// Issue makes c the outstanding challenge, served at now.
func (s *Session) Issue(c Challenge, now time.Time) {
	s.Current = &c
	s.IssuedAt = now
}

// Elapsed returns the time since the outstanding challenge was served, in ms.
// It must be read before the next Issue resets the timestamp.
func (s *Session) Elapsed(now time.Time) int {
	if s.IssuedAt.IsZero() {
		return 0
	}
	return int(now.Sub(s.IssuedAt).Milliseconds())
}

// Record stores the outcome of the answered challenge and clears it.
func (s *Session) Record(correct bool, responseTimeMs int) {
	s.Previous = &Performance{Correct: correct, ResponseTimeMs: responseTimeMs}
	s.Current = nil
	s.window = append(s.window, correct)
}

// Adapt moves the level once AdaptWindow answers have been recorded since the
// last decision, using NextLevel. It reports whether the level changed.
// Finished runs are left alone.
func (s *Session) Adapt() (LevelChanged, bool) {
	if len(s.window) < AdaptWindow || s.Engine.Over() {
		return LevelChanged{}, false
	}
	correct := 0
	for _, ok := range s.window {
		if ok {
			correct++
		}
	}
	total := len(s.window)
	s.window = s.window[:0]

	level := s.Engine.State().Level
	to := NextLevel(level, correct, total)
	if to == level {
		return LevelChanged{}, false
	}
	ev, err := s.Engine.AdjustDifficulty(to)
	if err != nil {
		return LevelChanged{}, false
	}
	s.Unlocked = max(s.Unlocked, to)
	return ev, true
}

// SetLevel applies a level the player picked. Only levels up to Unlocked
// are allowed; anything higher fails with ErrLevelLocked.
func (s *Session) SetLevel(level int) (LevelChanged, error) {
	if level > s.Unlocked && level <= MaxLevel {
		return LevelChanged{}, ErrLevelLocked
	}
	return s.Engine.AdjustDifficulty(level)
}

// Restart resets the engine and drops the outstanding challenge and the
// pending level decision. Unlocked levels stay unlocked.
func (s *Session) Restart() State {
	st := s.Engine.Reset()
	s.Current = nil
	s.Previous = nil
	s.window = nil
	return st
}
