package challenge

import (
	"context"

	"github.com/robalobadob/linguapet/internal/game"
)

// Progress is what the provider knows about the player's run so far.
type Progress struct {
	Score     int `json:"score"`
	Streak    int `json:"streak"`
	Attempts  int `json:"attempts"`
	Correct   int `json:"correct"`
	MaxStreak int `json:"maxStreak"`
}

// ProgressOf summarizes a progression state for a challenge request.
func ProgressOf(s game.State) Progress {
	return Progress{
		Score:     s.Score,
		Streak:    s.Streak,
		Attempts:  s.Attempts,
		Correct:   s.CorrectCount,
		MaxStreak: s.MaxStreak,
	}
}

// Request asks for the next challenge of a game.
type Request struct {
	GameType  game.Kind
	Level     int
	Progress  Progress
	Previous  *game.Performance // nil for the first challenge of a run
	ExcludeID string            // usually the challenge just answered
}

// Provider supplies challenges. The host calls it after observing the
// progression events of an answer.
type Provider interface {
	Next(ctx context.Context, req Request) (game.Challenge, error)
}

var _ Provider = (*Bank)(nil)
