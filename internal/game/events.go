package game

// EventType tags a progression event.
type EventType string

const (
	EventCorrect      EventType = "correct"
	EventIncorrect    EventType = "incorrect"
	EventGameOver     EventType = "game_over"
	EventLevelChanged EventType = "level_changed"
)

// Event is emitted by Engine transitions. The set is closed: Correct,
// Incorrect, GameOver and LevelChanged.
type Event interface {
	Type() EventType
}

// Correct follows a correct attempt.
type Correct struct {
	Score  int `json:"score"`
	Streak int `json:"streak"`
}

// Incorrect follows a wrong attempt.
type Incorrect struct {
	LivesRemaining int `json:"livesRemaining"`
}

// GameOver follows the Incorrect event that spent the last life.
type GameOver struct {
	FinalScore int `json:"finalScore"`
	MaxStreak  int `json:"maxStreak"`
}

// LevelChanged follows AdjustDifficulty.
type LevelChanged struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (Correct) Type() EventType      { return EventCorrect }
func (Incorrect) Type() EventType    { return EventIncorrect }
func (GameOver) Type() EventType     { return EventGameOver }
func (LevelChanged) Type() EventType { return EventLevelChanged }

// Up reports whether the change raised the difficulty.
func (e LevelChanged) Up() bool { return e.To > e.From }
