// internal/game/types.go
//
// Core type definitions for the language game.
// Defines:
//   - Kind: the challenge/game type enum (vocabulary, pronunciation, sentence, story).
//   - Challenge + Payload: externally supplied challenge data.
//   - Attempt: one answer submission.
//   - State: the progression state owned by Engine.

package game

import (
	"fmt"
	"strings"
)

// Kind identifies a challenge type. Each kind is judged differently.
type Kind string

const (
	KindVocabulary    Kind = "vocabulary"
	KindPronunciation Kind = "pronunciation"
	KindSentence      Kind = "sentence"
	KindStory         Kind = "story"
)

// Kinds lists every supported kind in display order.
var Kinds = []Kind{KindVocabulary, KindPronunciation, KindSentence, KindStory}

// ParseKind maps a game type tag ("Vocabulary", " story ") to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown game type %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVocabulary, KindPronunciation, KindSentence, KindStory:
		return true
	}
	return false
}

// Payload carries the kind-specific display data of a challenge.
// The engine never reads it.
type Payload struct {
	Word      string   `json:"word,omitempty" yaml:"word,omitempty"`           // vocabulary, pronunciation
	Options   []string `json:"options,omitempty" yaml:"options,omitempty"`     // vocabulary, story
	Prompt    string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`       // sentence
	Words     []string `json:"words,omitempty" yaml:"words,omitempty"`         // sentence word bank
	StoryText string   `json:"storyText,omitempty" yaml:"storyText,omitempty"` // story
	Topic     string   `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// Challenge is one question served to the player.
type Challenge struct {
	ID           string  `json:"id"`
	Kind         Kind    `json:"kind"`
	Level        int     `json:"level"`
	TargetAnswer string  `json:"-"` // never sent to clients
	Payload      Payload `json:"payload"`
}

// Attempt is a single answer submission for the current challenge.
type Attempt struct {
	Kind           Kind
	Submitted      string // selected option, built sentence or speech transcript
	ResponseTimeMs int
}

// Validate rejects malformed attempts before they reach the state machine.
func (a Attempt) Validate() error {
	if a.Kind == "" {
		return &InputError{Field: "kind", Reason: "missing"}
	}
	if !a.Kind.Valid() {
		return &InputError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", a.Kind)}
	}
	if strings.TrimSpace(a.Submitted) == "" {
		return &InputError{Field: "submitted", Reason: "missing"}
	}
	if a.ResponseTimeMs < 0 {
		return &InputError{Field: "responseTimeMs", Reason: "must not be negative"}
	}
	return nil
}

// State is the progression state of one game run.
type State struct {
	Score  int `json:"score"`
	Streak int `json:"streak"`
	Lives  int `json:"lives"`
	Level  int `json:"level"`

	MaxStreak    int `json:"maxStreak"`    // longest streak this run
	Attempts     int `json:"attempts"`     // evaluated attempts this run
	CorrectCount int `json:"correctCount"` // correct attempts this run
}

const (
	startLives = 3
	startLevel = 1

	// pointsPerStep scales score gains: 10 * (level + streak).
	pointsPerStep = 10

	// levelGoal is the score per level that fills the progress bar.
	levelGoal = 100
)

// MaxLevel is the hardest difficulty a run can reach.
const MaxLevel = 10

// initialState returns a fresh run at the given level.
func initialState(level int) State {
	return State{Lives: startLives, Level: level}
}

// Over reports whether the run has ended (no lives left).
func (s State) Over() bool { return s.Lives <= 0 }

// LevelProgress returns how far the score has advanced toward the current
// level's goal, as a percentage capped at 100.
func (s State) LevelProgress() float64 {
	if s.Level < 1 {
		return 0
	}
	p := float64(s.Score) / float64(s.Level*levelGoal) * 100
	return min(100, p)
}
