package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextLevel(t *testing.T) {
	tests := []struct {
		name                  string
		level, correct, total int
		want                  int
	}{
		{"all correct goes up", 3, 3, 3, 4},
		{"one mistake in ten goes up", 3, 9, 10, 4},
		{"one mistake in three stays", 3, 2, 3, 3},
		{"half right stays", 3, 5, 10, 3},
		{"under half goes down", 3, 1, 3, 2},
		{"six mistakes go down", 3, 14, 20, 2},
		{"never below one", 1, 0, 3, 1},
		{"never above max", MaxLevel, 3, 3, MaxLevel},
		{"empty window", 4, 0, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextLevel(tt.level, tt.correct, tt.total))
		})
	}
}

func answer(t *testing.T, s *Session, correct bool) []Event {
	t.Helper()
	events, err := s.Engine.Evaluate(vocab("a"), correct)
	require.NoError(t, err)
	s.Record(correct, 1000)
	if ev, ok := s.Adapt(); ok {
		events = append(events, ev)
	}
	return events
}

func TestSession_AdaptPromotesAfterWindow(t *testing.T) {
	s := NewSession("p1", KindVocabulary)
	assert.Equal(t, 1, s.Unlocked)

	for i := 0; i < AdaptWindow-1; i++ {
		assert.Len(t, answer(t, s, true), 1)
	}
	events := answer(t, s, true)
	require.Len(t, events, 2)
	assert.Equal(t, LevelChanged{From: 1, To: 2}, events[1])
	assert.Equal(t, 2, s.Engine.State().Level)
	assert.Equal(t, 2, s.Unlocked)

	// The window starts over after a decision.
	for i := 0; i < AdaptWindow-1; i++ {
		assert.Len(t, answer(t, s, true), 1)
	}
}

func TestSession_AdaptDemotesButKeepsUnlocked(t *testing.T) {
	s := NewSession("p1", KindVocabulary, WithLevel(4))

	answer(t, s, true)
	answer(t, s, false)
	events := answer(t, s, true)
	assert.Len(t, events, 1, "two of three right keeps the level")

	answer(t, s, false)
	answer(t, s, true)
	require.False(t, s.Engine.Over())
	events = answer(t, s, true)
	assert.Len(t, events, 1)

	s = NewSession("p1", KindVocabulary, WithLevel(4))
	answer(t, s, false)
	answer(t, s, true)
	events = answer(t, s, false)
	require.False(t, s.Engine.Over())
	require.Len(t, events, 2)
	assert.Equal(t, LevelChanged{From: 4, To: 3}, events[1])
	assert.Equal(t, 4, s.Unlocked)

	// The last life goes: a finished run is not adapted.
	answer(t, s, true)
	answer(t, s, true)
	events = answer(t, s, false)
	require.True(t, s.Engine.Over())
	assert.Len(t, events, 2)
	assert.Equal(t, 3, s.Engine.State().Level)
}

func TestSession_SetLevel(t *testing.T) {
	s := NewSession("p1", KindSentence, WithLevel(3))

	_, err := s.SetLevel(4)
	assert.ErrorIs(t, err, ErrLevelLocked)
	_, err = s.SetLevel(MaxLevel + 1)
	assert.ErrorIs(t, err, ErrInvalidLevel)
	_, err = s.SetLevel(0)
	assert.ErrorIs(t, err, ErrInvalidLevel)
	assert.Equal(t, 3, s.Engine.State().Level)

	ev, err := s.SetLevel(1)
	require.NoError(t, err)
	assert.Equal(t, LevelChanged{From: 3, To: 1}, ev)

	ev, err = s.SetLevel(3)
	require.NoError(t, err)
	assert.True(t, ev.Up())
}

func TestSession_Restart(t *testing.T) {
	s := NewSession("p1", KindStory, WithLevel(2))
	s.Issue(Challenge{ID: "c1"}, s.StartedAt)
	answer(t, s, true)
	answer(t, s, false)

	st := s.Restart()
	assert.Equal(t, State{Lives: 3, Level: 1}, st)
	assert.Nil(t, s.Current)
	assert.Nil(t, s.Previous)
	assert.Equal(t, 2, s.Unlocked)

	// The two answers before the restart do not count toward the next decision.
	for i := 0; i < AdaptWindow-1; i++ {
		assert.Len(t, answer(t, s, true), 1)
	}
}
