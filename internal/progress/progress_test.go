package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/linguapet/assets"
	"github.com/robalobadob/linguapet/internal/db"
	"github.com/robalobadob/linguapet/internal/game"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, db.Migrate(d, assets.Migrations()))
	return NewSQLStore(d)
}

// play drives an engine and saves a snapshot after every event, like the host does.
func play(t *testing.T, ctx context.Context, s Sink, player string, kind game.Kind, outcomes ...bool) game.State {
	t.Helper()
	e := game.NewEngine()
	require.NoError(t, s.Save(ctx, Snapshot{PlayerID: player, GameType: kind, State: e.State(), Outcome: OutcomeStarted}))
	for _, ok := range outcomes {
		_, err := e.Evaluate(game.Attempt{Kind: kind, Submitted: "x"}, ok)
		require.NoError(t, err)
		out := OutcomeIncorrect
		if ok {
			out = OutcomeCorrect
		}
		require.NoError(t, s.Save(ctx, Snapshot{PlayerID: player, GameType: kind, State: e.State(), Outcome: out, At: time.Now()}))
	}
	return e.State()
}

func TestSQLStore_SaveAccumulates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	play(t, ctx, s, "p1", game.KindVocabulary, true, true, false)
	play(t, ctx, s, "p1", game.KindVocabulary, true, false)

	r, err := s.Get(ctx, "p1", game.KindVocabulary)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 10, r.Score)
	assert.Equal(t, 30, r.HighestScore)
	assert.Equal(t, 5, r.Attempts)
	assert.Equal(t, 3, r.CorrectCount)
	assert.Equal(t, 2, r.MaxStreak)
	assert.Equal(t, 0, r.Streak)
	assert.Equal(t, 2, r.GamesPlayed)
	assert.InDelta(t, 0.6, r.SuccessRate(), 1e-9)
	assert.False(t, r.LastPlayed.IsZero())
}

func TestSQLStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	r, err := s.Get(context.Background(), "nobody", game.KindStory)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestSQLStore_LevelFollowsLatestSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, Snapshot{PlayerID: "p", GameType: game.KindStory, State: game.State{Level: 4, Lives: 3}, Outcome: OutcomeLevel}))
	require.NoError(t, s.Save(ctx, Snapshot{PlayerID: "p", GameType: game.KindStory, State: game.State{Level: 3, Lives: 3}, Outcome: OutcomeStarted}))

	r, err := s.Get(ctx, "p", game.KindStory)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Level)
	assert.Equal(t, 0, r.Attempts)
	assert.Equal(t, 1, r.GamesPlayed)
}

func TestSQLStore_ForPlayerAndLeaderboard(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	play(t, ctx, s, "alice", game.KindVocabulary, true, true, true)
	play(t, ctx, s, "bob", game.KindVocabulary, true)
	play(t, ctx, s, "carol", game.KindVocabulary, false)
	play(t, ctx, s, "alice", game.KindStory, true)

	recs, err := s.ForPlayer(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, game.KindStory, recs[0].GameType)
	assert.Equal(t, game.KindVocabulary, recs[1].GameType)

	top, err := s.Leaderboard(ctx, game.KindVocabulary, 10)
	require.NoError(t, err)
	require.Len(t, top, 2) // carol never scored
	assert.Equal(t, "alice", top[0].PlayerID)
	assert.Equal(t, 60, top[0].HighestScore)
	assert.Equal(t, "bob", top[1].PlayerID)
}

func TestSQLStore_ClaimAnon(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	play(t, ctx, s, "anon-1", game.KindVocabulary, true)
	play(t, ctx, s, "anon-1", game.KindStory, true)
	play(t, ctx, s, "user-1", game.KindStory, false)

	require.NoError(t, s.ClaimAnon(ctx, "anon-1", "user-1"))

	recs, err := s.ForPlayer(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// The player's own story row wins.
	assert.Equal(t, 0, recs[0].HighestScore)
	assert.Equal(t, 10, recs[1].HighestScore)
}

func TestRecord_Achievements(t *testing.T) {
	assert.Empty(t, Record{}.Achievements())
	r := Record{Level: 5, Score: 600, HighestScore: 1200, MaxStreak: 12, Attempts: 60, CorrectCount: 58}
	assert.Equal(t,
		[]string{"Level Master", "High Scorer", "Streak Champion", "Accuracy Expert", "Persistent Player"},
		r.Achievements())
	assert.Equal(t, 100.0, r.LevelProgress())
}

type failingSink struct{ calls int }

func (f *failingSink) Save(context.Context, Snapshot) error {
	f.calls++
	return errors.New("disk full")
}

func TestCached_KeepsLastSnapshotWhenNextFails(t *testing.T) {
	next := &failingSink{}
	c := NewCached(next)
	ctx := context.Background()

	snap := Snapshot{PlayerID: "p", GameType: game.KindSentence, State: game.State{Score: 40, Level: 2, Lives: 1}}
	err := c.Save(ctx, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, next.calls)

	got, ok := c.Last("p", game.KindSentence)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	_, ok = c.Last("p", game.KindStory)
	assert.False(t, ok)

	c.Forget("p")
	_, ok = c.Last("p", game.KindSentence)
	assert.False(t, ok)
}

func TestCached_ForwardsToStore(t *testing.T) {
	s := openTestStore(t)
	c := NewCached(s)
	ctx := context.Background()
	play(t, ctx, c, "p", game.KindPronunciation, true)

	r, err := s.Get(ctx, "p", game.KindPronunciation)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Score)

	last, ok := c.Last("p", game.KindPronunciation)
	require.True(t, ok)
	assert.Equal(t, 10, last.State.Score)

	assert.NoError(t, NewCached(nil).Save(ctx, Snapshot{PlayerID: "x"}))
}
