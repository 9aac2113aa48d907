package daily

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/linguapet/assets"
	"github.com/robalobadob/linguapet/internal/db"
)

func TestPickIndex(t *testing.T) {
	morning := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, PickIndex(morning, "salt", 7), PickIndex(evening, "salt", 7))
	assert.Equal(t, 0, PickIndex(morning, "salt", 0))

	seen := map[int]bool{}
	for d := 0; d < 60; d++ {
		i := PickIndex(morning.AddDate(0, 0, d), "salt", 7)
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, 7)
		seen[i] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestPick(t *testing.T) {
	day := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	_, _, ok := Pick[string](day, "salt", nil)
	assert.False(t, ok)

	words := []string{"dog", "apple", "yellow", "elephant"}
	w, idx, ok := Pick(day, "salt", words)
	require.True(t, ok)
	assert.Equal(t, words[idx], w)
	assert.Equal(t, PickIndex(day, "salt", len(words)), idx)
}

func TestDateKey_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	assert.Equal(t, "2026-03-13", DateKey(time.Date(2026, 3, 14, 8, 0, 0, 0, loc)))
}

func openStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "daily.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, db.Migrate(d, assets.Migrations()))
	return NewStore(d)
}

func TestStore_RecordKeepsBest(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	got, err := s.Get(ctx, "p", "2026-03-14")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Record(ctx, Result{PlayerID: "p", Date: "2026-03-14", WordIndex: 2, Similarity: 0.5}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "p", Date: "2026-03-14", WordIndex: 2, Similarity: 0.9}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "p", Date: "2026-03-14", WordIndex: 2, Similarity: 0.6}))

	got, err = s.Get(ctx, "p", "2026-03-14")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.9, got.Similarity)
	assert.Equal(t, 3, got.Tries)
	assert.Equal(t, 2, got.WordIndex)
}

func TestStore_LeaderboardAndClaim(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	date := "2026-03-14"

	require.NoError(t, s.Record(ctx, Result{PlayerID: "a", Date: date, Similarity: 0.8}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "b", Date: date, Similarity: 1}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "b", Date: date, Similarity: 1}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "c", Date: date, Similarity: 1}))
	require.NoError(t, s.Record(ctx, Result{PlayerID: "d", Date: "2026-03-15", Similarity: 1}))

	top, err := s.Leaderboard(ctx, date, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "c", top[0].PlayerID) // fewer tries wins the tie
	assert.Equal(t, "b", top[1].PlayerID)
	assert.Equal(t, "a", top[2].PlayerID)

	require.NoError(t, s.ClaimAnon(ctx, "a", "user"))
	got, err := s.Get(ctx, "user", date)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.8, got.Similarity)
}
