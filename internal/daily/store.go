package daily

import (
	"context"
	"database/sql"
	"errors"
)

// Result is a player's best attempt at a day's word.
type Result struct {
	PlayerID   string  `json:"playerId"`
	Date       string  `json:"date"`
	WordIndex  int     `json:"wordIndex"`
	Similarity float64 `json:"similarity"`
	Tries      int     `json:"tries"`
}

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Get returns the player's result for date, or (nil, nil) when none exists.
func (s *Store) Get(ctx context.Context, playerID, date string) (*Result, error) {
	r := Result{PlayerID: playerID, Date: date}
	err := s.db.QueryRowContext(ctx,
		`SELECT word_index, similarity, tries FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&r.WordIndex, &r.Similarity, &r.Tries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Record counts one try and keeps the best similarity seen for the day.
func (s *Store) Record(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO daily_results (player_id, date, word_index, similarity, tries)
        VALUES (?, ?, ?, ?, 1)
        ON CONFLICT (player_id, date) DO UPDATE SET
            similarity = MAX(similarity, excluded.similarity),
            tries      = tries + 1`,
		r.PlayerID, r.Date, r.WordIndex, r.Similarity,
	)
	return err
}

// LBRow is one leaderboard line.
type LBRow struct {
	PlayerID   string  `json:"playerId"`
	Similarity float64 `json:"similarity"`
	Tries      int     `json:"tries"`
}

// Leaderboard returns the best results of a date: highest similarity, then fewest tries.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT player_id, similarity, tries
        FROM daily_results
        WHERE date=?
        ORDER BY similarity DESC, tries ASC, created_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Similarity, &r.Tries); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnon moves a guest's daily results to a signed-in player. Rows that
// would collide with the player's own results are left behind.
func (s *Store) ClaimAnon(ctx context.Context, anonID, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET player_id=? WHERE player_id=?`, playerID, anonID)
	return err
}
