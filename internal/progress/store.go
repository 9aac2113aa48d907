package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/robalobadob/linguapet/internal/game"
)

// Record is a player's accumulated progress in one game type.
type Record struct {
	PlayerID     string    `json:"playerId"`
	GameType     game.Kind `json:"gameType"`
	Level        int       `json:"level"`
	Score        int       `json:"score"`
	HighestScore int       `json:"highestScore"`
	Attempts     int       `json:"attempts"`
	CorrectCount int       `json:"correctCount"`
	Streak       int       `json:"streak"`
	MaxStreak    int       `json:"maxStreak"`
	GamesPlayed  int       `json:"gamesPlayed"`
	LastPlayed   time.Time `json:"lastPlayed"`
}

// SuccessRate is the share of correct attempts (0 without attempts).
func (r Record) SuccessRate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.Attempts)
}

// LevelProgress is the percentage of the current level's score goal reached.
func (r Record) LevelProgress() float64 {
	return game.State{Score: r.Score, Level: r.Level}.LevelProgress()
}

// Achievements lists the badges the record has earned.
func (r Record) Achievements() []string {
	var out []string
	if r.Level >= 5 {
		out = append(out, "Level Master")
	}
	if r.HighestScore >= 1000 {
		out = append(out, "High Scorer")
	}
	if r.MaxStreak >= 10 {
		out = append(out, "Streak Champion")
	}
	if r.Attempts > 0 && r.SuccessRate() >= 0.9 {
		out = append(out, "Accuracy Expert")
	}
	if r.Attempts >= 50 {
		out = append(out, "Persistent Player")
	}
	return out
}

// SQLStore keeps one game_progress row per player and game type.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

var _ Sink = (*SQLStore)(nil)

// Save upserts the snapshot. Attempts, correct answers and games played are
// accumulated from the outcome; the highest score and max streak only grow.
func (s *SQLStore) Save(ctx context.Context, snap Snapshot) error {
	var attempts, correct, played int
	switch snap.Outcome {
	case OutcomeCorrect:
		attempts, correct = 1, 1
	case OutcomeIncorrect:
		attempts = 1
	case OutcomeStarted:
		played = 1
	}
	at := snap.At
	if at.IsZero() {
		at = time.Now()
	}
	st := snap.State
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO game_progress
            (player_id, game_type, level, score, highest_score, attempts, correct_count,
             streak, max_streak, games_played, last_played)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (player_id, game_type) DO UPDATE SET
            level         = excluded.level,
            score         = excluded.score,
            highest_score = MAX(highest_score, excluded.highest_score),
            attempts      = attempts + excluded.attempts,
            correct_count = correct_count + excluded.correct_count,
            streak        = excluded.streak,
            max_streak    = MAX(max_streak, excluded.max_streak),
            games_played  = games_played + excluded.games_played,
            last_played   = excluded.last_played`,
		snap.PlayerID, string(snap.GameType), st.Level, st.Score, st.Score, attempts, correct,
		st.Streak, st.MaxStreak, played, at.UTC().Format(time.RFC3339),
	)
	return err
}

const recordCols = `player_id, game_type, level, score, highest_score, attempts, correct_count,
                    streak, max_streak, games_played, last_played`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r      Record
		kind   string
		played string
	)
	err := row.Scan(&r.PlayerID, &kind, &r.Level, &r.Score, &r.HighestScore, &r.Attempts,
		&r.CorrectCount, &r.Streak, &r.MaxStreak, &r.GamesPlayed, &played)
	if err != nil {
		return Record{}, err
	}
	r.GameType = game.Kind(kind)
	r.LastPlayed, _ = time.Parse(time.RFC3339, played)
	return r, nil
}

// Get returns a player's record for kind, or (nil, nil) when none exists.
func (s *SQLStore) Get(ctx context.Context, playerID string, kind game.Kind) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordCols+` FROM game_progress WHERE player_id=? AND game_type=?`,
		playerID, string(kind))
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ForPlayer returns all records of a player, ordered by game type.
func (s *SQLStore) ForPlayer(ctx context.Context, playerID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM game_progress WHERE player_id=? ORDER BY game_type`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Leaderboard returns the top records of a game type by highest score.
func (s *SQLStore) Leaderboard(ctx context.Context, kind game.Kind, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordCols+` FROM game_progress
         WHERE game_type=? AND highest_score > 0
         ORDER BY highest_score DESC, max_streak DESC, last_played ASC
         LIMIT ?`, string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnon moves a guest's progress rows to a signed-in player. Game types
// the player already has keep the player's own row.
func (s *SQLStore) ClaimAnon(ctx context.Context, anonID, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE game_progress SET player_id=? WHERE player_id=?`, playerID, anonID)
	return err
}
