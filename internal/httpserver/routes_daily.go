// internal/httpserver/routes_daily.go
//
// HTTP routes for the "word of the day" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start (or resume) today's pronunciation word
//   - POST /daily/attempt     → submit a speech transcript for today's word
//   - GET  /daily/leaderboard → best similarities for today (or a given date)
//
// Every player gets the same word on a given UTC date (HMAC of date + salt over
// the bank's pronunciation challenges). Tries are unlimited until the word is
// passed; each try is recorded and the best similarity is kept. In-memory
// sessions from earlier dates are dropped on the next request.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/linguapet/internal/daily"
	"github.com/robalobadob/linguapet/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	sessions map[string]*dailySession // active sessions keyed by playerID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for today's word.
type dailySession struct {
	GameID    string
	PlayerID  string
	Date      string
	WordIndex int
	Challenge game.Challenge
	Start     time.Time
	Tries     int
	Passed    bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, sessions: make(map[string]*dailySession)}
	s.dailyLive = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/attempt", dd.handleAttempt)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// wordOfDay returns today's date key, the deterministic index, and the challenge.
func (d *dailyServer) wordOfDay() (date string, idx int, c game.Challenge, ok bool) {
	now := d.srv.now()
	c, idx, ok = daily.Pick(now, d.srv.cfg.DailySalt, d.srv.bank.ByKind(game.KindPronunciation))
	return daily.DateKey(now), idx, c, ok
}

// pruneLocked drops sessions that are not for date. Callers hold d.mu.
func (d *dailyServer) pruneLocked(date string) {
	for k, sess := range d.sessions {
		if sess.Date != date {
			delete(d.sessions, k)
		}
	}
}

func (d *dailyServer) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// -----------------------------------------------------------------------------
// /daily/new

type dailyNewRes struct {
	GameID    string          `json:"gameId"`
	Date      string          `json:"date"`
	Played    bool            `json:"played"` // already passed today
	Best      float64         `json:"best"`
	Tries     int             `json:"tries"`
	Challenge *game.Challenge `json:"challenge"`
}

// handleNew creates or reuses the caller's session for today's word.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	player := d.srv.playerID(w, r)
	date, idx, c, ok := d.wordOfDay()
	if !ok {
		writeErr(w, http.StatusServiceUnavailable, "no_challenges")
		return
	}

	prev, err := d.srv.daily.Get(r.Context(), player, date)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("load daily result")
	}
	res := dailyNewRes{Date: date}
	if prev != nil {
		res.Best, res.Tries = prev.Similarity, prev.Tries
		if prev.Similarity > d.srv.judge.Threshold() {
			res.Played = true
			writeJSON(w, http.StatusOK, res)
			return
		}
	}

	key := player + "|" + date
	d.mu.Lock()
	d.pruneLocked(date)
	sess, ok := d.sessions[key]
	if !ok {
		sess = &dailySession{
			GameID:    uuid.NewString(),
			PlayerID:  player,
			Date:      date,
			WordIndex: idx,
			Challenge: c,
			Start:     d.srv.now(),
			Tries:     res.Tries,
		}
		d.sessions[key] = sess
	}
	res.GameID = sess.GameID
	res.Challenge = &sess.Challenge
	d.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/attempt

type dailyAttemptReq struct {
	GameID string `json:"gameId"`
	Spoken string `json:"spoken"`
}

type dailyAttemptRes struct {
	Similarity  float64 `json:"similarity"`
	SoundsAlike bool    `json:"soundsAlike"`
	State       string  `json:"state"` // in_progress | passed | locked
	Tries       int     `json:"tries"`
	Message     string  `json:"message"`
}

// handleAttempt scores a transcript against today's word and records the try.
func (d *dailyServer) handleAttempt(w http.ResponseWriter, r *http.Request) {
	player := d.srv.playerID(w, r)

	var p dailyAttemptReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	date := daily.DateKey(d.srv.now())

	key := player + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(date)
	sess, ok := d.sessions[key]
	if !ok || sess.GameID != p.GameID {
		writeErr(w, http.StatusConflict, "no session")
		return
	}
	if sess.Passed {
		writeJSON(w, http.StatusOK, dailyAttemptRes{State: "locked", Tries: sess.Tries})
		return
	}

	elapsed := int(d.srv.now().Sub(sess.Start).Milliseconds())
	attempt := game.Attempt{Kind: game.KindPronunciation, Submitted: p.Spoken, ResponseTimeMs: max(0, elapsed)}
	verdict, err := d.srv.judge.Check(sess.Challenge, attempt)
	if err != nil {
		writeGameErr(w, err)
		return
	}

	sess.Tries++
	err = d.srv.daily.Record(r.Context(), daily.Result{
		PlayerID: player, Date: date, WordIndex: sess.WordIndex, Similarity: verdict.Similarity,
	})
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("record daily result")
	}

	res := dailyAttemptRes{
		Similarity:  verdict.Similarity,
		SoundsAlike: verdict.SoundsAlike,
		State:       "in_progress",
		Tries:       sess.Tries,
	}
	if verdict.Correct {
		sess.Passed = true
		res.State = "passed"
		res.Message = d.srv.picker.For(game.Correct{})
	} else {
		res.Message = d.srv.picker.For(game.Incorrect{})
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type dailyLBRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.srv.daily.Leaderboard(r.Context(), date, queryLimit(r))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, dailyLBRes{Date: date, Top: rows})
}
