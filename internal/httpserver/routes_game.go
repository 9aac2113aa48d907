// internal/httpserver/routes_game.go
//
// Game endpoints. Each request locks its session, drives the engine, and
// only then (still under the session lock) persists a snapshot and asks the
// challenge provider for the next challenge.
//
//   - POST /game/new        → start a run at the player's persisted level
//   - POST /game/answer     → judge + evaluate the outstanding challenge, then
//     let the session adapt the level
//   - POST /game/difficulty → pick a level the run has already unlocked
//   - POST /game/restart    → reset after (or before) game over
//   - GET  /game/{id}       → current state + challenge
//   - GET  /progress/me     → persisted records with achievements
//   - GET  /leaderboard     → top highest scores of a game type

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/linguapet/internal/challenge"
	"github.com/robalobadob/linguapet/internal/game"
	"github.com/robalobadob/linguapet/internal/progress"
)

// gameView is what clients see of a session. Challenges never carry the
// target answer (json:"-" on game.Challenge).
type gameView struct {
	GameID        string          `json:"gameId"`
	GameType      game.Kind       `json:"gameType"`
	State         game.State      `json:"state"`
	LevelProgress float64         `json:"levelProgress"`
	Over          bool            `json:"over"`
	Challenge     *game.Challenge `json:"challenge"`
}

func viewOf(sess *game.Session) gameView {
	st := sess.Engine.State()
	return gameView{
		GameID:        sess.ID,
		GameType:      sess.Kind,
		State:         st,
		LevelProgress: st.LevelProgress(),
		Over:          st.Over(),
		Challenge:     sess.Current,
	}
}

// eventView tags an event with its type for clients.
type eventView struct {
	Type game.EventType `json:"type"`
	Data game.Event     `json:"data"`
}

func eventViews(events []game.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, ev := range events {
		out = append(out, eventView{Type: ev.Type(), Data: ev})
	}
	return out
}

// ------------------------------ /game/new ----------------------------------

type newGameReq struct {
	GameType string `json:"gameType"`
}

// handleNewGame starts a run of the requested type at the player's last level.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	kind, err := game.ParseKind(req.GameType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "gameType"})
		return
	}

	player := s.playerID(w, r)
	sess := game.NewSession(player, kind, game.WithLevel(s.startLevel(r.Context(), player, kind)))

	st := sess.Engine.State()
	c, err := s.provider.Next(r.Context(), challenge.Request{
		GameType: kind,
		Level:    st.Level,
		Progress: challenge.ProgressOf(st),
	})
	if err != nil {
		writeGameErr(w, err)
		return
	}
	sess.Issue(c, s.now())

	if err := s.sessions.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeErr(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.saveSnapshot(r.Context(), sess, progress.OutcomeStarted)

	writeJSON(w, http.StatusOK, viewOf(sess))
}

// startLevel returns the level a new run begins at: the last cached snapshot,
// else the persisted record, else 1. game.WithLevel keeps it in range.
func (s *Server) startLevel(ctx context.Context, player string, kind game.Kind) int {
	if snap, ok := s.snapshots.Last(player, kind); ok {
		return snap.State.Level
	}
	rec, err := s.progress.Get(ctx, player, kind)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("load progress")
		return 1
	}
	if rec == nil {
		return 1
	}
	return rec.Level
}

// ----------------------------- /game/answer --------------------------------

type answerReq struct {
	GameID         string `json:"gameId"`
	Submitted      string `json:"submitted"`
	ResponseTimeMs *int   `json:"responseTimeMs"` // measured server-side when absent
}

type answerRes struct {
	Verdict       game.Verdict    `json:"verdict"`
	Events        []eventView     `json:"events"`
	State         game.State      `json:"state"`
	LevelProgress float64         `json:"levelProgress"`
	Over          bool            `json:"over"`
	Message       string          `json:"message"`
	Next          *game.Challenge `json:"next"` // nil after game over
}

// handleAnswer judges the submission against the outstanding challenge, feeds
// the verdict to the engine, persists the snapshot, then serves the next
// challenge.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.sessions.Get(r.Context(), req.GameID)
	if err != nil {
		writeGameErr(w, err)
		return
	}

	sess.Lock()
	defer sess.Unlock()

	// Elapsed time must be read before the next challenge is issued.
	now := s.now()
	ms := sess.Elapsed(now)
	if req.ResponseTimeMs != nil {
		ms = *req.ResponseTimeMs
	}
	attempt := game.Attempt{Kind: sess.Kind, Submitted: req.Submitted, ResponseTimeMs: ms}

	if sess.Current == nil {
		if sess.Engine.Over() {
			// A finished run rejects every answer.
			_, err := sess.Engine.Evaluate(attempt, false)
			writeGameErr(w, err)
			return
		}
		writeErr(w, http.StatusConflict, "no_challenge")
		return
	}

	verdict, err := s.judge.Check(*sess.Current, attempt)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	events, err := sess.Engine.Evaluate(attempt, verdict.Correct)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	answered := sess.Current.ID
	sess.Record(verdict.Correct, ms)
	if ev, ok := sess.Adapt(); ok {
		events = append(events, ev)
	}

	outcome := progress.OutcomeIncorrect
	if verdict.Correct {
		outcome = progress.OutcomeCorrect
	}
	s.saveSnapshot(r.Context(), sess, outcome)

	st := sess.Engine.State()
	if !st.Over() {
		s.issueNext(r.Context(), sess, answered)
	}

	writeJSON(w, http.StatusOK, answerRes{
		Verdict:       verdict,
		Events:        eventViews(events),
		State:         st,
		LevelProgress: st.LevelProgress(),
		Over:          st.Over(),
		Message:       s.picker.ForBatch(events),
		Next:          sess.Current,
	})
}

// issueNext asks the provider for the follow-up challenge. A provider failure
// leaves the session without a challenge; the transition already happened.
func (s *Server) issueNext(ctx context.Context, sess *game.Session, exclude string) {
	st := sess.Engine.State()
	c, err := s.provider.Next(ctx, challenge.Request{
		GameType:  sess.Kind,
		Level:     st.Level,
		Progress:  challenge.ProgressOf(st),
		Previous:  sess.Previous,
		ExcludeID: exclude,
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("next challenge")
		return
	}
	sess.Issue(c, s.now())
}

// --------------------------- /game/difficulty ------------------------------

type difficultyReq struct {
	GameID string `json:"gameId"`
	Level  int    `json:"level"`
}

type difficultyRes struct {
	Event         eventView  `json:"event"`
	State         game.State `json:"state"`
	LevelProgress float64    `json:"levelProgress"`
	Message       string     `json:"message"`
}

// handleDifficulty lets the player pick an unlocked level; score, streak and
// lives are untouched.
func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req difficultyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.sessions.Get(r.Context(), req.GameID)
	if err != nil {
		writeGameErr(w, err)
		return
	}

	sess.Lock()
	defer sess.Unlock()

	ev, err := sess.SetLevel(req.Level)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	s.saveSnapshot(r.Context(), sess, progress.OutcomeLevel)

	st := sess.Engine.State()
	writeJSON(w, http.StatusOK, difficultyRes{
		Event:         eventView{Type: ev.Type(), Data: ev},
		State:         st,
		LevelProgress: st.LevelProgress(),
		Message:       s.picker.For(ev),
	})
}

// ----------------------------- /game/restart -------------------------------

type gameIDReq struct {
	GameID string `json:"gameId"`
}

// handleRestart resets the run one level down and serves a fresh challenge.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req gameIDReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	sess, err := s.sessions.Get(r.Context(), req.GameID)
	if err != nil {
		writeGameErr(w, err)
		return
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Restart()
	s.saveSnapshot(r.Context(), sess, progress.OutcomeStarted)
	s.issueNext(r.Context(), sess, "")

	writeJSON(w, http.StatusOK, viewOf(sess))
}

// ------------------------------ /game/{id} ---------------------------------

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeGameErr(w, err)
		return
	}
	sess.Lock()
	v := viewOf(sess)
	sess.Unlock()
	writeJSON(w, http.StatusOK, v)
}

// --------------------------- progress + ranks ------------------------------

// recordView is a persisted record plus its derived figures.
type recordView struct {
	progress.Record
	SuccessRate   float64  `json:"successRate"`
	LevelProgress float64  `json:"levelProgress"`
	Achievements  []string `json:"achievements"`
}

func recordViews(recs []progress.Record) []recordView {
	out := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		ach := rec.Achievements()
		if ach == nil {
			ach = []string{}
		}
		out = append(out, recordView{
			Record:        rec,
			SuccessRate:   rec.SuccessRate(),
			LevelProgress: rec.LevelProgress(),
			Achievements:  ach,
		})
	}
	return out
}

// handleMyProgress lists the caller's records across game types.
func (s *Server) handleMyProgress(w http.ResponseWriter, r *http.Request) {
	player := s.playerID(w, r)
	recs, err := s.progress.ForPlayer(r.Context(), player)
	if err != nil {
		log.Error().Err(err).Msg("load progress")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playerId": player, "records": recordViews(recs)})
}

// handleLeaderboard returns the top highest scores of ?gameType=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind, err := game.ParseKind(r.URL.Query().Get("gameType"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": "gameType"})
		return
	}
	recs, err := s.progress.Leaderboard(r.Context(), kind, queryLimit(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gameType": kind, "top": recordViews(recs)})
}

// ------------------------------ persistence --------------------------------

// saveSnapshot records the session's state. Failures are logged only; the
// transition that produced the state stands.
func (s *Server) saveSnapshot(ctx context.Context, sess *game.Session, outcome progress.Outcome) {
	err := s.snapshots.Save(ctx, progress.Snapshot{
		PlayerID: sess.PlayerID,
		GameType: sess.Kind,
		State:    sess.Engine.State(),
		Outcome:  outcome,
		At:       s.now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Str("outcome", string(outcome)).Msg("persist progress")
	}
}
