// internal/httpserver/server.go
//
// HTTP server wiring for the language game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access logs).
//   - Public endpoints: "/", "/health", "/leaderboard", "/debug/*".
//   - Game endpoints (optional auth): /game/new, /game/answer, /game/difficulty,
//     /game/restart, /game/{id}.
//   - Progress endpoint (optional auth): /progress/me.
//   - Word of the day endpoints (optional auth): mounted under /daily.
//   - Auth endpoints: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests play under an anonymous cookie id; signing in claims their progress.
//   - Progress persistence is best-effort: failures are logged and never undo a move.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/linguapet/internal/challenge"
	"github.com/robalobadob/linguapet/internal/config"
	"github.com/robalobadob/linguapet/internal/daily"
	"github.com/robalobadob/linguapet/internal/encourage"
	"github.com/robalobadob/linguapet/internal/game"
	"github.com/robalobadob/linguapet/internal/progress"
	"github.com/robalobadob/linguapet/internal/similarity"
	"github.com/robalobadob/linguapet/internal/store"
)

// Deps are the collaborators of a Server. Config, DB and Bank are required;
// the rest default to implementations built from them.
type Deps struct {
	Config    config.Config
	DB        *sql.DB
	Bank      *challenge.Bank
	Provider  challenge.Provider // defaults to Bank
	Sessions  store.Store
	Judge     *game.Judge
	Progress  *progress.SQLStore
	Snapshots *progress.Cached // wraps Progress
	Daily     *daily.Store
	Picker    *encourage.Picker
	Now       func() time.Time
}

// Server bundles router, live sessions and persistence.
type Server struct {
	r   *chi.Mux
	cfg config.Config
	db  *sql.DB

	bank      *challenge.Bank
	provider  challenge.Provider
	sessions  store.Store
	judge     *game.Judge
	progress  *progress.SQLStore
	snapshots *progress.Cached
	daily     *daily.Store
	picker    *encourage.Picker
	now       func() time.Time

	dailyLive *dailyServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		cfg:       d.Config,
		db:        d.DB,
		bank:      d.Bank,
		provider:  d.Provider,
		sessions:  d.Sessions,
		judge:     d.Judge,
		progress:  d.Progress,
		snapshots: d.Snapshots,
		daily:     d.Daily,
		picker:    d.Picker,
		now:       d.Now,
	}
	if s.provider == nil {
		s.provider = d.Bank
	}
	if s.sessions == nil {
		s.sessions = store.NewMemoryStore()
	}
	if s.judge == nil {
		s.judge = game.NewJudge(d.Config.PassThreshold)
	}
	if s.progress == nil {
		s.progress = progress.NewSQLStore(d.DB)
	}
	if s.snapshots == nil {
		s.snapshots = progress.NewCached(s.progress)
	}
	if s.daily == nil {
		s.daily = daily.NewStore(d.DB)
	}
	if s.picker == nil {
		s.picker = encourage.NewSeeded(d.Config.Seed())
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(requestIDLogger)                 // tag it with the request id
	s.r.Use(hlog.AccessHandler(accessLog))   // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(d.Config.ClientOrigin))     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "linguapet",
			"endpoints": []string{
				"/health", "POST /game/new", "POST /game/answer", "POST /game/difficulty",
				"POST /game/restart", "GET /game/{id}", "/progress/me", "/leaderboard", "/daily/*", "/auth/*",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":            true,
			"sessions":      s.sessions.Len(),
			"dailySessions": s.dailyLive.live(),
		})
	})

	// Game endpoints: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/answer", s.handleAnswer)
		r.Post("/game/difficulty", s.handleDifficulty)
		r.Post("/game/restart", s.handleRestart)
		r.Get("/game/{id}", s.handleGetGame)
		r.Get("/progress/me", s.handleMyProgress)

		// Word of the day: OPTIONAL AUTH (best similarity persisted per player)
		s.mountDaily(r)
	})

	s.r.Get("/leaderboard", s.handleLeaderboard)

	// Auth (signup/login/logout public, /auth/me gated)
	s.mountAuthRoutes()

	// Debug: scorer + challenge bank counts
	s.r.Post("/debug/similarity", s.handleDebugSimilarity)
	s.r.Get("/debug/challenges", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.bank.Stats())
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestIDLogger adds chi's request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeGameErr maps engine and registry errors to HTTP statuses.
func writeGameErr(w http.ResponseWriter, err error) {
	var inErr *game.InputError
	switch {
	case errors.As(err, &inErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": inErr.Error(), "field": inErr.Field})
	case errors.Is(err, game.ErrInvalidState):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidLevel):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrLevelLocked):
		writeErr(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	case errors.Is(err, challenge.ErrNoChallenges):
		writeErr(w, http.StatusServiceUnavailable, "no_challenges")
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeErr(w, http.StatusInternalServerError, "server_error")
	}
}

// ------------------------------- misc --------------------------------------

type similarityReq struct {
	Target string `json:"target"`
	Spoken string `json:"spoken"`
}

type similarityRes struct {
	Similarity  float64 `json:"similarity"`
	SoundsAlike bool    `json:"soundsAlike"`
	Pass        bool    `json:"pass"`
	Threshold   float64 `json:"threshold"`
}

// handleDebugSimilarity scores a transcript against a target the way
// pronunciation answers are judged.
func (s *Server) handleDebugSimilarity(w http.ResponseWriter, r *http.Request) {
	var req similarityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad_json")
		return
	}
	target, spoken := similarity.Normalize(req.Target), similarity.Normalize(req.Spoken)
	score := similarity.Score(target, spoken)
	writeJSON(w, http.StatusOK, similarityRes{
		Similarity:  score,
		SoundsAlike: similarity.SoundsAlike(target, spoken),
		Pass:        score > s.judge.Threshold(),
		Threshold:   s.judge.Threshold(),
	})
}

// queryLimit parses ?limit= within [1,100], default 20.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		return 20
	}
	return min(n, 100)
}
