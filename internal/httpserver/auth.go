// internal/httpserver/auth.go
//
// Accounts and player identity.
//
//   - POST /auth/signup, /auth/login, /auth/logout; GET /auth/me.
//   - Tokens are HS256 JWTs, read from the Authorization header or a cookie.
//   - Guests carry an anonymous id cookie. Signing in moves their progress
//     and daily results to the account.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	anonCookieName = "linguapet_anon"
	anonCookieTTL  = 180 * 24 * time.Hour
)

var (
	errUsernameTaken = errors.New("username taken")
	errNoToken       = errors.New("Unauthorized")
	errBadToken      = errors.New("Invalid token")

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,24}$`)
)

// authUser is the signed-in account attached to a request.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

// tokenClaims is the JWT payload.
type tokenClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFrom(r.Context()))
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return c, false
	}
	c.Username = strings.TrimSpace(c.Username)
	return c, true
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := s.createUser(r.Context(), c)
	switch {
	case errors.Is(err, errUsernameTaken):
		writeErr(w, http.StatusConflict, "Username taken")
		return
	case err != nil:
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.startSession(w, r, u) {
		writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, err := s.userBy(r.Context(), "lower(username)=lower(?)", c.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(c.Password)) != nil {
		writeErr(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if s.startSession(w, r, u) {
		writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// startSession sets the auth cookie for u and claims the caller's guest
// progress. It writes the error response itself and reports success.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *userRow) bool {
	tok, exp, err := s.signJWT(u)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeErr(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp, 0)
	s.claimAnon(r.Context(), r, u.ID)
	return true
}

// ------------------------------ middleware ---------------------------------

// withOptionalAuth attaches the account when the token checks out and lets
// guests through otherwise.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return s.identify(false)
}

// requireAuth rejects requests without a valid token with 401.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return s.identify(true)
}

func (s *Server) identify(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.authenticate(r)
			if err != nil {
				if required {
					writeErr(w, http.StatusUnauthorized, err.Error())
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// authenticate checks the request token and that its account still exists.
func (s *Server) authenticate(r *http.Request) (*authUser, error) {
	raw := s.tokenFrom(r)
	if raw == "" {
		return nil, errNoToken
	}
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || claims.ID == "" || claims.Username == "" {
		return nil, errBadToken
	}
	if _, err := s.userBy(r.Context(), "id=?", claims.ID); err != nil {
		return nil, errBadToken
	}
	return &authUser{ID: claims.ID, Username: claims.Username}, nil
}

// tokenFrom prefers a bearer header over the auth cookie.
func (s *Server) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- identity ----------------------------------

// playerID is the account id when signed in, else the guest's anonymous id.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r.Context()); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := "anon-" + uuid.NewString()
	s.setCookie(w, anonCookieName, id, s.now().Add(anonCookieTTL), 0)
	return id
}

// claimAnon hands the guest's records to userID. Failures are logged only.
func (s *Server) claimAnon(ctx context.Context, r *http.Request, userID string) {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" || userID == "" {
		return
	}
	if err := s.progress.ClaimAnon(ctx, c.Value, userID); err != nil {
		log.Warn().Err(err).Msg("claim anon progress")
	}
	if err := s.daily.ClaimAnon(ctx, c.Value, userID); err != nil {
		log.Warn().Err(err).Msg("claim anon daily results")
	}
	s.snapshots.Forget(c.Value)
}

// -------------------------------- users ------------------------------------

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func validateSignup(c credentials) error {
	if !usernamePattern.MatchString(c.Username) {
		return errors.New("username must be 3-24 letters, numbers or underscores")
	}
	// bcrypt ignores bytes past 72.
	if n := len(c.Password); n < 8 || n > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

func (s *Server) createUser(ctx context.Context, c credentials) (*userRow, error) {
	if err := validateSignup(c); err != nil {
		return nil, err
	}
	if _, err := s.userBy(ctx, "lower(username)=lower(?)", c.Username); err == nil {
		return nil, errUsernameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{ID: uuid.NewString(), Username: c.Username, PasswordHash: string(hash), CreatedAt: s.now().UTC()}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// userBy loads one user matching where (a fixed condition with one
// placeholder). Missing users yield sql.ErrNoRows.
func (s *Server) userBy(ctx context.Context, where, arg string) (*userRow, error) {
	var (
		u       userRow
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// ---------------------------- tokens + cookies -----------------------------

func (s *Server) signJWT(u *userRow) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.TokenTTL())
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString([]byte(s.cfg.JWTSecret))
	return signed, exp, err
}

// setCookie writes an HttpOnly cookie; maxAge < 0 deletes it. Production
// cookies are Secure with SameSite=None so a separately hosted client can
// send them.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   maxAge,
	}
	if s.cfg.Production() {
		c.Secure, c.SameSite = true, http.SameSiteNoneMode
	}
	http.SetCookie(w, c)
}
