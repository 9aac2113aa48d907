package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		user, pass string
		ok         bool
	}{
		{"pet_lover", "supersecret", true},
		{"ab", "supersecret", false},
		{"has space", "supersecret", false},
		{"gatito", "short", false},
		{"gatito", string(make([]byte, 73)), false},
	}
	for _, tt := range tests {
		err := validateSignup(credentials{Username: tt.user, Password: tt.pass})
		assert.Equal(t, tt.ok, err == nil, "%q", tt.user)
	}
}

func TestAuth_BearerTokenAndExpiry(t *testing.T) {
	e := newEnv(t, false)

	code, body := e.do(t, e.newClient(t), http.MethodPost, "/auth/signup", map[string]any{"username": "luna", "password": "moonlight1"})
	require.Equal(t, http.StatusOK, code, body)
	u := &userRow{ID: body["id"].(string), Username: "luna"}

	tok, _, err := e.srv.signJWT(u)
	require.NoError(t, err)

	me := func(token string) int {
		req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}
	assert.Equal(t, http.StatusOK, me(tok))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	old, err := expired.SignedString([]byte("test_secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, me(old))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{ID: u.ID, Username: u.Username}).
		SignedString([]byte("other_secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, me(forged))
}
