package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "JWT_EXPIRES_DAYS", "PASS_THRESHOLD", "RANDOM_SEED", "APP_ENV", "CHALLENGES_FILE", "SESSION_IDLE_MINUTES"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 14, c.JWTExpiresDays)
	assert.Equal(t, 0.7, c.PassThreshold)
	assert.Equal(t, uint64(0), c.RandomSeed)
	assert.Empty(t, c.ChallengesFile)
	assert.False(t, c.Production())
	assert.Equal(t, 14*24*time.Hour, c.TokenTTL())
	assert.Equal(t, 2*time.Hour, c.SessionTTL())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_EXPIRES_DAYS", "1")
	t.Setenv("PASS_THRESHOLD", "0.8")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CHALLENGES_FILE", "/tmp/bank.yaml")
	t.Setenv("SESSION_IDLE_MINUTES", "15")

	c := FromEnv()
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, 24*time.Hour, c.TokenTTL())
	assert.Equal(t, 0.8, c.PassThreshold)
	assert.Equal(t, uint64(42), c.Seed())
	assert.True(t, c.Production())
	assert.Equal(t, "/tmp/bank.yaml", c.ChallengesFile)
	assert.Equal(t, 15*time.Minute, c.SessionTTL())
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_DAYS", "two weeks")
	t.Setenv("PASS_THRESHOLD", "high")
	t.Setenv("RANDOM_SEED", "-1")

	c := FromEnv()
	assert.Equal(t, 14, c.JWTExpiresDays)
	assert.Equal(t, 0.7, c.PassThreshold)
	assert.NotZero(t, c.Seed())
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	Config{PassThreshold: 0.7, JWTSecret: "s3cret", AppEnv: "production"}.Warn(l)
	assert.Empty(t, buf.String())

	Config{PassThreshold: 1.0, JWTSecret: devJWTSecret}.Warn(l)
	assert.Contains(t, buf.String(), "PASS_THRESHOLD")
	assert.Contains(t, buf.String(), `"pass_threshold":1`)
	assert.NotContains(t, buf.String(), "JWT_SECRET")

	buf.Reset()
	Config{PassThreshold: 0.5, JWTSecret: devJWTSecret, AppEnv: "production"}.Warn(l)
	assert.Contains(t, buf.String(), "JWT_SECRET")
}
