// internal/config/config.go
//
// Runtime configuration for the game server.
// Values come from the environment; a .env file in the working directory is
// loaded first (development convenience, missing file is fine).

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/robalobadob/linguapet/internal/game"
)

// Config holds every tunable of the server.
type Config struct {
	Port           string
	LogLevel       string
	LogFormat      string // "json" | "console"
	DatabasePath   string
	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	ClientOrigin   string
	AppEnv         string
	DailySalt      string
	PassThreshold  float64
	RandomSeed     uint64 // 0 means seed from the clock
	ChallengesFile string // empty means the embedded bank
	SessionIdleMin int    // live runs idle this long are evicted
}

const devJWTSecret = "dev_secret_change_me"

// Load reads .env (if present) and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		DatabasePath:   getEnv("DATABASE_PATH", "./data/linguapet.db"),
		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiresDays: getEnvInt("JWT_EXPIRES_DAYS", 14),
		CookieName:     getEnv("COOKIE_NAME", "linguapet_token"),
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		AppEnv:         getEnv("APP_ENV", "development"),
		DailySalt:      getEnv("DAILY_SALT", "local_dev_salt"),
		PassThreshold:  getEnvFloat("PASS_THRESHOLD", game.DefaultPassThreshold),
		RandomSeed:     getEnvUint("RANDOM_SEED", 0),
		ChallengesFile: os.Getenv("CHALLENGES_FILE"),
		SessionIdleMin: getEnvInt("SESSION_IDLE_MINUTES", 120),
	}
}

// Production reports whether cookies must be Secure/SameSite=None.
func (c Config) Production() bool { return c.AppEnv == "production" }

// TokenTTL is the lifetime of issued JWTs.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// SessionTTL is how long a live run may sit idle before eviction.
func (c Config) SessionTTL() time.Duration {
	if c.SessionIdleMin <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.SessionIdleMin) * time.Minute
}

// Warn logs settings that will not be used as given.
func (c Config) Warn(l zerolog.Logger) {
	if !game.ValidThreshold(c.PassThreshold) {
		l.Warn().
			Float64("pass_threshold", c.PassThreshold).
			Float64("using", game.DefaultPassThreshold).
			Msg("PASS_THRESHOLD must be between 0 and 1, using the default")
	}
	if c.Production() && c.JWTSecret == devJWTSecret {
		l.Warn().Msg("JWT_SECRET is the development default")
	}
}

// Seed returns RandomSeed, or a clock-derived seed when unset.
func (c Config) Seed() uint64 {
	if c.RandomSeed != 0 {
		return c.RandomSeed
	}
	return uint64(time.Now().UnixNano())
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}

func getEnvUint(k string, def uint64) uint64 {
	if n, err := strconv.ParseUint(os.Getenv(k), 10, 64); err == nil {
		return n
	}
	return def
}
