package config

import (
	"time"

	"github.com/sosodev/duration"
)

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret         string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer         string `env:"JWT_ISSUER" env-default:"simple-verify"`
	CookieHttpOnly bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure   bool   `env:"COOKIE_SECURE" env-default:"false"`
	SessionExpiry  string `env:"SESSION_EXPIRY" env-default:"24h"`
}

// ParseSessionExpiry parses SessionExpiry as an ISO8601 or Go duration
func (j JWTConfig) ParseSessionExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.SessionExpiry)
}

// parseDurationISO8601 parses a duration string in ISO8601 format (e.g., "PT1H")
// or Go duration format (e.g., "1h")
func parseDurationISO8601(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}

	return time.ParseDuration(s)
}
