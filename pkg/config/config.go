package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Persistence backends
const (
	PersistencePostgres = "postgres"
	PersistenceMemory   = "memory"
)

// Config is the complete service configuration
type Config struct {
	Persistence         string `env:"PERSISTENCE" env-default:"postgres"`
	MigrateOnStart      bool   `env:"MIGRATE_ON_START" env-default:"true"`
	RegistrationEnabled bool   `env:"REGISTRATION_ENABLED" env-default:"true"`

	Database DatabaseConfig
	Email    EmailConfig
	Verify   VerifyConfig
	JWT      JWTConfig
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot
func (c Config) Validate() error {
	var problems []string

	switch c.Persistence {
	case PersistencePostgres, PersistenceMemory:
	default:
		problems = append(problems, fmt.Sprintf("PERSISTENCE must be %q or %q", PersistencePostgres, PersistenceMemory))
	}
	if c.Persistence == PersistencePostgres {
		if err := c.Verify.Tables().Validate(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if _, err := c.Verify.AccountStatus(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if _, err := c.JWT.ParseSessionExpiry(); err != nil {
		problems = append(problems, fmt.Sprintf("invalid SESSION_EXPIRY: %v", err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
