package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration sourced from env vars. The signing
// secret and hashing cost are read once at startup and never mutated.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"shareyourspace"`

	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"5m"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"15m"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	FrontendBaseURL string   `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
	CORSOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@shareyourspace.com"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	// Side-channel tokens must not outlive a refresh token.
	if c.VerificationTokenTTL >= c.RefreshTokenTTL || c.ResetTokenTTL >= c.RefreshTokenTTL {
		return errors.New("verification and reset token TTLs must be shorter than the refresh token TTL")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// SMTPConfigured reports whether a real mail relay is available.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != ""
}
