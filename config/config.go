package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// State
	StateDir          string        `env:"DEALDESK_STATE_DIR" envDefault:"state"`
	StrictTransitions bool          `env:"DEALDESK_STRICT_TRANSITIONS" envDefault:"false"`
	LockTimeout       time.Duration `env:"DEALDESK_LOCK_TIMEOUT" envDefault:"5s"`

	LogLevel string `env:"DEALDESK_LOG_LEVEL" envDefault:"info"`

	// Email channel
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`
	SMTPUser     string `env:"GMAIL_USER"`
	SMTPPassword string `env:"GMAIL_APP_PASSWORD"`

	// Notification dispatch
	NotifyTimeout     time.Duration `env:"DEALDESK_NOTIFY_TIMEOUT" envDefault:"30s"`
	NotifyRate        float64       `env:"DEALDESK_NOTIFY_RATE" envDefault:"2"`
	NotifyBurst       int           `env:"DEALDESK_NOTIFY_BURST" envDefault:"3"`
	NotifyConcurrency int           `env:"DEALDESK_NOTIFY_CONCURRENCY" envDefault:"3"`

	// Browser session service
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:3000"`
	TenantID       string        `env:"TENANT_ID"`
	SessionTimeout time.Duration `env:"DEALDESK_SESSION_TIMEOUT" envDefault:"60s"`

	// HTTP server
	HTTPPort string `env:"PORT" envDefault:"8080"`
	APIKey   string `env:"DEALDESK_API_KEY"`
}

// Load reads .env (if present) and then the environment. Variables already
// set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parses the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.StateDir == "" {
		errs = append(errs, errors.New("state dir must not be empty"))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT %d out of range", c.SMTPPort))
	}
	if c.NotifyRate < 0 {
		errs = append(errs, errors.New("DEALDESK_NOTIFY_RATE must not be negative"))
	}
	if c.NotifyConcurrency < 1 {
		errs = append(errs, errors.New("DEALDESK_NOTIFY_CONCURRENCY must be at least 1"))
	}
	return errors.Join(errs...)
}

// EmailConfigured reports whether SMTP credentials are present.
func (c *Config) EmailConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPassword != ""
}
