package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service configuration read from the environment
type Config struct {
	HTTPAddr   string        `env:"HTTP_ADDR" envDefault:":8080"`
	DBDriver   string        `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN      string        `env:"DB_DSN" envDefault:"data/precedents.db"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Day boundaries for streaks, heatmaps and reminder hours
	StudyTimezone string `env:"STUDY_TIMEZONE" envDefault:"America/Sao_Paulo"`
	HeatmapDays   int    `env:"HEATMAP_DAYS" envDefault:"365"`

	TelegramBotToken      string `env:"TELEGRAM_BOT_TOKEN"`
	EnableScheduler       bool   `env:"ENABLE_SCHEDULER" envDefault:"true"`
	NotificationStartHour int    `env:"NOTIFICATION_START_HOUR" envDefault:"8"`
	NotificationEndHour   int    `env:"NOTIFICATION_END_HOUR" envDefault:"22"`

	// Accounts registering with one of these emails become admins
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	PrettyLog bool   `env:"PRETTY_LOG" envDefault:"false"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN must be set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.HeatmapDays <= 0 || c.HeatmapDays > 3660 {
		return fmt.Errorf("HEATMAP_DAYS must be between 1 and 3660")
	}
	if !validHour(c.NotificationStartHour) || !validHour(c.NotificationEndHour) {
		return fmt.Errorf("notification hours must be between 0 and 23")
	}
	if c.NotificationStartHour > c.NotificationEndHour {
		return fmt.Errorf("NOTIFICATION_START_HOUR is after NOTIFICATION_END_HOUR")
	}
	if _, err := time.LoadLocation(c.StudyTimezone); err != nil {
		return fmt.Errorf("invalid STUDY_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the study timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
