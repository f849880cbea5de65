package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
	AppID    string `yaml:"app_id"`

	// memory, sqlite, mysql or postgres
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	SeedData       bool   `yaml:"seed_data"`

	JWTSecret             string        `yaml:"jwt_secret"`
	SessionTTL            time.Duration `yaml:"session_ttl"`
	ModeratorPasswordHash string        `yaml:"moderator_password_hash"`

	// Email Configuration
	EmailProvider   string   `yaml:"email_provider"`
	ModeratorEmails []string `yaml:"moderator_emails"`
	SMTPHost        string   `yaml:"smtp_host"`
	SMTPPort        int      `yaml:"smtp_port"`
	SMTPUsername    string   `yaml:"smtp_username"`
	SMTPPassword    string   `yaml:"smtp_password"`
	ResendAPIKey    string   `yaml:"resend_api_key"`
	FromEmail       string   `yaml:"from_email"`
	FromName        string   `yaml:"from_name"`

	WatchInterval   time.Duration `yaml:"watch_interval"`
	DigestSchedule  string        `yaml:"digest_schedule"`
	ConfirmationTTL time.Duration `yaml:"confirmation_ttl"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Port:     "8080",
		GinMode:  "debug",
		LogLevel: "info",
		AppID:    "default-app-id",

		DatabaseDriver: "memory",
		DatabaseURL:    "",

		JWTSecret:  "your-secret-key",
		SessionTTL: 30 * 24 * time.Hour,

		EmailProvider: "noop",
		SMTPPort:      2525,
		FromEmail:     "noreply@eventboard.local",
		FromName:      "Community Events",

		WatchInterval:   15 * time.Second,
		DigestSchedule:  "0 9 * * *",
		ConfirmationTTL: 5 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE, then environment variables. A .env file in the working
// directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AppID = getEnv("APP_ID", c.AppID)
	c.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", c.DatabaseDriver))
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.ModeratorPasswordHash = getEnv("MODERATOR_PASSWORD_HASH", c.ModeratorPasswordHash)
	c.EmailProvider = getEnv("EMAIL_PROVIDER", c.EmailProvider)
	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.ResendAPIKey = getEnv("RESEND_API_KEY", c.ResendAPIKey)
	c.FromEmail = getEnv("FROM_EMAIL", c.FromEmail)
	c.FromName = getEnv("FROM_NAME", c.FromName)
	c.DigestSchedule = getEnv("DIGEST_SCHEDULE", c.DigestSchedule)

	if v := os.Getenv("MODERATOR_EMAILS"); v != "" {
		c.ModeratorEmails = splitList(v)
	}

	var err error
	if c.SMTPPort, err = getInt("SMTP_PORT", c.SMTPPort); err != nil {
		return err
	}
	if c.SeedData, err = getBool("SEED_DATA", c.SeedData); err != nil {
		return err
	}
	if c.SessionTTL, err = getDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.WatchInterval, err = getDuration("WATCH_INTERVAL", c.WatchInterval); err != nil {
		return err
	}
	if c.ConfirmationTTL, err = getDuration("CONFIRMATION_TTL", c.ConfirmationTTL); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
