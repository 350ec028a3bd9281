package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	ListenAddr string

	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	StoreSlot     string
	SaveDebounce  time.Duration

	Timezone string

	RemoteEndpoint string
	RemoteToken    string
	SyncCron       string

	AdminToken string

	DiscordBotToken  string
	DiscordChannelID string

	SendGridAPIKey  string
	NotifyFromEmail string
	NotifyToEmail   string

	ThemeFile string
}

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads an optional .env file, then reads the environment.
func LoadWithFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	debounce, err := parseDuration(os.Getenv("SAVE_DEBOUNCE"), 300*time.Millisecond)

	if err != nil {
		return nil, fmt.Errorf("SAVE_DEBOUNCE: %w", err)
	}

	cfg := &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":9090"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		StoreSlot:        getEnv("STORE_SLOT", "garage_bookings"),
		SaveDebounce:     debounce,
		Timezone:         getEnv("TIMEZONE", "UTC"),
		RemoteEndpoint:   os.Getenv("REMOTE_ENDPOINT"),
		RemoteToken:      os.Getenv("REMOTE_TOKEN"),
		SyncCron:         os.Getenv("SYNC_CRON"),
		AdminToken:       os.Getenv("ADMIN_TOKEN"),
		DiscordBotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		NotifyFromEmail:  os.Getenv("NOTIFY_FROM_EMAIL"),
		NotifyToEmail:    os.Getenv("NOTIFY_TO_EMAIL"),
		ThemeFile:        os.Getenv("THEME_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.RemoteEndpoint != "" && c.RemoteToken == "" {
		return fmt.Errorf("REMOTE_TOKEN is required when REMOTE_ENDPOINT is set")
	}

	if c.SyncCron != "" && c.RemoteEndpoint == "" {
		return fmt.Errorf("SYNC_CRON requires REMOTE_ENDPOINT")
	}

	if c.DiscordBotToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_BOT_TOKEN is set")
	}

	if c.SendGridAPIKey != "" && (c.NotifyFromEmail == "" || c.NotifyToEmail == "") {
		return fmt.Errorf("NOTIFY_FROM_EMAIL and NOTIFY_TO_EMAIL are required when SENDGRID_API_KEY is set")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location is the shop time zone used for zone-less input and display.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)

	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultValue, nil
	}

	return time.ParseDuration(s)
}
