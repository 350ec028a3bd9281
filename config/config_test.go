package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/hanksha/garage-booking-backend/config"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"LISTEN_ADDR", "STORE_BACKEND", "DATABASE_URL", "REDIS_ADDR", "REDIS_PASSWORD", "STORE_SLOT",
	"SAVE_DEBOUNCE", "TIMEZONE", "REMOTE_ENDPOINT", "REMOTE_TOKEN", "SYNC_CRON", "ADMIN_TOKEN",
	"DISCORD_BOT_TOKEN", "DISCORD_CHANNEL_ID", "SENDGRID_API_KEY", "NOTIFY_FROM_EMAIL", "NOTIFY_TO_EMAIL", "THEME_FILE",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, config.BackendMemory, cfg.StoreBackend)
	require.Equal(t, "garage_bookings", cfg.StoreSlot)
	require.Equal(t, 300*time.Millisecond, cfg.SaveDebounce)
	require.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/garage")
	t.Setenv("SAVE_DEBOUNCE", "1s")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("REMOTE_ENDPOINT", "https://script.example.com/exec")
	t.Setenv("REMOTE_TOKEN", "secret")
	t.Setenv("SYNC_CRON", "*/5 * * * *")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, config.BackendPostgres, cfg.StoreBackend)
	require.Equal(t, time.Second, cfg.SaveDebounce)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "America/New_York", loc.String())
}

func TestLoadWithFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORE_BACKEND=redis\nREDIS_ADDR=localhost:6379\nADMIN_TOKEN=letmein\n"), 0o600))

	cfg, err := config.LoadWithFile(envFile)

	require.NoError(t, err)
	require.Equal(t, config.BackendRedis, cfg.StoreBackend)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, "letmein", cfg.AdminToken)
}

func TestLoadWithMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := config.LoadWithFile(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{StoreBackend: config.BackendMemory, Timezone: "UTC"}
	}

	cases := map[string]func(*config.Config){
		"unknown backend":         func(c *config.Config) { c.StoreBackend = "sqlite" },
		"postgres without url":    func(c *config.Config) { c.StoreBackend = config.BackendPostgres },
		"redis without addr":      func(c *config.Config) { c.StoreBackend = config.BackendRedis },
		"remote without token":    func(c *config.Config) { c.RemoteEndpoint = "https://example.com" },
		"cron without remote":     func(c *config.Config) { c.SyncCron = "@hourly" },
		"discord without channel": func(c *config.Config) { c.DiscordBotToken = "token" },
		"sendgrid without emails": func(c *config.Config) { c.SendGridAPIKey = "SG.x" },
		"bad timezone":            func(c *config.Config) { c.Timezone = "Mars/Olympus" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)

			require.Error(t, cfg.Validate())
		})
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})
}

func TestLocation(t *testing.T) {
	cfg := config.Config{Timezone: "Europe/Berlin"}

	loc, err := cfg.Location()

	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", loc.String())

	cfg.Timezone = "Mars/Olympus"

	_, err = cfg.Location()

	require.ErrorContains(t, err, "invalid TIMEZONE")
}

func TestInvalidDebounce(t *testing.T) {
	clearEnv(t)
	t.Setenv("SAVE_DEBOUNCE", "soon")

	_, err := config.Load()

	require.Error(t, err)
}

func TestLoadTheme(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		theme, err := config.LoadTheme("")

		require.NoError(t, err)
		require.Equal(t, bk.DefaultColors, theme.Colors())
	})

	t.Run("missing file", func(t *testing.T) {
		theme, err := config.LoadTheme(filepath.Join(t.TempDir(), "theme.yaml"))

		require.NoError(t, err)
		require.Equal(t, config.DefaultTheme(), theme)
	})

	t.Run("partial file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "theme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("primary: \"#aa0000\"\nprimary_dark: \"#880000\"\n"), 0o600))

		theme, err := config.LoadTheme(path)

		require.NoError(t, err)
		require.Equal(t, bk.Colors{Background: "#aa0000", Border: "#880000", Text: bk.DefaultColors.Text}, theme.Colors())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "theme.yaml")
		require.NoError(t, os.WriteFile(path, []byte("primary: [unclosed"), 0o600))

		_, err := config.LoadTheme(path)

		require.Error(t, err)
	})
}
