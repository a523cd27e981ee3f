package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_CALENDAR_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearProviderEnv(t)

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Expected default port %d, got %d", DefaultServerPort, cfg.Server.Port)
	}
	if cfg.Salon.Timezone != DefaultSalonTimezone {
		t.Errorf("Expected default timezone %s, got %s", DefaultSalonTimezone, cfg.Salon.Timezone)
	}
	if cfg.Salon.DefaultDuration != DefaultSalonDuration {
		t.Errorf("Expected default duration %d, got %d", DefaultSalonDuration, cfg.Salon.DefaultDuration)
	}
	if cfg.Calendar.Provider != DefaultCalendarProvider {
		t.Errorf("Expected default calendar provider %s, got %s", DefaultCalendarProvider, cfg.Calendar.Provider)
	}
	if cfg.Schedule.MaxTotal != DefaultScheduleMaxTotal {
		t.Errorf("Expected max total %d, got %d", DefaultScheduleMaxTotal, cfg.Schedule.MaxTotal)
	}
	if cfg.Schedule.ScanCapDays != DefaultScheduleScanCapDays {
		t.Errorf("Expected scan cap %d, got %d", DefaultScheduleScanCapDays, cfg.Schedule.ScanCapDays)
	}
	if cfg.Adapters.MaxMessageChars != DefaultMaxMessageChars {
		t.Errorf("Expected max message chars %d, got %d", DefaultMaxMessageChars, cfg.Adapters.MaxMessageChars)
	}
	assert.False(t, cfg.Booking.MatchRequireBoth)
	assert.True(t, cfg.Booking.Verify)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	assert.Len(t, cfg.Salon.Hours, 7)
	assert.NotEmpty(t, cfg.Models.Registry)
}

func TestLoadInjectsEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GOOGLE_CALENDAR_ID", "salon@group.calendar.google.com")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "salon@group.calendar.google.com", cfg.Calendar.CalendarID)
	for _, m := range cfg.Models.Registry {
		if m.Provider == "openai" {
			assert.Equal(t, "sk-test", m.APIKey)
		}
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearProviderEnv(t)

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
server:
  port: 9090
salon:
  name: "Studio Test"
  hours:
    - day: monday
      open: 10
      close: 18
booking:
  match_require_both: true
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	require.NoError(t, cmd.Flags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Studio Test", cfg.Salon.Name)
	assert.True(t, cfg.Booking.MatchRequireBoth)

	open, close, ok := cfg.Salon.HoursFor(time.Monday)
	require.True(t, ok)
	assert.Equal(t, 10, open)
	assert.Equal(t, 18, close)

	_, _, ok = cfg.Salon.HoursFor(time.Tuesday)
	assert.False(t, ok, "days missing from an explicit schedule are closed")
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_ExpandsConfiguredPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	clearProviderEnv(t)

	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
calendar:
  credentials_file: "~/creds/service-account.json"
ingress:
  idempotency_path: "~/state/processed.json"
daemon:
  lock_path: "~/state/bookbot.lock"
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "")
	require.NoError(t, cmd.Flags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(tmpDir, "creds", "service-account.json"), cfg.Calendar.CredentialsFile)
	assert.Equal(t, filepath.Join(tmpDir, "state", "processed.json"), cfg.Ingress.IdempotencyPath)
	assert.Equal(t, filepath.Join(tmpDir, "state", "bookbot.lock"), cfg.Daemon.LockPath)
}

func TestSalonDefaultHours(t *testing.T) {
	s := SalonConfig{}

	open, close, ok := s.HoursFor(time.Wednesday)
	require.True(t, ok)
	assert.Equal(t, 9, open)
	assert.Equal(t, 19, close)

	open, close, ok = s.HoursFor(time.Saturday)
	require.True(t, ok)
	assert.Equal(t, 9, open)
	assert.Equal(t, 16, close)

	_, _, ok = s.HoursFor(time.Sunday)
	assert.False(t, ok)
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("", "30m")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)

	d, err = DurationOrDefault("2h", "30m")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)

	_, err = DurationOrDefault("soon", "")
	assert.Error(t, err)

	_, err = DurationOrDefault("", "")
	assert.Error(t, err)
}

func TestLoadEnvReachesUnderscoredKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearProviderEnv(t)
	t.Setenv("BOOKBOT_SALON_DEFAULT_SERVICE", "Colouring")
	t.Setenv("BOOKBOT_ADAPTERS_TELEGRAM_UPDATE_TIMEOUT", "15")
	t.Setenv("BOOKBOT_BOOKING_MATCH_REQUIRE_BOTH", "true")
	t.Setenv("BOOKBOT_SERVER_PORT", "9191")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "Colouring", cfg.Salon.DefaultService)
	assert.Equal(t, 15, cfg.Adapters.Telegram.UpdateTimeout)
	assert.True(t, cfg.Booking.MatchRequireBoth)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "salon.default_service", envKey("BOOKBOT_SALON_DEFAULT_SERVICE"))
	assert.Equal(t, "adapters.slack.signing_secret", envKey("BOOKBOT_ADAPTERS_SLACK_SIGNING_SECRET"))
	assert.Equal(t, "server.port", envKey("BOOKBOT_SERVER_PORT"))
	assert.Equal(t, "unknown.thing", envKey("BOOKBOT_UNKNOWN_THING"))
}
