package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/config"

	"github.com/spf13/cobra"
)

func TestConfigInitCmd(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Errorf("Config init failed: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".bookbot", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Config file not created at %s", configPath)
	}

	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Errorf("Config init should succeed when config exists: %v", err)
	}
}

func TestInitConfigReportsProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer

	if err := initConfig(&out, path, "google"); err != nil {
		t.Fatalf("initConfig failed: %v", err)
	}
	if !strings.Contains(out.String(), "Calendar provider: google") {
		t.Errorf("output does not name the provider:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "GOOGLE_CALENDAR_ID") {
		t.Errorf("google setup hint missing:\n%s", out.String())
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(written), "  provider: google\n") {
		t.Error("calendar.provider was not written as google")
	}

	out.Reset()
	if err := initConfig(&out, path, "memory"); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Errorf("existing config should be reported, got:\n%s", out.String())
	}
}

func TestInitConfigRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := initConfig(io.Discard, path, "outlook"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written for an unknown provider")
	}
}

func TestShowConfigPrintsHours(t *testing.T) {
	cfg := &config.Config{Salon: config.SalonConfig{
		Name:     "Studio",
		Timezone: "Europe/Warsaw",
		Hours:    config.DefaultHours(),
	}}
	cfg.Adapters.Telegram.BotToken = "telegram-secret-token"

	var out bytes.Buffer
	if err := showConfig(&out, cfg, false); err != nil {
		t.Fatalf("showConfig failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Opening hours (Europe/Warsaw)", "Saturday", "09:00", "16:00", "closed"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "telegram-secret-token") {
		t.Error("secret leaked into output")
	}
	if strings.Contains(got, "warning:") {
		t.Errorf("default hours should not warn:\n%s", got)
	}
}

func TestShowConfigValidatesSalon(t *testing.T) {
	bad := &config.Config{Salon: config.SalonConfig{Timezone: "Mars/Olympus"}}
	if err := showConfig(io.Discard, bad, true); err == nil {
		t.Error("expected error for unknown timezone")
	}

	never := &config.Config{Salon: config.SalonConfig{
		Timezone: "Europe/Warsaw",
		Hours:    []config.HoursEntry{{Day: "monday", Open: 10, Close: 10}},
	}}
	if err := showConfig(io.Discard, never, true); err == nil {
		t.Error("expected error when the salon never opens")
	}

	odd := &config.Config{Salon: config.SalonConfig{
		Timezone:       "Europe/Warsaw",
		Hours:          []config.HoursEntry{{Day: "monday", Open: 9, Close: 17}, {Day: "funday", Open: 9, Close: 17}, {Day: "tuesday", Open: 18, Close: 9}},
		Services:       []string{"Haircut"},
		DefaultService: "Massage",
	}}
	var out bytes.Buffer
	if err := showConfig(&out, odd, true); err != nil {
		t.Fatalf("showConfig failed: %v", err)
	}
	for _, want := range []string{`unknown day "funday"`, "tuesday closes (9) before it opens (18)", `"Massage" is not in salon.services`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("missing warning %q:\n%s", want, out.String())
		}
	}
}

func TestConfigInitTemplateLoads(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Fatalf("Config init failed: %v", err)
	}

	loaded, err := config.Load(nil)
	if err != nil {
		t.Fatalf("Load() of the generated config failed: %v", err)
	}
	if loaded.Salon.Name != "Salon Kleopatra" {
		t.Errorf("salon name = %q", loaded.Salon.Name)
	}
	if open, close, ok := loaded.Salon.HoursFor(time.Saturday); !ok || open != 9 || close != 16 {
		t.Errorf("saturday hours = %d-%d (%v)", open, close, ok)
	}
	if _, _, ok := loaded.Salon.HoursFor(time.Sunday); ok {
		t.Error("sunday should be closed")
	}
	if loaded.Booking.MatchRequireBoth {
		t.Error("match_require_both should default to false")
	}
}

func TestRedactConfigSecrets(t *testing.T) {
	original := &config.Config{
		Models: config.ModelsConfig{
			Registry: []config.ModelRegistry{
				{Name: "m1", APIKey: "sk-secret-123456"},
				{Name: "m2", APIKey: "abcd"},
			},
		},
		Adapters: config.AdaptersConfig{
			Slack: config.SlackConfig{
				SigningSecret: "slack-signing-secret",
				BotToken:      "slack-bot-token",
			},
			Telegram: config.TelegramConfig{
				BotToken: "telegram-secret-token",
			},
		},
	}

	redacted := redactConfigSecrets(original)

	if redacted == nil {
		t.Fatal("redacted config should not be nil")
	}
	if redacted.Models.Registry[0].APIKey == original.Models.Registry[0].APIKey {
		t.Fatal("model API key should be masked")
	}
	if strings.Contains(redacted.Models.Registry[0].APIKey, "secret") {
		t.Fatal("masked model API key should not leak original value")
	}
	if redacted.Adapters.Slack.SigningSecret == original.Adapters.Slack.SigningSecret {
		t.Fatal("slack signing secret should be masked")
	}
	if redacted.Adapters.Slack.BotToken == original.Adapters.Slack.BotToken {
		t.Fatal("slack bot token should be masked")
	}
	if redacted.Adapters.Telegram.BotToken == original.Adapters.Telegram.BotToken {
		t.Fatal("telegram bot token should be masked")
	}

	// Ensure original struct is not mutated.
	if original.Models.Registry[0].APIKey != "sk-secret-123456" {
		t.Fatal("original config must not be modified")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Fatalf("empty secret: got %q", got)
	}
	if got := maskSecret("abc"); got != "****" {
		t.Fatalf("short secret: got %q", got)
	}

	got := maskSecret("abcdef")
	if len(got) != len("abcdef") {
		t.Fatalf("masked secret length mismatch: got %d", len(got))
	}
	if got[:2] != "ab" || got[len(got)-2:] != "ef" {
		t.Fatalf("masked secret should preserve prefix/suffix: got %q", got)
	}
}
