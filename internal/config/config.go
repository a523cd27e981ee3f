package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/bookbot/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Salon    SalonConfig    `koanf:"salon"`
	Calendar CalendarConfig `koanf:"calendar"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Booking  BookingConfig  `koanf:"booking"`
	Session  SessionConfig  `koanf:"session"`
	Intent   IntentConfig   `koanf:"intent"`
	Models   ModelsConfig   `koanf:"models"`
	Adapters AdaptersConfig `koanf:"adapters"`
	Ingress  IngressConfig  `koanf:"ingress"`
	Daemon   DaemonConfig   `koanf:"daemon"`
}

type ServerConfig struct {
	Port            int    `koanf:"port" yaml:"port"`
	LogLevel        string `koanf:"log_level" yaml:"log_level"`
	ReadTimeout     string `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SalonConfig describes the single salon the bot books for.
type SalonConfig struct {
	Name            string       `koanf:"name" yaml:"name"`
	Phone           string       `koanf:"phone" yaml:"phone"`
	Address         string       `koanf:"address" yaml:"address"`
	Timezone        string       `koanf:"timezone" yaml:"timezone"`
	Hours           []HoursEntry `koanf:"hours" yaml:"hours"`
	Services        []string     `koanf:"services" yaml:"services"`
	DefaultService  string       `koanf:"default_service" yaml:"default_service"`
	DefaultDuration int          `koanf:"default_duration" yaml:"default_duration"`
	SourceTag       string       `koanf:"source_tag" yaml:"source_tag"`
}

// HoursEntry is one weekday's opening hours. Open == Close means closed.
type HoursEntry struct {
	Day   string `koanf:"day" yaml:"day"`
	Open  int    `koanf:"open" yaml:"open"`
	Close int    `koanf:"close" yaml:"close"`
}

type CalendarConfig struct {
	Provider        string `koanf:"provider" yaml:"provider"`
	CalendarID      string `koanf:"calendar_id" yaml:"calendar_id"`
	CredentialsFile string `koanf:"credentials_file" yaml:"credentials_file"`
	RequestTimeout  string `koanf:"request_timeout" yaml:"request_timeout"`
}

type ScheduleConfig struct {
	SlotGranularity  int `koanf:"slot_granularity" yaml:"slot_granularity"`
	MaxPerDay        int `koanf:"max_per_day" yaml:"max_per_day"`
	MaxTotal         int `koanf:"max_total" yaml:"max_total"`
	ScanCapDays      int `koanf:"scan_cap_days" yaml:"scan_cap_days"`
	DefaultDaysAhead int `koanf:"default_days_ahead" yaml:"default_days_ahead"`
}

type BookingConfig struct {
	Verify           bool   `koanf:"verify" yaml:"verify"`
	VerifyWindow     string `koanf:"verify_window" yaml:"verify_window"`
	VerifyTolerance  string `koanf:"verify_tolerance" yaml:"verify_tolerance"`
	CancelSearchDays int    `koanf:"cancel_search_days" yaml:"cancel_search_days"`
	MatchRequireBoth bool   `koanf:"match_require_both" yaml:"match_require_both"`
}

type SessionConfig struct {
	TTL           string `koanf:"ttl" yaml:"ttl"`
	SweepSchedule string `koanf:"sweep_schedule" yaml:"sweep_schedule"`
}

type IntentConfig struct {
	UseModel    bool   `koanf:"use_model" yaml:"use_model"`
	Model       string `koanf:"model" yaml:"model"`
	Timeout     string `koanf:"timeout" yaml:"timeout"`
	ChatReplies bool   `koanf:"chat_replies" yaml:"chat_replies"`
}

type ModelsConfig struct {
	Default             string          `koanf:"default" yaml:"default"`
	Fallback            string          `koanf:"fallback" yaml:"fallback"`
	MaxFallbackAttempts int             `koanf:"max_fallback_attempts" yaml:"max_fallback_attempts"`
	Registry            []ModelRegistry `koanf:"registry" yaml:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name" yaml:"name"`
	Provider       string `koanf:"provider" yaml:"provider"`
	BaseURL        string `koanf:"base_url" yaml:"base_url"`
	APIKey         string `koanf:"api_key" yaml:"-"`
	RequestTimeout string `koanf:"request_timeout" yaml:"request_timeout"`
}

type AdaptersConfig struct {
	Slack           SlackConfig    `koanf:"slack" yaml:"slack"`
	Telegram        TelegramConfig `koanf:"telegram" yaml:"telegram"`
	MaxMessageChars int            `koanf:"max_message_chars" yaml:"max_message_chars"`
}

type SlackConfig struct {
	Enabled       bool   `koanf:"enabled" yaml:"enabled"`
	Port          int    `koanf:"port" yaml:"port"`
	SigningSecret string `koanf:"signing_secret" yaml:"-"`
	BotToken      string `koanf:"bot_token" yaml:"-"`
}

type TelegramConfig struct {
	Enabled       bool   `koanf:"enabled" yaml:"enabled"`
	BotToken      string `koanf:"bot_token" yaml:"-"`
	UpdateTimeout int    `koanf:"update_timeout" yaml:"update_timeout"`
}

type IngressConfig struct {
	QueueSize       int    `koanf:"queue_size" yaml:"queue_size"`
	Workers         int    `koanf:"workers" yaml:"workers"`
	SubmitTimeout   string `koanf:"submit_timeout" yaml:"submit_timeout"`
	IdempotencyTTL  string `koanf:"idempotency_ttl" yaml:"idempotency_ttl"`
	IdempotencyPath string `koanf:"idempotency_path" yaml:"idempotency_path"`
}

type DaemonConfig struct {
	ShutdownTimeout     string `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	HealthCheckInterval string `koanf:"health_check_interval" yaml:"health_check_interval"`
	LockPath            string `koanf:"lock_path" yaml:"lock_path"`
	LockTimeout         string `koanf:"lock_timeout" yaml:"lock_timeout"`
}

const (
	DefaultServerPort               = 8080
	DefaultServerLogLevel           = "info"
	DefaultServerReadTimeout        = "10s"
	DefaultServerWriteTimeout       = "10s"
	DefaultServerIdleTimeout        = "60s"
	DefaultServerShutdownTimeout    = "5s"
	DefaultSalonName                = "Salon Kleopatra"
	DefaultSalonPhone               = "123-456-789"
	DefaultSalonAddress             = "ul. Piękna 15, 00-001 Warszawa"
	DefaultSalonTimezone            = "Europe/Warsaw"
	DefaultSalonService             = "Haircut"
	DefaultSalonDuration            = 60
	DefaultSalonSourceTag           = "Booked via chat bot"
	DefaultCalendarProvider         = "memory"
	DefaultCalendarRequestTimeout   = "10s"
	DefaultScheduleSlotGranularity  = 30
	DefaultScheduleMaxPerDay        = 4
	DefaultScheduleMaxTotal         = 10
	DefaultScheduleScanCapDays      = 14
	DefaultScheduleDaysAhead        = 7
	DefaultBookingVerify            = true
	DefaultBookingVerifyWindow      = "2h"
	DefaultBookingVerifyTolerance   = "5m"
	DefaultBookingCancelSearchDays  = 7
	DefaultSessionTTL               = "30m"
	DefaultSessionSweepSchedule     = "@every 5m"
	DefaultIntentUseModel           = false
	DefaultIntentTimeout            = "8s"
	DefaultModelDefault             = "gpt-4o-mini"
	DefaultModelFallback            = ""
	DefaultModelMaxFallbackAttempts = 2
	DefaultOpenAIBaseURL            = "https://api.openai.com/v1"
	DefaultOllamaBaseURL            = "http://localhost:11434/v1"
	DefaultOllamaAPIKey             = "ollama"
	DefaultModelRequestTimeout      = "30s"
	DefaultSlackPort                = 3000
	DefaultTelegramUpdateTimeout    = 60
	DefaultMaxMessageChars          = 1500
	DefaultIngressQueueSize         = 100
	DefaultIngressWorkers           = 4
	DefaultIngressSubmitTimeout     = "500ms"
	DefaultIngressIdempotencyTTL    = "24h"
	DefaultIngressDrainTimeout      = "5s"
	DefaultIngressDrainPollInterval = "100ms"
	DefaultDaemonShutdownTimeout    = "30s"
	DefaultDaemonHealthCheckPeriod  = "30s"
	DefaultDaemonLockTimeout        = "5s"
)

// DefaultHours mirrors the salon's published opening hours.
func DefaultHours() []HoursEntry {
	return []HoursEntry{
		{Day: "monday", Open: 9, Close: 19},
		{Day: "tuesday", Open: 9, Close: 19},
		{Day: "wednesday", Open: 9, Close: 19},
		{Day: "thursday", Open: 9, Close: 19},
		{Day: "friday", Open: 9, Close: 19},
		{Day: "saturday", Open: 9, Close: 16},
		{Day: "sunday", Open: 0, Close: 0},
	}
}

func DefaultServices() []string {
	return []string{"Haircut", "Colouring", "Styling", "Highlights"}
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.port":                  DefaultServerPort,
		"server.log_level":             DefaultServerLogLevel,
		"server.read_timeout":          DefaultServerReadTimeout,
		"server.write_timeout":         DefaultServerWriteTimeout,
		"server.idle_timeout":          DefaultServerIdleTimeout,
		"server.shutdown_timeout":      DefaultServerShutdownTimeout,
		"salon.name":                   DefaultSalonName,
		"salon.phone":                  DefaultSalonPhone,
		"salon.address":                DefaultSalonAddress,
		"salon.timezone":               DefaultSalonTimezone,
		"salon.hours":                  DefaultHours(),
		"salon.services":               DefaultServices(),
		"salon.default_service":        DefaultSalonService,
		"salon.default_duration":       DefaultSalonDuration,
		"salon.source_tag":             DefaultSalonSourceTag,
		"calendar.provider":            DefaultCalendarProvider,
		"calendar.request_timeout":     DefaultCalendarRequestTimeout,
		"schedule.slot_granularity":    DefaultScheduleSlotGranularity,
		"schedule.max_per_day":         DefaultScheduleMaxPerDay,
		"schedule.max_total":           DefaultScheduleMaxTotal,
		"schedule.scan_cap_days":       DefaultScheduleScanCapDays,
		"schedule.default_days_ahead":  DefaultScheduleDaysAhead,
		"booking.verify":               DefaultBookingVerify,
		"booking.verify_window":        DefaultBookingVerifyWindow,
		"booking.verify_tolerance":     DefaultBookingVerifyTolerance,
		"booking.cancel_search_days":   DefaultBookingCancelSearchDays,
		"booking.match_require_both":   false,
		"session.ttl":                  DefaultSessionTTL,
		"session.sweep_schedule":       DefaultSessionSweepSchedule,
		"intent.use_model":             DefaultIntentUseModel,
		"intent.model":                 DefaultModelDefault,
		"intent.timeout":               DefaultIntentTimeout,
		"intent.chat_replies":          false,
		"models.default":               DefaultModelDefault,
		"models.fallback":              DefaultModelFallback,
		"models.max_fallback_attempts": DefaultModelMaxFallbackAttempts,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: "openai"},
			{Name: "local-llama", Provider: "ollama", BaseURL: DefaultOllamaBaseURL},
		},
		"adapters.slack.port":              DefaultSlackPort,
		"adapters.telegram.update_timeout": DefaultTelegramUpdateTimeout,
		"adapters.max_message_chars":       DefaultMaxMessageChars,
		"ingress.queue_size":               DefaultIngressQueueSize,
		"ingress.workers":                  DefaultIngressWorkers,
		"ingress.submit_timeout":           DefaultIngressSubmitTimeout,
		"ingress.idempotency_ttl":          DefaultIngressIdempotencyTTL,
		"ingress.idempotency_path":         filepath.Join(os.Getenv("HOME"), ".bookbot", "processed.json"),
		"daemon.shutdown_timeout":          DefaultDaemonShutdownTimeout,
		"daemon.health_check_interval":     DefaultDaemonHealthCheckPeriod,
		"daemon.lock_path":                 filepath.Join(os.Getenv("HOME"), ".bookbot", "bookbot.lock"),
		"daemon.lock_timeout":              DefaultDaemonLockTimeout,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".bookbot", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider(envPrefix, ".", envKey), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "openai"
		}
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "gemini", os.Getenv("GEMINI_API_KEY"))

	if cfg.Calendar.CalendarID == "" {
		cfg.Calendar.CalendarID = os.Getenv("GOOGLE_CALENDAR_ID")
	}
	if cfg.Calendar.CredentialsFile == "" {
		cfg.Calendar.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Adapters.Telegram.BotToken == "" {
		cfg.Adapters.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	fields := []*string{
		&cfg.Calendar.CredentialsFile,
		&cfg.Ingress.IdempotencyPath,
		&cfg.Daemon.LockPath,
	}
	for _, field := range fields {
		expanded, err := pathutil.Expand(*field)
		if err != nil {
			return err
		}
		if expanded != "" {
			*field = expanded
		}
	}

	return nil
}
