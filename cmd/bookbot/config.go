package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harunnryd/bookbot/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/config.yaml
var embeddedDefaultConfig []byte

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the bookbot configuration",
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"view"},
	Short:   "Print the effective configuration and opening hours",
	Long: `Prints the configuration with defaults, file and BOOKBOT_* environment applied,
secrets masked, followed by the weekly opening hours and any problems in the salon section.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := loadConfigForCommand(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		hoursOnly, _ := cmd.Flags().GetBool("hours")
		return showConfig(cmd.OutOrStdout(), loadedCfg, hoursOnly)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config to $HOME/.bookbot/config.yaml",
	Long:  `Writes the bundled starter config. An existing file is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		provider := config.DefaultCalendarProvider
		if f := cmd.Flags().Lookup("provider"); f != nil {
			provider = f.Value.String()
		}
		return initConfig(cmd.OutOrStdout(), filepath.Join(home, ".bookbot", "config.yaml"), provider)
	},
}

// showConfig writes the redacted YAML (unless hoursOnly) and the weekly
// hours. It fails when the salon section cannot drive the slot engine.
func showConfig(w io.Writer, cfg *config.Config, hoursOnly bool) error {
	if cfg == nil {
		return fmt.Errorf("config is not initialized; run 'bookbot config init' first")
	}

	if !hoursOnly {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(redactConfigSecrets(cfg)); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		enc.Close()
		fmt.Fprintln(w)
	}

	loc, err := cfg.Salon.Location()
	if err != nil {
		return fmt.Errorf("salon.timezone: %w", err)
	}
	fmt.Fprintf(w, "Opening hours (%s)\n%s\n", loc, renderHours(cfg.Salon))

	problems := salonProblems(cfg.Salon)
	for _, p := range problems {
		fmt.Fprintf(w, "warning: %s\n", p)
	}
	if openDays(cfg.Salon) == 0 {
		return fmt.Errorf("salon.hours: the salon is never open")
	}
	return nil
}

func renderHours(salon config.SalonConfig) string {
	t := newTable("Day", "Open", "Close")
	for _, day := range weekFromMonday() {
		open, close, ok := salon.HoursFor(day)
		if !ok {
			t.Row(day.String(), "closed", "")
			continue
		}
		t.Row(day.String(), fmt.Sprintf("%02d:00", open), fmt.Sprintf("%02d:00", close))
	}
	return t.String()
}

// salonProblems lists entries HoursFor would silently ignore or misread.
func salonProblems(salon config.SalonConfig) []string {
	var out []string

	known := make(map[string]bool, 7)
	for _, d := range weekFromMonday() {
		known[strings.ToLower(d.String())] = true
	}
	seen := make(map[string]bool, len(salon.Hours))
	for _, h := range salon.Hours {
		day := strings.ToLower(strings.TrimSpace(h.Day))
		switch {
		case !known[day]:
			out = append(out, fmt.Sprintf("unknown day %q in salon.hours", h.Day))
			continue
		case seen[day]:
			out = append(out, fmt.Sprintf("%s is listed twice in salon.hours; the first entry wins", day))
		}
		seen[day] = true
		if h.Open < 0 || h.Close > 24 {
			out = append(out, fmt.Sprintf("%s hours %d-%d are outside 0-24", day, h.Open, h.Close))
		}
		if h.Close < h.Open {
			out = append(out, fmt.Sprintf("%s closes (%d) before it opens (%d); treated as closed", day, h.Close, h.Open))
		}
	}

	if openDays(salon) == 0 {
		out = append(out, "no open day in salon.hours")
	}
	if salon.DefaultService != "" && len(salon.Services) > 0 && !containsFold(salon.Services, salon.DefaultService) {
		out = append(out, fmt.Sprintf("salon.default_service %q is not in salon.services", salon.DefaultService))
	}
	if salon.DefaultDuration < 0 {
		out = append(out, "salon.default_duration is negative")
	}
	return out
}

func openDays(salon config.SalonConfig) int {
	n := 0
	for _, d := range weekFromMonday() {
		if _, _, ok := salon.HoursFor(d); ok {
			n++
		}
	}
	return n
}

func weekFromMonday() []time.Weekday {
	return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// initConfig writes the starter config with the chosen calendar provider
// and reports what was written.
func initConfig(w io.Writer, path, provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	switch provider {
	case "":
		provider = config.DefaultCalendarProvider
	case "memory", "google":
	default:
		return fmt.Errorf("unknown calendar provider %q (memory, google)", provider)
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Config already exists at %s\n", path)
		fmt.Fprintln(w, "Use 'bookbot config show' to see the effective configuration.")
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	content, err := configTemplate(provider)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}

	var written struct {
		Salon    config.SalonConfig    `yaml:"salon"`
		Calendar config.CalendarConfig `yaml:"calendar"`
	}
	if err := yaml.Unmarshal(content, &written); err != nil {
		return fmt.Errorf("written config is not valid YAML: %w", err)
	}

	fmt.Fprintf(w, "✓ Initialized config at %s\n", path)
	fmt.Fprintf(w, "Salon: %s (%s)\n", written.Salon.Name, written.Salon.Timezone)
	fmt.Fprintf(w, "Calendar provider: %s\n", written.Calendar.Provider)
	if written.Calendar.Provider == "google" {
		fmt.Fprintln(w, "Set GOOGLE_CALENDAR_ID and GOOGLE_APPLICATION_CREDENTIALS before 'bookbot serve'.")
	} else {
		fmt.Fprintln(w, "Appointments live in memory and are lost on restart; use --provider google for a real calendar.")
	}
	fmt.Fprintln(w, "Run 'bookbot config show --hours' to check the opening hours.")
	return nil
}

// configTemplate returns the bundled config with calendar.provider set.
func configTemplate(provider string) ([]byte, error) {
	const marker = "  provider: " + config.DefaultCalendarProvider + "\n"
	tmpl := []byte(strings.TrimSpace(string(embeddedDefaultConfig)) + "\n")
	if !bytes.Contains(tmpl, []byte(marker)) {
		return nil, fmt.Errorf("bundled config has no calendar provider line")
	}
	return bytes.Replace(tmpl, []byte(marker), []byte("  provider: "+provider+"\n"), 1), nil
}

func redactConfigSecrets(in *config.Config) *config.Config {
	if in == nil {
		return nil
	}

	out := *in
	if len(in.Models.Registry) > 0 {
		out.Models.Registry = make([]config.ModelRegistry, len(in.Models.Registry))
		copy(out.Models.Registry, in.Models.Registry)
		for i := range out.Models.Registry {
			out.Models.Registry[i].APIKey = maskSecret(out.Models.Registry[i].APIKey)
		}
	}
	out.Adapters.Slack.SigningSecret = maskSecret(out.Adapters.Slack.SigningSecret)
	out.Adapters.Slack.BotToken = maskSecret(out.Adapters.Slack.BotToken)
	out.Adapters.Telegram.BotToken = maskSecret(out.Adapters.Telegram.BotToken)
	return &out
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}

func init() {
	configShowCmd.Flags().Bool("hours", false, "print only the opening hours")
	configInitCmd.Flags().String("provider", config.DefaultCalendarProvider, "calendar backend to write (memory, google)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
