package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
)

// New builds the configured calendar backend wrapped with timeouts and logging.
func New(ctx context.Context, cfg config.CalendarConfig, loc *time.Location) (Calendar, error) {
	timeout, err := config.DurationOrDefault(cfg.RequestTimeout, config.DefaultCalendarRequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar.request_timeout: %w", err)
	}

	var backend Calendar
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "memory":
		backend = NewMemoryCalendar()
	case "google":
		g, err := NewGoogleCalendar(ctx, cfg.CredentialsFile, cfg.CalendarID, loc)
		if err != nil {
			return nil, err
		}
		backend = g
	default:
		return nil, fmt.Errorf("unknown calendar provider %q", cfg.Provider)
	}

	return NewInstrumented(backend, timeout), nil
}
