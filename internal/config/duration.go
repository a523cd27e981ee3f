package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationOrDefault parses a duration string and falls back to defaultValue when empty.
func DurationOrDefault(value string, defaultValue string) (time.Duration, error) {
	candidate := strings.TrimSpace(value)
	if candidate == "" {
		candidate = strings.TrimSpace(defaultValue)
	}
	if candidate == "" {
		return 0, fmt.Errorf("duration value is empty")
	}

	d, err := time.ParseDuration(candidate)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", candidate, err)
	}
	return d, nil
}

// Location resolves the salon timezone, falling back to Europe/Warsaw.
func (s SalonConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(s.Timezone)
	if name == "" {
		name = DefaultSalonTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// HoursFor returns the opening and closing hour for weekday.
// ok is false when the day is not listed or the salon is closed.
func (s SalonConfig) HoursFor(day time.Weekday) (open, close int, ok bool) {
	hours := s.Hours
	if len(hours) == 0 {
		hours = DefaultHours()
	}
	want := strings.ToLower(day.String())
	for _, h := range hours {
		if strings.ToLower(strings.TrimSpace(h.Day)) != want {
			continue
		}
		if h.Close <= h.Open {
			return 0, 0, false
		}
		return h.Open, h.Close, true
	}
	return 0, 0, false
}
