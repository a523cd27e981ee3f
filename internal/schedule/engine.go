package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/bookbot/internal/calendar"
	"github.com/harunnryd/bookbot/internal/config"
)

// Engine computes free slots against the salon calendar.
type Engine struct {
	cal   calendar.Calendar
	salon config.SalonConfig
	cfg   config.ScheduleConfig
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(cal calendar.Calendar, salon config.SalonConfig, cfg config.ScheduleConfig, loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.SlotGranularity <= 0 {
		cfg.SlotGranularity = config.DefaultScheduleSlotGranularity
	}
	if cfg.ScanCapDays <= 0 {
		cfg.ScanCapDays = config.DefaultScheduleScanCapDays
	}
	if cfg.DefaultDaysAhead <= 0 {
		cfg.DefaultDaysAhead = config.DefaultScheduleDaysAhead
	}
	e := &Engine{
		cal:   cal,
		salon: salon,
		cfg:   cfg,
		loc:   loc,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now is the current time in the salon timezone.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

func (e *Engine) Granularity() time.Duration {
	return time.Duration(e.cfg.SlotGranularity) * time.Minute
}

// Hours returns opening and closing instants for the date's weekday.
func (e *Engine) Hours(date time.Time) (open, close time.Time, ok bool) {
	date = date.In(e.loc)
	openHour, closeHour, ok := e.salon.HoursFor(date.Weekday())
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := date.Date()
	open = time.Date(y, m, d, openHour, 0, 0, 0, e.loc)
	close = time.Date(y, m, d, closeHour, 0, 0, 0, e.loc)
	return open, close, true
}

// Busy reads the occupied intervals of the date's day.
func (e *Engine) Busy(ctx context.Context, date time.Time) ([]BusyInterval, error) {
	from := StartOfDay(date.In(e.loc))
	to := from.AddDate(0, 0, 1)
	events, err := e.cal.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	busy := make([]BusyInterval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, BusyInterval{Start: ev.Start, End: ev.End})
	}
	return busy, nil
}

// SlotsForDate lists every free slot on date. Closed days yield none.
func (e *Engine) SlotsForDate(ctx context.Context, date time.Time, durationMin int) ([]Slot, error) {
	open, close, ok := e.Hours(date)
	if !ok {
		return nil, nil
	}
	busy, err := e.Busy(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("busy intervals for %s: %w", date.Format("2006-01-02"), err)
	}
	return FreeSlots(open, close, e.Now(), e.Granularity(), e.duration(durationMin), busy), nil
}

// GetAvailableSlots scans forward from today over daysAhead open days,
// never more than the scan cap of calendar days, and spreads the result
// across days. A day whose calendar read fails contributes nothing.
func (e *Engine) GetAvailableSlots(ctx context.Context, daysAhead, durationMin int) []Slot {
	if daysAhead <= 0 {
		daysAhead = e.cfg.DefaultDaysAhead
	}

	today := StartOfDay(e.Now())
	var perDay [][]Slot
	scanned := 0
	for offset := 0; scanned < daysAhead && offset < e.cfg.ScanCapDays; offset++ {
		if ctx.Err() != nil {
			break
		}
		date := today.AddDate(0, 0, offset)
		if _, _, ok := e.Hours(date); !ok {
			continue
		}
		scanned++

		slots, err := e.SlotsForDate(ctx, date, durationMin)
		if err != nil {
			slog.Warn("Skipping day, calendar unavailable", "date", date.Format("2006-01-02"), "error", err)
			continue
		}
		if len(slots) > 0 {
			perDay = append(perDay, slots)
		}
	}

	return spread(perDay, e.cfg.MaxPerDay, e.cfg.MaxTotal)
}

// GetAvailableSlotsForDay lists all free slots on the named day.
// Unknown names and calendar failures yield an empty list.
func (e *Engine) GetAvailableSlotsForDay(ctx context.Context, dayName string, durationMin int) []Slot {
	ref, ok := ParseDay(dayName)
	if !ok {
		slog.Debug("Unrecognised day name", "day", dayName)
		return nil
	}
	date := e.DateFor(ref)

	slots, err := e.SlotsForDate(ctx, date, durationMin)
	if err != nil {
		slog.Warn("Calendar unavailable for day query", "day", dayName, "error", err)
		return nil
	}
	return slots
}

// DateFor resolves a day reference for listing purposes. A weekday equal
// to today whose closing hour already passed points at next week.
func (e *Engine) DateFor(ref DayRef) time.Time {
	now := e.Now()
	today := StartOfDay(now)
	switch ref.Kind {
	case DayToday:
		return today
	case DayTomorrow:
		return today.AddDate(0, 0, 1)
	case DayAfterTomorrow:
		return today.AddDate(0, 0, 2)
	}

	date := NextWeekday(today, ref.Weekday)
	if date.Equal(today) {
		if _, close, ok := e.Hours(date); !ok || !now.Before(close) {
			date = date.AddDate(0, 0, 7)
		}
	}
	return date
}

func (e *Engine) duration(durationMin int) time.Duration {
	if durationMin <= 0 {
		durationMin = e.salon.DefaultDuration
	}
	if durationMin <= 0 {
		durationMin = config.DefaultSalonDuration
	}
	return time.Duration(durationMin) * time.Minute
}
