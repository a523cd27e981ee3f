package schedule

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/calendar"
	"github.com/harunnryd/bookbot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return loc
}

// Monday 2 March 2026.
func monday(loc *time.Location, hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, loc)
}

func newEngine(t *testing.T, cal calendar.Calendar, now time.Time, sched config.ScheduleConfig) *Engine {
	t.Helper()
	salon := config.SalonConfig{Hours: config.DefaultHours(), DefaultDuration: 60}
	return NewEngine(cal, salon, sched, now.Location(), WithClock(func() time.Time { return now }))
}

func defaultSchedule() config.ScheduleConfig {
	return config.ScheduleConfig{
		SlotGranularity:  30,
		MaxPerDay:        4,
		MaxTotal:         10,
		ScanCapDays:      14,
		DefaultDaysAhead: 7,
	}
}

func TestScenarioWednesdayFullDay(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 8, 0), defaultSchedule())

	slots := e.GetAvailableSlotsForDay(context.Background(), "Wednesday", 30)
	require.Len(t, slots, 20)

	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, loc), slots[0].Start)
	assert.Equal(t, time.Date(2026, 3, 4, 18, 30, 0, 0, loc), slots[len(slots)-1].Start)
	assert.Equal(t, time.Date(2026, 3, 4, 19, 0, 0, 0, loc), slots[len(slots)-1].End)
	for i, s := range slots {
		assert.Equal(t, "Wednesday", s.DayName)
		if i > 0 {
			assert.Equal(t, 30*time.Minute, s.Start.Sub(slots[i-1].Start))
		}
	}
}

func TestSlotsRejectPastAndSpill(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 17, 0), defaultSchedule())

	slots := e.GetAvailableSlotsForDay(context.Background(), "today", 60)
	require.Len(t, slots, 2)
	assert.Equal(t, monday(loc, 17, 30), slots[0].Start)
	assert.Equal(t, monday(loc, 18, 0), slots[1].Start)
}

func TestBusyIntervalExcludesSlots(t *testing.T) {
	loc := warsaw(t)
	cal := calendar.NewMemoryCalendar(calendar.Event{
		Summary: "Colouring - Anna Nowak",
		Start:   time.Date(2026, 3, 3, 10, 0, 0, 0, loc),
		End:     time.Date(2026, 3, 3, 11, 0, 0, 0, loc),
	})
	e := newEngine(t, cal, monday(loc, 8, 0), defaultSchedule())

	slots := e.GetAvailableSlotsForDay(context.Background(), "wtorek", 60)
	starts := make(map[string]bool)
	for _, s := range slots {
		starts[s.Start.Format("15:04")] = true
	}

	assert.False(t, starts["09:30"], "09:30-10:30 overlaps the booking")
	assert.False(t, starts["10:00"])
	assert.False(t, starts["10:30"])
	assert.True(t, starts["09:00"], "09:00-10:00 only touches the booking")
	assert.True(t, starts["11:00"])
}

func TestGetAvailableSlotsIsIdempotent(t *testing.T) {
	loc := warsaw(t)
	cal := calendar.NewMemoryCalendar(calendar.Event{
		Start: monday(loc, 12, 0).AddDate(0, 0, 1),
		End:   monday(loc, 14, 0).AddDate(0, 0, 1),
	})
	e := newEngine(t, cal, monday(loc, 10, 15), defaultSchedule())

	first := e.GetAvailableSlots(context.Background(), 7, 60)
	second := e.GetAvailableSlots(context.Background(), 7, 60)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestGetAvailableSlotsSpreadsAcrossDays(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 8, 0), defaultSchedule())

	slots := e.GetAvailableSlots(context.Background(), 7, 60)
	require.Len(t, slots, 10)

	perDay := make(map[string]int)
	for i, s := range slots {
		perDay[s.Start.Format("2006-01-02")]++
		if i > 0 {
			assert.False(t, s.Start.Before(slots[i-1].Start), "slots must be sorted")
		}
	}
	assert.GreaterOrEqual(t, len(perDay), 5, "options come from several days")
	for day, n := range perDay {
		assert.LessOrEqual(t, n, 4, day)
		assert.NotEqual(t, time.Sunday, mustParseDay(t, day, loc).Weekday())
	}
}

func mustParseDay(t *testing.T, day string, loc *time.Location) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", day, loc)
	require.NoError(t, err)
	return d
}

func TestGetAvailableSlotsSkipsFailingDay(t *testing.T) {
	loc := warsaw(t)
	failing := monday(loc, 0, 0).AddDate(0, 0, 1)
	cal := &flakyCalendar{Calendar: calendar.NewMemoryCalendar(), failOn: failing}
	e := newEngine(t, cal, monday(loc, 8, 0), config.ScheduleConfig{SlotGranularity: 30, ScanCapDays: 14})

	slots := e.GetAvailableSlots(context.Background(), 3, 60)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.NotEqual(t, time.Tuesday, s.Start.Weekday())
	}

	assert.Empty(t, e.GetAvailableSlotsForDay(context.Background(), "tomorrow", 60))
}

type flakyCalendar struct {
	calendar.Calendar
	failOn time.Time
}

func (f *flakyCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	if from.Equal(f.failOn) {
		return nil, errors.New("googleapi: Error 503: backend unavailable")
	}
	return f.Calendar.ListEvents(ctx, from, to)
}

func TestScanCapBoundsHorizon(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 8, 0),
		config.ScheduleConfig{SlotGranularity: 30, ScanCapDays: 14, MaxPerDay: 1})

	slots := e.GetAvailableSlots(context.Background(), 30, 60)
	// Two weeks starting Monday contain twelve open days.
	assert.Len(t, slots, 12)
	last := slots[len(slots)-1].Start
	assert.True(t, last.Before(monday(loc, 0, 0).AddDate(0, 0, 14)))
}

func TestRandomisedSlotsNeverOverlapBusy(t *testing.T) {
	loc := warsaw(t)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var events []calendar.Event
		for day := 0; day < 7; day++ {
			for i := 0; i < rng.Intn(6); i++ {
				start := monday(loc, 8, 0).AddDate(0, 0, day).Add(time.Duration(rng.Intn(12*60)) * time.Minute)
				end := start.Add(time.Duration(5+rng.Intn(150)) * time.Minute)
				events = append(events, calendar.Event{Start: start, End: end})
			}
		}
		cal := calendar.NewMemoryCalendar(events...)
		e := newEngine(t, cal, monday(loc, 7, 0), config.ScheduleConfig{SlotGranularity: 30, ScanCapDays: 14})
		duration := 30 * (1 + rng.Intn(4))

		for _, s := range e.GetAvailableSlots(context.Background(), 6, duration) {
			for _, ev := range events {
				require.False(t, Overlaps(s.Start, s.End, ev.Start, ev.End),
					"round %d: slot %s overlaps busy %s-%s", round, s.Start, ev.Start, ev.End)
			}
			_, close, ok := e.Hours(s.Start)
			require.True(t, ok)
			require.False(t, s.End.After(close))
		}
	}
}

func TestDateFor(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 10, 0), defaultSchedule())

	assert.Equal(t, monday(loc, 0, 0), e.DateFor(DayRef{Kind: DayToday}))
	assert.Equal(t, monday(loc, 0, 0).AddDate(0, 0, 1), e.DateFor(DayRef{Kind: DayTomorrow}))
	assert.Equal(t, monday(loc, 0, 0).AddDate(0, 0, 2), e.DateFor(DayRef{Kind: DayAfterTomorrow}))
	assert.Equal(t, monday(loc, 0, 0), e.DateFor(DayRef{Kind: DayWeekday, Weekday: time.Monday}))
	assert.Equal(t, monday(loc, 0, 0).AddDate(0, 0, 5), e.DateFor(DayRef{Kind: DayWeekday, Weekday: time.Saturday}))

	late := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 20, 0), defaultSchedule())
	assert.Equal(t, monday(loc, 0, 0).AddDate(0, 0, 7), late.DateFor(DayRef{Kind: DayWeekday, Weekday: time.Monday}))
}

func TestClosedDayHasNoSlots(t *testing.T) {
	loc := warsaw(t)
	e := newEngine(t, calendar.NewMemoryCalendar(), monday(loc, 8, 0), defaultSchedule())

	assert.Empty(t, e.GetAvailableSlotsForDay(context.Background(), "niedziela", 60))
	assert.Empty(t, e.GetAvailableSlotsForDay(context.Background(), "someday", 60))
}

func TestSpreadRoundRobin(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mk := func(day, n int) []Slot {
		var out []Slot
		for i := 0; i < n; i++ {
			s := base.AddDate(0, 0, day).Add(time.Duration(i) * time.Hour)
			out = append(out, Slot{Start: s, End: s.Add(time.Hour)})
		}
		return out
	}

	got := spread([][]Slot{mk(0, 8), mk(1, 1), mk(2, 8)}, 4, 5)
	require.Len(t, got, 5)

	perDay := map[int]int{}
	for _, s := range got {
		perDay[s.Start.Day()]++
	}
	assert.Equal(t, map[int]int{2: 2, 3: 1, 4: 2}, perDay)
}
