package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want DayRef
	}{
		{"today", DayRef{Kind: DayToday}},
		{"Dzisiaj", DayRef{Kind: DayToday}},
		{"jutro", DayRef{Kind: DayTomorrow}},
		{"day after tomorrow", DayRef{Kind: DayAfterTomorrow}},
		{"pojutrze", DayRef{Kind: DayAfterTomorrow}},
		{"Wednesday", DayRef{Kind: DayWeekday, Weekday: time.Wednesday}},
		{"środę", DayRef{Kind: DayWeekday, Weekday: time.Wednesday}},
		{"śr.", DayRef{Kind: DayWeekday, Weekday: time.Wednesday}},
		{"sobotę", DayRef{Kind: DayWeekday, Weekday: time.Saturday}},
		{"czw", DayRef{Kind: DayWeekday, Weekday: time.Thursday}},
		{"pt", DayRef{Kind: DayWeekday, Weekday: time.Friday}},
	}
	for _, tt := range tests {
		got, ok := ParseDay(tt.in)
		assert.True(t, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, ok := ParseDay("later")
	assert.False(t, ok)
	_, ok = ParseDay("")
	assert.False(t, ok)
}

func TestFindDay(t *testing.T) {
	ref, ok := FindDay("Can I come on Friday at 10?")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, ref.Weekday)

	ref, ok = FindDay("chcę się umówić na środę o 11")
	assert.True(t, ok)
	assert.Equal(t, time.Wednesday, ref.Weekday)

	ref, ok = FindDay("how about the day after tomorrow")
	assert.True(t, ok)
	assert.Equal(t, DayAfterTomorrow, ref.Kind)

	_, ok = FindDay("hello there")
	assert.False(t, ok)
}

func TestNextWeekday(t *testing.T) {
	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, mon, NextWeekday(mon, time.Monday))
	assert.Equal(t, mon.AddDate(0, 0, 1), NextWeekday(mon, time.Tuesday))
	assert.Equal(t, mon.AddDate(0, 0, 6), NextWeekday(mon, time.Sunday))
}

func TestDayRefString(t *testing.T) {
	assert.Equal(t, "tomorrow", DayRef{Kind: DayTomorrow}.String())
	assert.Equal(t, "wednesday", DayRef{Kind: DayWeekday, Weekday: time.Wednesday}.String())
}
