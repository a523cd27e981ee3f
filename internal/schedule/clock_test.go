package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClock(t *testing.T) {
	valid := map[string]Clock{
		"10:00":   {10, 0},
		"9:30":    {9, 30},
		"10.15":   {10, 15},
		"10h":     {10, 0},
		"14":      {14, 0},
		" 08:00 ": {8, 0},
	}
	for in, want := range valid {
		got, ok := ParseClock(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "25:00", "10:75", "noon", "10:5"} {
		_, ok := ParseClock(in)
		assert.False(t, ok, in)
	}
}

func TestClockOn(t *testing.T) {
	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 4, 11, 30, 0, 0, time.UTC), Clock{11, 30}.On(date))
	assert.Equal(t, "09:05", Clock{9, 5}.String())
	assert.Equal(t, Clock{11, 30}, ClockOf(time.Date(2026, 3, 4, 11, 30, 0, 0, time.UTC)))
}
