package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Slot is a bookable interval that is not reserved yet.
type Slot struct {
	Start   time.Time
	End     time.Time
	DayName string
}

// Label formats the slot the way replies list it.
func (s Slot) Label() string {
	return fmt.Sprintf("%s %s %s", s.DayName, s.Start.Format("02.01"), s.Start.Format("15:04"))
}

// BusyInterval is an occupied range read from the calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps uses half-open intersection.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FreeSlots enumerates grid starts in [open, close) that are after now,
// end no later than close and intersect no busy interval.
func FreeSlots(open, close, now time.Time, step, duration time.Duration, busy []BusyInterval) []Slot {
	if step <= 0 || duration <= 0 || !close.After(open) {
		return nil
	}

	var out []Slot
	for start := open; start.Before(close); start = start.Add(step) {
		end := start.Add(duration)
		if !start.After(now) {
			continue
		}
		if end.After(close) {
			continue
		}
		if collides(start, end, busy) {
			continue
		}
		out = append(out, Slot{Start: start, End: end, DayName: start.Weekday().String()})
	}

	sortSlots(out)
	return out
}

func collides(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

func sortSlots(slots []Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
}

// spread takes slots round-robin across days so the first picks come
// from every day before any day contributes a second one.
func spread(days [][]Slot, perDay, total int) []Slot {
	var out []Slot
	for round := 0; ; round++ {
		if perDay > 0 && round >= perDay {
			break
		}
		added := false
		for _, day := range days {
			if round >= len(day) {
				continue
			}
			if total > 0 && len(out) >= total {
				break
			}
			out = append(out, day[round])
			added = true
		}
		if !added || (total > 0 && len(out) >= total) {
			break
		}
	}
	sortSlots(out)
	return out
}
