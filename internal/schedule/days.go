package schedule

import (
	"strings"
	"time"
	"unicode"
)

type DayKind int

const (
	DayToday DayKind = iota
	DayTomorrow
	DayAfterTomorrow
	DayWeekday
)

// DayRef is a relative day reference as clients type it.
type DayRef struct {
	Kind    DayKind
	Weekday time.Weekday
}

func (d DayRef) String() string {
	switch d.Kind {
	case DayToday:
		return "today"
	case DayTomorrow:
		return "tomorrow"
	case DayAfterTomorrow:
		return "day after tomorrow"
	default:
		return strings.ToLower(d.Weekday.String())
	}
}

var relativeDays = map[string]DayKind{
	"today":    DayToday,
	"dziś":     DayToday,
	"dzis":     DayToday,
	"dzisiaj":  DayToday,
	"tomorrow": DayTomorrow,
	"jutro":    DayTomorrow,
	"pojutrze": DayAfterTomorrow,
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"poniedziałek": time.Monday, "poniedzialek": time.Monday, "pon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wtorek": time.Tuesday, "wt": time.Tuesday, "wtr": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"środa": time.Wednesday, "środę": time.Wednesday, "sroda": time.Wednesday, "srode": time.Wednesday,
	"śr": time.Wednesday, "sr": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"czwartek": time.Thursday, "czw": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"piątek": time.Friday, "piatek": time.Friday, "pt": time.Friday, "pią": time.Friday, "pia": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sobota": time.Saturday, "sobotę": time.Saturday, "sobote": time.Saturday, "sob": time.Saturday, "sb": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
	"niedziela": time.Sunday, "niedzielę": time.Sunday, "niedziele": time.Sunday, "nd": time.Sunday, "ndz": time.Sunday,
}

// ParseDay reads a single day reference such as "tomorrow", "Wednesday" or "śr".
func ParseDay(ref string) (DayRef, bool) {
	key := strings.ToLower(strings.TrimSpace(ref))
	key = strings.TrimSuffix(key, ".")
	if key == "" {
		return DayRef{}, false
	}
	if key == "day after tomorrow" {
		return DayRef{Kind: DayAfterTomorrow}, true
	}
	if kind, ok := relativeDays[key]; ok {
		return DayRef{Kind: kind}, true
	}
	if wd, ok := weekdayNames[key]; ok {
		return DayRef{Kind: DayWeekday, Weekday: wd}, true
	}
	return DayRef{}, false
}

// FindDay returns the first day reference mentioned anywhere in text.
func FindDay(text string) (DayRef, bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "day after tomorrow") {
		return DayRef{Kind: DayAfterTomorrow}, true
	}
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if ref, ok := ParseDay(w); ok {
			return ref, true
		}
	}
	return DayRef{}, false
}

// NextWeekday returns the first date on or after from falling on wd.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, diff)
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
