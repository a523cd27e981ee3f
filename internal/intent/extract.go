package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harunnryd/bookbot/internal/booking"
	"github.com/harunnryd/bookbot/internal/schedule"
)

// BookingFields are what a booking request must name.
type BookingFields struct {
	Day     string
	Time    string
	Service string
}

// ContactFields identify the client. Phone holds exactly nine digits.
type ContactFields struct {
	Name  string
	Phone string
}

// CancellationFields identify a booking to cancel.
type CancellationFields struct {
	Name  string
	Phone string
	Day   string
	Time  string
}

var (
	clockColon  = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	clockSuffix = regexp.MustCompile(`\b(\d{1,2})\s*h\b`)
	clockWord   = regexp.MustCompile(`(?i)(?:\bgodz(?:\.|ina|inę|inie)?|\bo|\bna|\bat|@)\s*(\d{1,2})\b`)
	bareHour    = regexp.MustCompile(`\b(\d{1,2})\b`)

	contactPattern = regexp.MustCompile(`(\p{Lu}\p{Ll}+)\s+(\p{Lu}\p{Ll}+(?:-\p{Lu}\p{Ll}+)?)[,;\s]+(?:tel(?:efon)?\.?\s*:?\s*|phone\s*:?\s*)?(\d{9}|\d{3}[-\s]\d{3}[-\s]\d{3})(?:\D|$)`)
)

// FindClock returns the first time of day mentioned in text.
func FindClock(text string) (schedule.Clock, bool) {
	lower := strings.ToLower(text)
	if m := clockColon.FindStringSubmatch(lower); m != nil {
		if c, ok := clock(m[1], m[2]); ok {
			return c, true
		}
	}
	if m := clockSuffix.FindStringSubmatch(lower); m != nil {
		if c, ok := clock(m[1], ""); ok {
			return c, true
		}
	}
	for _, m := range clockWord.FindAllStringSubmatch(lower, -1) {
		if c, ok := clock(m[1], ""); ok {
			return c, true
		}
	}
	// "wtorek 10": a lone number is read as an hour only inside the
	// widest plausible opening hours.
	for _, m := range bareHour.FindAllStringSubmatch(lower, -1) {
		if c, ok := clock(m[1], ""); ok && c.Hour >= 7 && c.Hour <= 21 {
			return c, true
		}
	}
	return schedule.Clock{}, false
}

func clock(hour, minute string) (schedule.Clock, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h > 23 {
		return schedule.Clock{}, false
	}
	m := 0
	if minute != "" {
		m, err = strconv.Atoi(minute)
		if err != nil || m > 59 {
			return schedule.Clock{}, false
		}
	}
	return schedule.Clock{Hour: h, Minute: m}, true
}

// serviceVocabulary maps what clients type to service names, most
// specific first.
var serviceVocabulary = []struct {
	keyword string
	service string
}{
	{"strzyżenie męskie", "Men's haircut"},
	{"men's haircut", "Men's haircut"},
	{"strzyżenie damskie", "Women's haircut"},
	{"women's haircut", "Women's haircut"},
	{"strzyżenie", "Haircut"},
	{"strzyzenie", "Haircut"},
	{"strzyenie", "Haircut"},
	{"ostrzyc", "Haircut"},
	{"haircut", "Haircut"},
	{"hair cut", "Haircut"},
	{"trim", "Haircut"},
	{"farbowanie", "Colouring"},
	{"koloryzacja", "Colouring"},
	{"farba", "Colouring"},
	{"colouring", "Colouring"},
	{"coloring", "Colouring"},
	{"dye", "Colouring"},
	{"pasemka", "Highlights"},
	{"refleksy", "Highlights"},
	{"highlights", "Highlights"},
	{"ombre", "Ombre"},
	{"baleyage", "Balayage"},
	{"balayage", "Balayage"},
	{"stylizacja", "Styling"},
	{"modelowanie", "Styling"},
	{"styling", "Styling"},
	{"blow-dry", "Styling"},
}

// FindService returns the service named in text. Configured service
// names win over the built-in vocabulary.
func (r *Resolver) FindService(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, name := range r.services {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" && strings.Contains(lower, n) {
			return name, true
		}
	}
	for _, v := range serviceVocabulary {
		if strings.Contains(lower, v.keyword) {
			return v.service, true
		}
	}
	return "", false
}

// ExtractBookingFields needs a day and a time; the service falls back
// to the salon default.
func (r *Resolver) ExtractBookingFields(text string) (BookingFields, bool) {
	day, ok := schedule.FindDay(text)
	if !ok {
		return BookingFields{}, false
	}
	c, ok := FindClock(withoutPhones(text))
	if !ok {
		return BookingFields{}, false
	}
	service, ok := r.FindService(text)
	if !ok {
		service = r.defaultService
	}
	return BookingFields{Day: day.String(), Time: c.String(), Service: service}, true
}

// ExtractContactFields finds "First Last" followed by a nine digit phone.
func (r *Resolver) ExtractContactFields(text string) (ContactFields, bool) {
	return findContact(text)
}

// ExtractCancellationFields needs name, phone, day and time.
func (r *Resolver) ExtractCancellationFields(text string) (CancellationFields, bool) {
	contact, ok := findContact(text)
	if !ok {
		return CancellationFields{}, false
	}
	rest := withoutPhones(text)
	day, ok := schedule.FindDay(rest)
	if !ok {
		return CancellationFields{}, false
	}
	c, ok := FindClock(rest)
	if !ok {
		return CancellationFields{}, false
	}
	return CancellationFields{
		Name:  contact.Name,
		Phone: contact.Phone,
		Day:   day.String(),
		Time:  c.String(),
	}, true
}

func findContact(text string) (ContactFields, bool) {
	for _, m := range contactPattern.FindAllStringSubmatch(text, -1) {
		phone, ok := booking.NormalizePhone(m[3])
		if !ok {
			continue
		}
		return ContactFields{Name: m[1] + " " + m[2], Phone: phone}, true
	}
	return ContactFields{}, false
}

var phoneLike = regexp.MustCompile(`\d{3}[-\s]?\d{3}[-\s]?\d{3}`)

func withoutPhones(text string) string {
	return phoneLike.ReplaceAllString(text, " ")
}
