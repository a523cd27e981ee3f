package intent

import (
	"strings"

	"github.com/harunnryd/bookbot/internal/schedule"
)

var (
	cancelKeywords = []string{
		"anuluj", "anulować", "anulowac", "anulowanie", "odwołać", "odwolac", "odwołuję", "odwoluje", "odwołaj",
		"rezygnuję", "rezygnuje", "cancel", "call off",
	}
	availabilityKeywords = []string{
		"wolne", "wolnych", "wolnego", "dostępn", "dostepn", "terminy", "kiedy",
		"available", "availability", "free slot", "free time", "openings", "what times", "when can",
	}
	appointmentKeywords = []string{
		"umówić", "umowic", "umówię", "umowie", "umawiam", "wizyt", "zapisać", "zapisac", "ostrzyc", "chcę się", "chce sie",
		"book", "appointment", "reserve", "reservation", "visit",
	}
)

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func (r *Resolver) defaultRules() []Rule {
	return []Rule{
		{
			Name: "cancel",
			Match: func(m Message) (Intent, bool) {
				return CancelVisit, containsAny(m.Lower, cancelKeywords)
			},
		},
		{
			Name: "contact",
			Match: func(m Message) (Intent, bool) {
				if m.StateHint != HintWaitingForDetails && m.StateHint != HintCancelling {
					return "", false
				}
				_, ok := findContact(m.Text)
				return ContactData, ok
			},
		},
		{
			Name: "day_and_time",
			Match: func(m Message) (Intent, bool) {
				if _, ok := schedule.FindDay(m.Text); !ok {
					return "", false
				}
				_, ok := FindClock(withoutPhones(m.Text))
				return Booking, ok
			},
		},
		{
			Name: "availability",
			Match: func(m Message) (Intent, bool) {
				return AskAvailability, containsAny(m.Lower, availabilityKeywords)
			},
		},
		{
			Name: "appointment",
			Match: func(m Message) (Intent, bool) {
				return WantAppointment, containsAny(m.Lower, appointmentKeywords)
			},
		},
	}
}
