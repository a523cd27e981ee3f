package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/bookbot/internal/booking"
	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/intent"
	"github.com/harunnryd/bookbot/internal/schedule"
	"github.com/harunnryd/bookbot/internal/session"
)

const (
	maxDaySlots   = 10
	maxOtherSlots = 5
	bookingHint   = `To book, write e.g. "Tuesday 10:00 haircut".`
)

type replies struct {
	salon config.SalonConfig
}

func (r replies) name() string {
	if r.salon.Name != "" {
		return r.salon.Name
	}
	return config.DefaultSalonName
}

func (r replies) phone() string {
	if r.salon.Phone != "" {
		return r.salon.Phone
	}
	return config.DefaultSalonPhone
}

func (r replies) callUs() string {
	return "Or call us: " + r.phone()
}

func (r replies) welcome() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi! This is %s", r.name())
	if r.salon.Address != "" {
		fmt.Fprintf(&b, ", %s", r.salon.Address)
	}
	b.WriteString(".\n")
	if hours := r.hours(); hours != "" {
		b.WriteString("Opening hours: " + hours + ".\n")
	}
	b.WriteString("Ask me about free slots or book directly. " + bookingHint + "\n")
	b.WriteString(r.callUs())
	return b.String()
}

func (r replies) hours() string {
	days := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	var parts []string
	for _, d := range days {
		open, close, ok := r.salon.HoursFor(d)
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d-%d", d.String()[:3], open, close))
	}
	return strings.Join(parts, ", ")
}

func (r replies) slots(slots []schedule.Slot) string {
	if len(slots) == 0 {
		return "Sorry, there are no free slots in the coming days.\n" + r.callUs()
	}
	var b strings.Builder
	b.WriteString("Available slots:\n")
	for _, s := range slots {
		b.WriteString("- " + s.Label() + "\n")
	}
	b.WriteString(bookingHint)
	return b.String()
}

func (r replies) daySlots(day schedule.DayRef, slots []schedule.Slot) string {
	if len(slots) > maxDaySlots {
		slots = slots[:maxDaySlots]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Free slots %s (%s):\n", onDay(day), slots[0].Start.Format("02.01"))
	for _, s := range slots {
		b.WriteString("- " + s.Start.Format("15:04") + "\n")
	}
	fmt.Fprintf(&b, `To book, write e.g. "%s %s haircut".`, day.String(), slots[0].Start.Format("15:04"))
	return b.String()
}

func (r replies) noneOnDay(day schedule.DayRef, others []schedule.Slot) string {
	head := fmt.Sprintf("Sorry, there are no free slots %s.\n", onDay(day))
	if len(others) == 0 {
		return head + r.callUs()
	}
	if len(others) > maxOtherSlots {
		others = others[:maxOtherSlots]
	}
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("Available on other days:\n")
	for _, s := range others {
		b.WriteString("- " + s.Label() + "\n")
	}
	b.WriteString(r.callUs())
	return b.String()
}

func onDay(day schedule.DayRef) string {
	if day.Kind == schedule.DayWeekday {
		return "on " + titleCase(day.String())
	}
	return day.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (r replies) bookingFormat() string {
	return "I couldn't recognise the day and time.\n" + bookingHint
}

func (r replies) askDetails(p session.PendingBooking) string {
	return fmt.Sprintf("Almost done!\nWhen: %s %s\nService: %s\n\nI still need your first and last name and a phone number.\nWrite e.g. \"Jan Kowalski, 123456789\".",
		titleCase(p.Day), p.Time, p.Service)
}

func (r replies) detailsFormat() string {
	return "Please send your first and last name and a 9 digit phone number, e.g. \"Jan Kowalski, 123456789\"."
}

func (r replies) confirmed(b booking.Booking) string {
	return fmt.Sprintf("Appointment confirmed!\nWhen: %s\nClient: %s\nPhone: %s\nService: %s\n\n%s\nSee you at the salon!",
		b.Start.Format("Monday 02.01 15:04"), b.ClientName, b.ClientPhone, b.Service, r.location())
}

func (r replies) location() string {
	if r.salon.Address == "" {
		return r.name()
	}
	return r.name() + ", " + r.salon.Address
}

func (r replies) badTime(err *booking.TimeError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sorry, %s is not available: %s.\n", err.Requested.Format("Monday 15:04"), err.Reason)
	if len(err.Alternatives) > 0 {
		alts := make([]string, 0, len(err.Alternatives))
		for _, a := range err.Alternatives {
			alts = append(alts, a.Format("15:04"))
		}
		fmt.Fprintf(&b, "You could try %s.\n", strings.Join(alts, " or "))
	}
	b.WriteString(bookingHint)
	return b.String()
}

func (r replies) closed(day string) string {
	return fmt.Sprintf("Sorry, the salon is closed %s. Please pick another day.\n%s", closedOn(day), bookingHint)
}

func closedOn(day string) string {
	if ref, ok := schedule.ParseDay(day); ok {
		return onDay(ref)
	}
	return "then"
}

func (r replies) unknownTerm(p session.PendingBooking) string {
	return fmt.Sprintf("I couldn't work out the date for %q %q.\n%s", p.Day, p.Time, bookingHint)
}

func (r replies) badPhone() string {
	return "The phone number must have exactly 9 digits. Please start the booking again.\n" + bookingHint
}

func (r replies) taken(p session.PendingBooking, free []schedule.Slot) string {
	head := fmt.Sprintf("Sorry, %s %s has just been taken.\n", titleCase(p.Day), p.Time)
	if len(free) == 0 {
		return head + r.callUs()
	}
	if len(free) > maxOtherSlots {
		free = free[:maxOtherSlots]
	}
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("Still free that day:\n")
	for _, s := range free {
		b.WriteString("- " + s.Start.Format("15:04") + "\n")
	}
	b.WriteString(bookingHint)
	return b.String()
}

func (r replies) unconfirmed() string {
	return "Sorry, I couldn't confirm your booking in the calendar. Please call us to make sure: " + r.phone()
}

func (r replies) calendarDown() string {
	return "Sorry, there is a problem with the calendar right now.\n" + r.callUs()
}

func (r replies) failure() string {
	return "Sorry, something went wrong. Please try again.\n" + r.callUs()
}

func (r replies) pendingDropped(p session.PendingBooking) string {
	return fmt.Sprintf("Booking cancelled.\nWhen: %s %s\nService: %s\n\n"+
		"If you also want to cancel a visit booked earlier, send your first and last name, phone number, and the day and time of the visit.\n"+
		"Or ask for free slots to book again.",
		titleCase(p.Day), p.Time, p.Service)
}

func (r replies) cancelFormat() string {
	return "To cancel a visit, send your first and last name, phone number, and the day and time of the visit.\nE.g. \"Jan Kowalski, 123456789, Wednesday 11:00\"."
}

func (r replies) nothingToCancel(f intent.CancellationFields) string {
	return fmt.Sprintf("I couldn't find a visit for %s on %s at %s.\n%s", f.Name, titleCase(f.Day), f.Time, r.callUs())
}

func (r replies) cancelled(title string, start time.Time) string {
	return fmt.Sprintf("Visit cancelled.\n%s\nWhen: %s\n\nCan I help with anything else?", title, start.Format("Monday 02.01 15:04"))
}
