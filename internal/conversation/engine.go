package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/harunnryd/bookbot/internal/booking"
	"github.com/harunnryd/bookbot/internal/concurrency"
	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/intent"
	"github.com/harunnryd/bookbot/internal/logger"
	"github.com/harunnryd/bookbot/internal/schedule"
	"github.com/harunnryd/bookbot/internal/session"
)

// Deps are the collaborators a conversation needs.
type Deps struct {
	Sessions *session.Store
	Intents  *intent.Resolver
	Slots    *schedule.Engine
	Bookings *booking.Service
	Matcher  *booking.MatchResolver
	Salon    config.SalonConfig
	Schedule config.ScheduleConfig
	Intent   config.IntentConfig
}

// Engine drives one state machine per user and renders every reply.
type Engine struct {
	sessions *session.Store
	intents  *intent.Resolver
	slots    *schedule.Engine
	bookings *booking.Service
	matcher  *booking.MatchResolver
	replies  replies
	days     int
	chat     bool
	errs     bberrors.ErrorMapper
}

func NewEngine(d Deps) *Engine {
	days := d.Schedule.DefaultDaysAhead
	if days <= 0 {
		days = config.DefaultScheduleDaysAhead
	}
	return &Engine{
		sessions: d.Sessions,
		intents:  d.Intents,
		slots:    d.Slots,
		bookings: d.Bookings,
		matcher:  d.Matcher,
		replies:  replies{salon: d.Salon},
		days:     days,
		chat:     d.Intent.ChatReplies,
		errs:     bberrors.NewDefaultErrorMapper(),
	}
}

// Handle processes one inbound message and returns the reply text.
func (e *Engine) Handle(ctx context.Context, userID, text string) string {
	ctx = logger.WithUserID(ctx, userID)
	text = strings.TrimSpace(text)

	if isCommand(text) {
		return e.command(ctx, userID, text)
	}

	var reply string
	err := e.sessions.With(ctx, userID, func(s *session.Session) error {
		from := s.State
		if err := concurrency.Guard(func() error {
			reply = e.step(ctx, s, text)
			return nil
		}); err != nil {
			s.Reset()
			return err
		}
		if s.State != from {
			slog.Debug("Session transition", "user_id", userID, "from", from, "to", s.State)
		}
		return nil
	})
	if err != nil {
		slog.Warn("Message not processed", "user_id", userID, "error", err)
		return e.replies.failure()
	}
	return reply
}

// Reset returns the user's conversation to START.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	return e.sessions.With(ctx, userID, func(s *session.Session) error {
		s.Reset()
		return nil
	})
}

func (e *Engine) Stats() session.Stats {
	return e.sessions.Stats()
}

func (e *Engine) step(ctx context.Context, s *session.Session, text string) string {
	if text == "" {
		return e.reprompt(s)
	}

	in := e.intents.Classify(ctx, text, stateHint(s.State))
	slog.Debug("Message classified", "state", s.State, "intent", in)

	if in == intent.CancelVisit {
		return e.startCancel(ctx, s, text)
	}

	switch s.State {
	case session.StateWaitingForDetails:
		return e.onDetails(ctx, s, text, in)
	case session.StateCancelling:
		return e.onCancelling(ctx, s, text, in)
	case session.StateBooking:
		return e.onBooking(ctx, s, text, in)
	default:
		return e.onStart(ctx, s, text, in)
	}
}

func stateHint(st session.State) string {
	switch st {
	case session.StateWaitingForDetails:
		return intent.HintWaitingForDetails
	case session.StateCancelling:
		return intent.HintCancelling
	}
	return ""
}

func (e *Engine) onStart(ctx context.Context, s *session.Session, text string, in intent.Intent) string {
	switch in {
	case intent.AskAvailability, intent.WantAppointment:
		s.State = session.StateBooking
		return e.availability(ctx, text)
	case intent.Booking:
		return e.collectBooking(s, text)
	}

	if e.chat {
		if answer, ok := e.intents.Chat(ctx, text); ok {
			return answer
		}
	}
	return e.replies.welcome()
}

func (e *Engine) onBooking(ctx context.Context, s *session.Session, text string, in intent.Intent) string {
	switch in {
	case intent.AskAvailability, intent.WantAppointment:
		return e.availability(ctx, text)
	}
	return e.collectBooking(s, text)
}

func (e *Engine) collectBooking(s *session.Session, text string) string {
	fields, ok := e.intents.ExtractBookingFields(text)
	if !ok {
		s.State = session.StateBooking
		return e.replies.bookingFormat()
	}
	s.Pending = session.PendingBooking{Day: fields.Day, Time: fields.Time, Service: fields.Service}
	s.State = session.StateWaitingForDetails
	return e.replies.askDetails(s.Pending)
}

func (e *Engine) onDetails(ctx context.Context, s *session.Session, text string, in intent.Intent) string {
	switch in {
	case intent.ContactData:
		contact, ok := e.intents.ExtractContactFields(text)
		if !ok {
			return e.replies.detailsFormat()
		}
		s.Pending.ClientName = contact.Name
		s.Pending.ClientPhone = contact.Phone
		s.State = session.StateReadyToBook
		return e.book(ctx, s)
	case intent.Booking:
		if fields, ok := e.intents.ExtractBookingFields(text); ok {
			s.Pending = session.PendingBooking{Day: fields.Day, Time: fields.Time, Service: fields.Service}
			return e.replies.askDetails(s.Pending)
		}
	}
	return e.replies.detailsFormat()
}

// book writes the pending booking. The session goes back to START
// whatever the outcome.
func (e *Engine) book(ctx context.Context, s *session.Session) string {
	pending := s.Pending
	defer s.Reset()

	b, err := e.bookings.Book(ctx, booking.Request{
		Name:    pending.ClientName,
		Phone:   pending.ClientPhone,
		Service: pending.Service,
		Day:     pending.Day,
		Time:    pending.Time,
	})
	if err != nil {
		slog.Info("Booking failed", "day", pending.Day, "time", pending.Time, "error", err)
		return e.bookingFailure(ctx, pending, err)
	}
	return e.replies.confirmed(b)
}

func (e *Engine) bookingFailure(ctx context.Context, pending session.PendingBooking, err error) string {
	var timeErr *booking.TimeError
	switch {
	case errors.As(err, &timeErr):
		return e.replies.badTime(timeErr)
	case errors.Is(err, bberrors.ErrClosed):
		return e.replies.closed(pending.Day)
	case errors.Is(err, bberrors.ErrParse):
		return e.replies.unknownTerm(pending)
	case errors.Is(err, bberrors.ErrValidation):
		return e.replies.badPhone()
	case errors.Is(err, bberrors.ErrConflict):
		return e.replies.taken(pending, e.slots.GetAvailableSlotsForDay(ctx, pending.Day, 0))
	case errors.Is(err, bberrors.ErrStaleWrite):
		return e.replies.unconfirmed()
	case errors.Is(err, bberrors.ErrTransient):
		return e.replies.calendarDown()
	default:
		slog.Error("Unexpected booking error", "error", err)
		return e.replies.failure()
	}
}

func (e *Engine) startCancel(ctx context.Context, s *session.Session, text string) string {
	if s.State == session.StateWaitingForDetails && !s.Pending.IsZero() {
		dropped := s.Pending
		s.Reset()
		s.State = session.StateCancelling
		return e.replies.pendingDropped(dropped)
	}
	if fields, ok := e.intents.ExtractCancellationFields(text); ok {
		return e.cancel(ctx, s, fields)
	}
	s.Pending = session.PendingBooking{}
	s.State = session.StateCancelling
	return e.replies.cancelFormat()
}

func (e *Engine) onCancelling(ctx context.Context, s *session.Session, text string, in intent.Intent) string {
	fields, ok := e.intents.ExtractCancellationFields(text)
	if ok {
		return e.cancel(ctx, s, fields)
	}
	switch in {
	case intent.AskAvailability, intent.WantAppointment, intent.Booking:
		// the client changed their mind and wants to book instead
		s.Reset()
		return e.onStart(ctx, s, text, in)
	}
	return e.replies.cancelFormat()
}

func (e *Engine) cancel(ctx context.Context, s *session.Session, f intent.CancellationFields) string {
	defer s.Reset()

	ev, err := e.matcher.Cancel(ctx, booking.CancellationQuery{
		Name:  f.Name,
		Phone: f.Phone,
		Day:   f.Day,
		Time:  f.Time,
	})
	if err != nil {
		slog.Info("Cancellation not completed", "day", f.Day, "time", f.Time,
			"category", e.errs.Category(err), "error", err)
		if errors.Is(err, bberrors.ErrTransient) {
			return e.replies.calendarDown()
		}
		return e.replies.nothingToCancel(f)
	}
	return e.replies.cancelled(ev.Summary, ev.Start)
}

// availability lists free slots, narrowed to a day when the message names one.
func (e *Engine) availability(ctx context.Context, text string) string {
	day, named := schedule.FindDay(text)
	if !named {
		return e.replies.slots(e.slots.GetAvailableSlots(ctx, e.days, 0))
	}

	daySlots := e.slots.GetAvailableSlotsForDay(ctx, day.String(), 0)
	if len(daySlots) > 0 {
		return e.replies.daySlots(day, daySlots)
	}

	date := e.slots.DateFor(day)
	var others []schedule.Slot
	for _, sl := range e.slots.GetAvailableSlots(ctx, e.days, 0) {
		if !schedule.StartOfDay(sl.Start).Equal(date) {
			others = append(others, sl)
		}
	}
	return e.replies.noneOnDay(day, others)
}

func (e *Engine) reprompt(s *session.Session) string {
	switch s.State {
	case session.StateWaitingForDetails:
		return e.replies.detailsFormat()
	case session.StateCancelling:
		return e.replies.cancelFormat()
	case session.StateBooking:
		return e.replies.bookingFormat()
	}
	return e.replies.welcome()
}
