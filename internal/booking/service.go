package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/calendar"
	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/schedule"
)

// Reminders attached to every appointment.
var Reminders = []time.Duration{24 * time.Hour, 60 * time.Minute}

// Booking is an appointment the calendar has accepted.
type Booking struct {
	ClientName  string
	ClientPhone string
	Service     string
	Start       time.Time
	End         time.Time
	ExternalID  string
}

// Request is a booking collected from the conversation.
type Request struct {
	Name        string
	Phone       string
	Service     string
	Day         string
	Time        string
	DurationMin int
}

type Service struct {
	writeMu   sync.Mutex
	cal       calendar.Calendar
	engine    *schedule.Engine
	resolver  *DayResolver
	salon     config.SalonConfig
	verify    bool
	window    time.Duration
	tolerance time.Duration
}

func NewService(cal calendar.Calendar, engine *schedule.Engine, salon config.SalonConfig, cfg config.BookingConfig) (*Service, error) {
	window, err := config.DurationOrDefault(cfg.VerifyWindow, config.DefaultBookingVerifyWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid booking.verify_window: %w", err)
	}
	tolerance, err := config.DurationOrDefault(cfg.VerifyTolerance, config.DefaultBookingVerifyTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid booking.verify_tolerance: %w", err)
	}
	return &Service{
		cal:       cal,
		engine:    engine,
		resolver:  NewDayResolver(engine),
		salon:     salon,
		verify:    cfg.Verify,
		window:    window,
		tolerance: tolerance,
	}, nil
}

func (s *Service) Resolver() *DayResolver {
	return s.resolver
}

// CreateAppointment resolves dayRef and clock, validates and writes the
// appointment. It reports the external id and whether the write landed.
func (s *Service) CreateAppointment(ctx context.Context, name, phone, service, dayRef, clock string, durationMin int) (string, bool) {
	start, err := s.resolver.Resolve(dayRef, clock)
	if err != nil {
		slog.Info("Appointment not created", "day", dayRef, "time", clock, "error", err)
		return "", false
	}
	b, err := s.create(ctx, name, phone, service, start, durationMin)
	if err != nil {
		slog.Info("Appointment not created", "start", start, "error", err)
		return "", false
	}
	return b.ExternalID, true
}

// CreateAt writes an appointment at an absolute start.
func (s *Service) CreateAt(ctx context.Context, name, phone, service string, start time.Time, durationMin int) (Booking, error) {
	return s.create(ctx, name, phone, service, start, durationMin)
}

func (s *Service) create(ctx context.Context, name, phone, service string, start time.Time, durationMin int) (Booking, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Booking{}, bberrors.InvalidInput("client name is required")
	}
	digits, err := ValidatePhone(phone)
	if err != nil {
		return Booking{}, err
	}
	service = s.serviceOrDefault(service)
	duration := s.duration(durationMin)

	if err := s.ValidateStart(start, duration); err != nil {
		return Booking{}, err
	}

	b := Booking{
		ClientName:  name,
		ClientPhone: digits,
		Service:     service,
		Start:       start.In(s.engine.Location()),
		End:         start.In(s.engine.Location()).Add(duration),
	}
	id, err := s.cal.InsertEvent(ctx, calendar.Event{
		Summary:     fmt.Sprintf("%s - %s", b.Service, b.ClientName),
		Description: s.describe(b),
		Start:       b.Start,
		End:         b.End,
		Reminders:   Reminders,
	})
	if err != nil {
		return Booking{}, bberrors.WrapWithCategory(err, "write appointment", bberrors.ErrExternalService)
	}
	b.ExternalID = id
	return b, nil
}

func (s *Service) describe(b Booking) string {
	tag := s.salon.SourceTag
	if tag == "" {
		tag = config.DefaultSalonSourceTag
	}
	lines := []string{
		"Client: " + b.ClientName,
		"Phone: " + b.ClientPhone,
		"Service: " + b.Service,
		"Date: " + b.Start.Format("Monday 02.01.2006 15:04"),
		tag,
	}
	return strings.Join(lines, "\n")
}

// VerifyAppointmentExists re-reads the calendar around start and reports
// the id of an event close in time that names the client and the service.
func (s *Service) VerifyAppointmentExists(ctx context.Context, name, phone string, start time.Time, service string) (string, bool) {
	events, err := s.cal.ListEvents(ctx, start.Add(-s.window), start.Add(s.window))
	if err != nil {
		slog.Warn("Verification read failed", "start", start, "error", err)
		return "", false
	}
	for _, ev := range events {
		delta := ev.Start.Sub(start)
		if delta < 0 {
			delta = -delta
		}
		if delta > s.tolerance {
			continue
		}
		text := ev.Text()
		if !containsFold(text, name) && !phoneIn(text, phone) {
			continue
		}
		if !containsFold(text, service) {
			continue
		}
		return ev.ID, true
	}
	return "", false
}

// Book runs the full booking path: resolve, validate, check the slot is
// still free, write and read back. A write that cannot be read back is
// reported as ErrStaleWrite.
func (s *Service) Book(ctx context.Context, req Request) (Booking, error) {
	start, err := s.resolver.Resolve(req.Day, req.Time)
	if err != nil {
		return Booking{}, err
	}
	duration := s.duration(req.DurationMin)

	if _, err := ValidatePhone(req.Phone); err != nil {
		return Booking{}, err
	}
	if err := s.ValidateStart(start, duration); err != nil {
		return Booking{}, err
	}
	// Check and write as one step so two clients cannot take the same slot.
	s.writeMu.Lock()
	if err := s.ensureFree(ctx, start, duration); err != nil {
		s.writeMu.Unlock()
		return Booking{}, err
	}
	b, err := s.create(ctx, req.Name, req.Phone, req.Service, start, req.DurationMin)
	s.writeMu.Unlock()
	if err != nil {
		return Booking{}, err
	}

	if s.verify {
		if _, ok := s.VerifyAppointmentExists(ctx, b.ClientName, b.ClientPhone, b.Start, b.Service); !ok {
			slog.Warn("Appointment write not visible", "event_id", b.ExternalID, "start", b.Start)
			return Booking{}, bberrors.StaleWrite("appointment could not be confirmed")
		}
	}

	slog.Info("Appointment booked", "event_id", b.ExternalID, "service", b.Service, "start", b.Start)
	return b, nil
}

func (s *Service) ensureFree(ctx context.Context, start time.Time, duration time.Duration) error {
	busy, err := s.engine.Busy(ctx, start)
	if err != nil {
		return bberrors.WrapWithCategory(err, "check slot", bberrors.ErrExternalService)
	}
	end := start.Add(duration)
	for _, b := range busy {
		if schedule.Overlaps(start, end, b.Start, b.End) {
			return fmt.Errorf("%s is already taken: %w", start.Format("Monday 15:04"), bberrors.ErrConflict)
		}
	}
	return nil
}

func (s *Service) serviceOrDefault(service string) string {
	service = strings.TrimSpace(service)
	if service != "" {
		return service
	}
	if s.salon.DefaultService != "" {
		return s.salon.DefaultService
	}
	return config.DefaultSalonService
}

func (s *Service) duration(durationMin int) time.Duration {
	if durationMin <= 0 {
		durationMin = s.salon.DefaultDuration
	}
	if durationMin <= 0 {
		durationMin = config.DefaultSalonDuration
	}
	return time.Duration(durationMin) * time.Minute
}
