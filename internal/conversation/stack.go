package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/bookbot/internal/booking"
	"github.com/harunnryd/bookbot/internal/calendar"
	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/intent"
	"github.com/harunnryd/bookbot/internal/model"
	"github.com/harunnryd/bookbot/internal/schedule"
	"github.com/harunnryd/bookbot/internal/session"
)

// Stack is the assembled booking core.
type Stack struct {
	Location *time.Location
	Calendar calendar.Calendar
	Slots    *schedule.Engine
	Bookings *booking.Service
	Matcher  *booking.MatchResolver
	Sessions *session.Store
	Intents  *intent.Resolver
	Models   model.ModelRouter
	Engine   *Engine
}

type StackOption func(*stackOptions)

type stackOptions struct {
	calendar calendar.Calendar
	model    intent.LanguageModel
	now      func() time.Time
}

// WithCalendar replaces the configured calendar backend.
func WithCalendar(cal calendar.Calendar) StackOption {
	return func(o *stackOptions) { o.calendar = cal }
}

// WithLanguageModel replaces the model router behind the intent fallback.
func WithLanguageModel(m intent.LanguageModel) StackOption {
	return func(o *stackOptions) { o.model = m }
}

// WithNow pins the clock used by slots, bookings and sessions.
func WithNow(now func() time.Time) StackOption {
	return func(o *stackOptions) { o.now = now }
}

// NewStack builds every collaborator of the conversation engine from cfg.
func NewStack(ctx context.Context, cfg *config.Config, opts ...StackOption) (*Stack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not provided")
	}
	var o stackOptions
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Salon.Location()
	if err != nil {
		return nil, err
	}

	cal := o.calendar
	if cal == nil {
		cal, err = calendar.New(ctx, cfg.Calendar, loc)
		if err != nil {
			return nil, fmt.Errorf("init calendar: %w", err)
		}
	}

	slots := schedule.NewEngine(cal, cfg.Salon, cfg.Schedule, loc, schedule.WithClock(o.now))
	bookings, err := booking.NewService(cal, slots, cfg.Salon, cfg.Booking)
	if err != nil {
		return nil, err
	}

	searchDays := cfg.Booking.CancelSearchDays
	if searchDays <= 0 {
		searchDays = config.DefaultBookingCancelSearchDays
	}
	matcher := booking.NewMatchResolver(cal, bookings.Resolver(), booking.MatchPolicy{RequireBoth: cfg.Booking.MatchRequireBoth}, searchDays)

	ttl, err := config.DurationOrDefault(cfg.Session.TTL, config.DefaultSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session.ttl: %w", err)
	}
	sessions := session.NewStore(ttl, session.WithClock(o.now))

	st := &Stack{
		Location: loc,
		Calendar: cal,
		Slots:    slots,
		Bookings: bookings,
		Matcher:  matcher,
		Sessions: sessions,
	}

	intentOpts := []intent.Option{intent.WithServices(cfg.Salon.Services, cfg.Salon.DefaultService)}
	lm, err := st.languageModel(ctx, cfg, o.model)
	if err != nil {
		return nil, err
	}
	if lm != nil {
		timeout, err := config.DurationOrDefault(cfg.Intent.Timeout, config.DefaultIntentTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid intent.timeout: %w", err)
		}
		intentOpts = append(intentOpts, intent.WithModel(lm, timeout))
	}
	st.Intents = intent.NewResolver(intentOpts...)

	st.Engine = NewEngine(Deps{
		Sessions: sessions,
		Intents:  st.Intents,
		Slots:    slots,
		Bookings: bookings,
		Matcher:  matcher,
		Salon:    cfg.Salon,
		Schedule: cfg.Schedule,
		Intent:   cfg.Intent,
	})

	slog.Info("Booking core ready",
		"calendar", cfg.Calendar.Provider,
		"timezone", loc.String(),
		"model_fallback", st.Intents.HasModel(),
	)
	return st, nil
}

// languageModel returns the intent fallback model, or nil when disabled.
func (st *Stack) languageModel(ctx context.Context, cfg *config.Config, override intent.LanguageModel) (intent.LanguageModel, error) {
	if override != nil {
		return override, nil
	}
	if !cfg.Intent.UseModel {
		return nil, nil
	}
	router, err := model.NewModelRouter(ctx, cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("init model router: %w", err)
	}
	if err := router.Health(ctx); err != nil {
		slog.Warn("Intent model unavailable, using rules only", "error", err)
		return nil, nil
	}
	st.Models = router
	return model.NewCompleter(router, cfg.Intent.Model), nil
}
