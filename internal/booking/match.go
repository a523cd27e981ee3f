package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/harunnryd/bookbot/internal/calendar"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/schedule"
)

// MatchPolicy decides whether an event belongs to the client asking to
// cancel. By default a matching name OR a matching phone is enough.
type MatchPolicy struct {
	RequireBoth bool
}

// Matches checks name and phone against an event's summary and description.
func (p MatchPolicy) Matches(text, name, phone string) bool {
	nameHit := containsFold(text, name)
	phoneHit := phoneIn(text, phone)
	if p.RequireBoth {
		return nameHit && phoneHit
	}
	return nameHit || phoneHit
}

// CancellationQuery is what the client remembers about a booking.
type CancellationQuery struct {
	Name  string
	Phone string
	Day   string
	Time  string
}

// MatchResolver finds a booking from a cancellation query and deletes it.
type MatchResolver struct {
	cal        calendar.Calendar
	resolver   *DayResolver
	policy     MatchPolicy
	searchDays int
}

func NewMatchResolver(cal calendar.Calendar, resolver *DayResolver, policy MatchPolicy, searchDays int) *MatchResolver {
	if searchDays <= 0 {
		searchDays = 7
	}
	return &MatchResolver{cal: cal, resolver: resolver, policy: policy, searchDays: searchDays}
}

func (r *MatchResolver) Policy() MatchPolicy {
	return r.policy
}

// Find returns the upcoming event matching q that lies closest to the
// resolved day and time. Visits that already started are never candidates,
// so a weekly regular cancels next week's visit rather than last week's.
func (r *MatchResolver) Find(ctx context.Context, q CancellationQuery) (calendar.Event, error) {
	target, err := r.resolver.Resolve(q.Day, q.Time)
	if err != nil {
		return calendar.Event{}, err
	}

	// Calendar days, not 24h multiples, so a DST switch inside the window
	// does not shift the neighbouring week's slot out of it.
	from := target.AddDate(0, 0, -r.searchDays)
	to := target.AddDate(0, 0, r.searchDays)
	events, err := r.cal.ListEvents(ctx, from, to)
	if err != nil {
		return calendar.Event{}, bberrors.WrapWithCategory(err, "search bookings", bberrors.ErrExternalService)
	}

	loc := r.resolver.Location()
	now := r.resolver.Now()
	want := schedule.ClockOf(target)

	var best calendar.Event
	var bestDist time.Duration
	found := false
	for _, ev := range events {
		start := ev.Start.In(loc)
		if !start.After(now) {
			continue
		}
		if start.Weekday() != target.Weekday() {
			continue
		}
		if schedule.ClockOf(start) != want {
			continue
		}
		if !r.policy.Matches(ev.Text(), q.Name, q.Phone) {
			continue
		}
		dist := start.Sub(target).Abs()
		if !found || dist < bestDist || (dist == bestDist && start.Before(best.Start)) {
			best, bestDist, found = ev, dist, true
		}
	}
	if !found {
		return calendar.Event{}, bberrors.NotFound("no booking matches " + q.Day + " " + q.Time)
	}
	return best, nil
}

// Cancel finds the booking and deletes it.
func (r *MatchResolver) Cancel(ctx context.Context, q CancellationQuery) (calendar.Event, error) {
	ev, err := r.Find(ctx, q)
	if err != nil {
		return calendar.Event{}, err
	}
	if err := r.cal.DeleteEvent(ctx, ev.ID); err != nil {
		return calendar.Event{}, bberrors.WrapWithCategory(err, "cancel booking", bberrors.ErrExternalService)
	}
	slog.Info("Booking cancelled", "event_id", ev.ID, "summary", ev.Summary, "start", ev.Start)
	return ev, nil
}

// FindAndCancel reports the outcome as a flag, the cancelled event's
// title and its start. Every failure reads as not cancelled; callers that
// must tell an outage from a miss use Cancel.
func (r *MatchResolver) FindAndCancel(ctx context.Context, q CancellationQuery) (bool, string, time.Time) {
	ev, err := r.Cancel(ctx, q)
	if err != nil {
		slog.Info("Cancellation not completed", "day", q.Day, "time", q.Time,
			"category", bberrors.NewDefaultErrorMapper().Category(err), "error", err)
		return false, "", time.Time{}
	}
	return true, ev.Summary, ev.Start
}
