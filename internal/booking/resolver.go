package booking

import (
	"time"

	bberrors "github.com/harunnryd/bookbot/internal/errors"
	"github.com/harunnryd/bookbot/internal/schedule"
)

// DayResolver turns a day reference and a clock into an absolute start.
type DayResolver struct {
	engine *schedule.Engine
}

func NewDayResolver(engine *schedule.Engine) *DayResolver {
	return &DayResolver{engine: engine}
}

func (r *DayResolver) Location() *time.Location {
	return r.engine.Location()
}

func (r *DayResolver) Now() time.Time {
	return r.engine.Now()
}

// Resolve applies the salon's day rules:
//   - today fails with ErrClosed once today's closing hour has passed
//   - tomorrow and the day after are plain offsets
//   - a weekday is its next occurrence on or after today; today's own
//     weekday stays today only while the requested time is still ahead
func (r *DayResolver) Resolve(dayRef, clock string) (time.Time, error) {
	ref, ok := schedule.ParseDay(dayRef)
	if !ok {
		return time.Time{}, bberrors.Parse("unknown day " + dayRef)
	}
	c, ok := schedule.ParseClock(clock)
	if !ok {
		return time.Time{}, bberrors.Parse("unknown time " + clock)
	}
	return r.ResolveRef(ref, c)
}

func (r *DayResolver) ResolveRef(ref schedule.DayRef, c schedule.Clock) (time.Time, error) {
	now := r.engine.Now()
	today := schedule.StartOfDay(now)

	switch ref.Kind {
	case schedule.DayToday:
		_, close, open := r.engine.Hours(today)
		if !open || !now.Before(close) {
			return time.Time{}, bberrors.Closed("salon is closed for the rest of today")
		}
		return c.On(today), nil
	case schedule.DayTomorrow:
		return c.On(today.AddDate(0, 0, 1)), nil
	case schedule.DayAfterTomorrow:
		return c.On(today.AddDate(0, 0, 2)), nil
	}

	date := schedule.NextWeekday(today, ref.Weekday)
	if date.Equal(today) && !c.On(today).After(now) {
		date = date.AddDate(0, 0, 7)
	}
	return c.On(date), nil
}
