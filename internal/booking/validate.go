package booking

import (
	"fmt"
	"strings"
	"time"

	bberrors "github.com/harunnryd/bookbot/internal/errors"
)

// TimeError rejects a requested start and carries bookable alternatives.
type TimeError struct {
	Requested    time.Time
	Reason       string
	Alternatives []time.Time
}

func (e *TimeError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("%s at %s", e.Reason, e.Requested.Format("2006-01-02 15:04"))
	}
	alts := make([]string, 0, len(e.Alternatives))
	for _, a := range e.Alternatives {
		alts = append(alts, a.Format("15:04"))
	}
	return fmt.Sprintf("%s at %s, try %s", e.Reason, e.Requested.Format("2006-01-02 15:04"), strings.Join(alts, " or "))
}

func (e *TimeError) Unwrap() error {
	return bberrors.ErrValidation
}

// ValidatePhone enforces exactly nine digits.
func ValidatePhone(phone string) (string, error) {
	digits, ok := NormalizePhone(phone)
	if !ok {
		return "", bberrors.Validation("phone number must have exactly 9 digits")
	}
	return digits, nil
}

// ValidateStart checks start against the clock, the opening hours and the grid.
func (s *Service) ValidateStart(start time.Time, duration time.Duration) error {
	now := s.engine.Now()
	start = start.In(s.engine.Location())

	open, close, ok := s.engine.Hours(start)
	if !ok {
		return bberrors.Closed(start.Weekday().String() + " is a day off")
	}
	if !start.After(now) {
		return &TimeError{Requested: start, Reason: "requested time has already passed"}
	}

	step := s.engine.Granularity()
	fits := func(t time.Time) bool {
		return !t.Before(open) && !t.Add(duration).After(close) && t.After(now)
	}

	offset := start.Sub(open)
	if offset%step != 0 {
		floor := open.Add(offset - offset%step)
		ceil := floor.Add(step)
		candidates := []time.Time{floor, ceil}
		if ceil.Sub(start) < start.Sub(floor) {
			candidates = []time.Time{ceil, floor}
		}
		var alts []time.Time
		for _, c := range candidates {
			if fits(c) {
				alts = append(alts, c)
			}
		}
		return &TimeError{Requested: start, Reason: "appointments start on the half hour", Alternatives: alts}
	}

	if !fits(start) {
		var alts []time.Time
		if start.Before(open) && fits(open) {
			alts = append(alts, open)
		}
		if last := close.Add(-duration); start.After(last) && fits(last) {
			alts = append(alts, last)
		}
		return &TimeError{Requested: start, Reason: "outside opening hours", Alternatives: alts}
	}
	return nil
}
