package calendar

import (
	"context"
	"time"
)

// Event is a calendar entry as the booking core sees it.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// Reminders are popup offsets before Start. Only used on insert.
	Reminders []time.Duration
}

// Text is the searchable body of an event.
func (e Event) Text() string {
	return e.Summary + "\n" + e.Description
}

// Overlaps reports whether [start, end) intersects the event.
func (e Event) Overlaps(start, end time.Time) bool {
	return start.Before(e.End) && end.After(e.Start)
}

// Calendar is the external calendar the salon books into.
type Calendar interface {
	// ListEvents returns events intersecting [from, to], ordered by start.
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	// InsertEvent creates the event and returns its external id.
	InsertEvent(ctx context.Context, event Event) (string, error)
	DeleteEvent(ctx context.Context, id string) error
}
