package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendar talks to a single Google calendar through a service account.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleCalendar, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, fmt.Errorf("calendar id is required for the google provider")
	}
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, fmt.Errorf("credentials file is required for the google provider")
	}
	if loc == nil {
		loc = time.UTC
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	return &GoogleCalendar{svc: svc, calendarID: calendarID, loc: loc}, nil
}

func (g *GoogleCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	var out []Event
	pageToken := ""
	for {
		call := g.svc.Events.List(g.calendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}

		for _, item := range res.Items {
			ev, ok := g.convert(item)
			if !ok {
				continue
			}
			out = append(out, ev)
		}

		if res.NextPageToken == "" {
			return out, nil
		}
		pageToken = res.NextPageToken
	}
}

func (g *GoogleCalendar) InsertEvent(ctx context.Context, event Event) (string, error) {
	tz := g.loc.String()
	body := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.In(g.loc).Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.In(g.loc).Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	if len(event.Reminders) > 0 {
		overrides := make([]*gcal.EventReminder, 0, len(event.Reminders))
		for _, r := range event.Reminders {
			overrides = append(overrides, &gcal.EventReminder{
				Method:  "popup",
				Minutes: int64(r / time.Minute),
			})
		}
		body.Reminders = &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}

	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, id string) error {
	if err := g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

func (g *GoogleCalendar) convert(item *gcal.Event) (Event, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return Event{}, false
	}
	if item.Status == "cancelled" {
		return Event{}, false
	}
	start, ok := parseEventTime(item.Start, g.loc)
	if !ok {
		return Event{}, false
	}
	end, ok := parseEventTime(item.End, g.loc)
	if !ok {
		return Event{}, false
	}
	return Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
	}, true
}

// parseEventTime reads either a timed or an all-day boundary.
// All-day dates are midnight in the salon timezone.
func parseEventTime(dt *gcal.EventDateTime, loc *time.Location) (time.Time, bool) {
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(loc), true
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
