package calendar

import (
	"context"
	"log/slog"
	"time"

	bberrors "github.com/harunnryd/bookbot/internal/errors"
)

// Instrumented bounds every call with a timeout, logs it and maps
// provider failures onto the bookbot error taxonomy.
type Instrumented struct {
	next    Calendar
	timeout time.Duration
	mapper  bberrors.ErrorMapper
}

func NewInstrumented(next Calendar, timeout time.Duration) *Instrumented {
	return &Instrumented{
		next:    next,
		timeout: timeout,
		mapper:  bberrors.NewDefaultErrorMapper(),
	}
}

func (c *Instrumented) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Instrumented) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	events, err := c.next.ListEvents(ctx, from, to)
	if err != nil {
		mapped := c.mapper.MapError(err)
		slog.Warn("Calendar list failed", "from", from, "to", to, "error", err, "category", c.mapper.Category(mapped))
		return nil, bberrors.WrapWithCategory(err, "list events", categoryOf(mapped))
	}
	slog.Debug("Calendar list", "from", from, "to", to, "events", len(events), "elapsed", time.Since(started))
	return events, nil
}

func (c *Instrumented) InsertEvent(ctx context.Context, event Event) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id, err := c.next.InsertEvent(ctx, event)
	if err != nil {
		mapped := c.mapper.MapError(err)
		slog.Warn("Calendar insert failed", "summary", event.Summary, "start", event.Start, "error", err)
		return "", bberrors.WrapWithCategory(err, "insert event", categoryOf(mapped))
	}
	slog.Info("Calendar event created", "id", id, "summary", event.Summary, "start", event.Start)
	return id, nil
}

func (c *Instrumented) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.next.DeleteEvent(ctx, id); err != nil {
		mapped := c.mapper.MapError(err)
		slog.Warn("Calendar delete failed", "id", id, "error", err)
		return bberrors.WrapWithCategory(err, "delete event", categoryOf(mapped))
	}
	slog.Info("Calendar event deleted", "id", id)
	return nil
}

// categoryOf picks the sentinel a mapped error carries. Anything the
// taxonomy does not name is treated as the calendar being unavailable.
func categoryOf(err error) error {
	for _, sentinel := range []error{
		bberrors.ErrNotFound,
		bberrors.ErrInvalidInput,
		bberrors.ErrConflict,
		bberrors.ErrTransient,
	} {
		if bberrors.IsCategory(err, sentinel) {
			return sentinel
		}
	}
	return bberrors.ErrExternalService
}
