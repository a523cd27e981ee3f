package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	bberrors "github.com/harunnryd/bookbot/internal/errors"

	"github.com/oklog/ulid/v2"
)

// MemoryCalendar keeps events in process. It backs the dev provider and tests.
type MemoryCalendar struct {
	mu         sync.Mutex
	events     map[string]Event
	listErr    error
	insertErr  error
	dropWrites bool
}

func NewMemoryCalendar(events ...Event) *MemoryCalendar {
	m := &MemoryCalendar{events: make(map[string]Event)}
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = ulid.Make().String()
		}
		m.events[ev.ID] = ev
	}
	return m
}

func (m *MemoryCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}

	out := make([]Event, 0)
	for _, ev := range m.events {
		if ev.Start.After(to) || !ev.End.After(from) {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (m *MemoryCalendar) InsertEvent(ctx context.Context, event Event) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return "", m.insertErr
	}

	id := ulid.Make().String()
	if m.dropWrites {
		return id, nil
	}
	event.ID = id
	m.events[id] = event
	return id, nil
}

func (m *MemoryCalendar) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return bberrors.NotFound("event " + id)
	}
	delete(m.events, id)
	return nil
}

// Len returns the number of stored events.
func (m *MemoryCalendar) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// FailListing makes every ListEvents call return err until cleared with nil.
func (m *MemoryCalendar) FailListing(err error) {
	m.mu.Lock()
	m.listErr = err
	m.mu.Unlock()
}

// FailInserts makes every InsertEvent call return err until cleared with nil.
func (m *MemoryCalendar) FailInserts(err error) {
	m.mu.Lock()
	m.insertErr = err
	m.mu.Unlock()
}

// DropWrites acknowledges inserts without storing them.
func (m *MemoryCalendar) DropWrites(drop bool) {
	m.mu.Lock()
	m.dropWrites = drop
	m.mu.Unlock()
}
