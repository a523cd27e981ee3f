package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/calendar"
	bberrors "github.com/harunnryd/bookbot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPolicy(t *testing.T) {
	text := "Haircut - Jan Kowalski\nClient: Jan Kowalski\nPhone: 123456789"

	or := MatchPolicy{}
	assert.True(t, or.Matches(text, "Jan Kowalski", "000000000"))
	assert.True(t, or.Matches(text, "Someone Else", "123-456-789"))
	assert.True(t, or.Matches(text, "jan kowalski", ""))
	assert.False(t, or.Matches(text, "Someone Else", "000000000"))
	assert.False(t, or.Matches(text, "", ""), "empty identity never matches")

	both := MatchPolicy{RequireBoth: true}
	assert.False(t, both.Matches(text, "Jan Kowalski", "000000000"))
	assert.True(t, both.Matches(text, "Jan Kowalski", "123 456 789"))
}

func TestScenarioCancelWithWrongPhone(t *testing.T) {
	f := newFixture(t, 8, 0)
	ctx := context.Background()

	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", f.date(3, 10, 0), 30)
	require.NoError(t, err)

	ok, title, start := f.matcher.FindAndCancel(ctx, CancellationQuery{
		Name: "Jan Kowalski", Phone: "000000000", Day: "Tuesday", Time: "10:00",
	})
	require.True(t, ok)
	assert.Equal(t, "Haircut - Jan Kowalski", title)
	assert.Equal(t, f.date(3, 10, 0), start)
	assert.Equal(t, 0, f.cal.Len())
}

func TestCreateCancelThenVerifyFails(t *testing.T) {
	f := newFixture(t, 8, 0)
	ctx := context.Background()

	b, err := f.service.CreateAt(ctx, "Anna Nowak", "987654321", "Colouring", f.date(5, 14, 0), 60)
	require.NoError(t, err)
	_, err = f.service.CreateAt(ctx, "Ewa Zielińska", "555666777", "Haircut", f.date(5, 16, 0), 60)
	require.NoError(t, err)

	ok, _, _ := f.matcher.FindAndCancel(ctx, CancellationQuery{Name: "Anna Nowak", Phone: "987654321", Day: "czwartek", Time: "14:00"})
	require.True(t, ok)
	assert.Equal(t, 1, f.cal.Len(), "exactly one event removed")

	_, ok = f.service.VerifyAppointmentExists(ctx, b.ClientName, b.ClientPhone, b.Start, b.Service)
	assert.False(t, ok)
}

func TestCancelSearchesAcrossWeeks(t *testing.T) {
	f := newFixture(t, 8, 0)
	ctx := context.Background()

	// Booked for Tuesday next week; "Tuesday" now resolves to this week.
	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", f.date(10, 12, 0), 60)
	require.NoError(t, err)

	ok, _, start := f.matcher.FindAndCancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Tuesday", Time: "12:00"})
	require.True(t, ok)
	assert.Equal(t, f.date(10, 12, 0), start)
}

func TestCancelRequiresExactTimeAndWeekday(t *testing.T) {
	f := newFixture(t, 8, 0)
	ctx := context.Background()

	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", f.date(3, 10, 0), 60)
	require.NoError(t, err)

	_, err = f.matcher.Cancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Tuesday", Time: "10:30"})
	assert.True(t, errors.Is(err, bberrors.ErrNotFound))

	_, err = f.matcher.Cancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Wednesday", Time: "10:00"})
	assert.True(t, errors.Is(err, bberrors.ErrNotFound))

	_, err = f.matcher.Cancel(ctx, CancellationQuery{Name: "Piotr Wiśniewski", Phone: "111222333", Day: "Tuesday", Time: "10:00"})
	assert.True(t, errors.Is(err, bberrors.ErrNotFound))

	assert.Equal(t, 1, f.cal.Len())
}

func TestCancelWithStrictPolicy(t *testing.T) {
	f := newFixture(t, 8, 0)
	ctx := context.Background()
	strict := NewMatchResolver(f.cal, f.service.Resolver(), MatchPolicy{RequireBoth: true}, 7)

	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", f.date(3, 10, 0), 30)
	require.NoError(t, err)

	ok, _, _ := strict.FindAndCancel(ctx, CancellationQuery{Name: "Jan Kowalski", Phone: "000000000", Day: "Tuesday", Time: "10:00"})
	assert.False(t, ok)
	assert.Equal(t, 1, f.cal.Len())
}

func TestCancelAcrossDSTChange(t *testing.T) {
	// Clocks go back on Sunday 25 October 2026.
	f := newFixtureAt(t, func(loc *time.Location) time.Time {
		return time.Date(2026, 10, 19, 8, 0, 0, 0, loc)
	})
	ctx := context.Background()

	visit := time.Date(2026, 10, 31, 10, 0, 0, 0, f.loc)
	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", visit, 60)
	require.NoError(t, err)

	ok, _, start := f.matcher.FindAndCancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Saturday", Time: "10:00"})
	require.True(t, ok)
	assert.True(t, visit.Equal(start))
	assert.Equal(t, 0, f.cal.Len())
}

func TestCancelPrefersUpcomingVisit(t *testing.T) {
	f := newFixture(t, 12, 0)
	ctx := context.Background()

	past := time.Date(2026, 2, 24, 10, 0, 0, 0, f.loc)
	upcoming := f.date(3, 10, 0)
	seedVisit(t, f, past)
	_, err := f.service.CreateAt(ctx, "Jan Kowalski", "123456789", "Haircut", upcoming, 60)
	require.NoError(t, err)

	ok, _, start := f.matcher.FindAndCancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Tuesday", Time: "10:00"})
	require.True(t, ok)
	assert.True(t, upcoming.Equal(start), "cancelled %v", start)

	remaining, err := f.cal.ListEvents(ctx, past.Add(-time.Hour), past.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "last week's visit is left alone")
}

func TestCancelIgnoresFinishedVisit(t *testing.T) {
	f := newFixture(t, 12, 0)
	ctx := context.Background()

	seedVisit(t, f, time.Date(2026, 2, 24, 10, 0, 0, 0, f.loc))

	_, err := f.matcher.Cancel(ctx, CancellationQuery{Name: "Jan Kowalski", Day: "Tuesday", Time: "10:00"})
	assert.True(t, errors.Is(err, bberrors.ErrNotFound))
	assert.Equal(t, 1, f.cal.Len())
}

// seedVisit writes a visit straight into the calendar, bypassing the
// booking rules, so visits in the past can exist.
func seedVisit(t *testing.T, f *fixture, start time.Time) {
	t.Helper()
	_, err := f.cal.InsertEvent(context.Background(), calendar.Event{
		Summary:     "Haircut - Jan Kowalski",
		Description: "Client: Jan Kowalski\nPhone: 123456789\nService: Haircut",
		Start:       start,
		End:         start.Add(time.Hour),
	})
	require.NoError(t, err)
}
