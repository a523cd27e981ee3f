package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/conversation"
	"github.com/harunnryd/bookbot/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStack(t *testing.T) *conversation.Stack {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	loaded, err := config.Load(nil)
	require.NoError(t, err)

	loc, err := loaded.Salon.Location()
	require.NoError(t, err)
	// Monday 08:00, before opening.
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)

	stack, err := conversation.NewStack(context.Background(), loaded, conversation.WithNow(func() time.Time { return now }))
	require.NoError(t, err)
	return stack
}

func TestChatREPL_AnswersUntilExit(t *testing.T) {
	stack := newTestStack(t)

	in := strings.NewReader("/status\n/exit\nnever read\n")
	var out bytes.Buffer
	repl, err := newChatREPL(stack.Engine, in, &out, "tester", 0)
	require.NoError(t, err)

	require.NoError(t, repl.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Commands:")
	assert.Contains(t, text, "No conversation yet.")
	assert.NotContains(t, text, "never read")
}

func TestChatREPL_StopsAtEOF(t *testing.T) {
	stack := newTestStack(t)

	var out bytes.Buffer
	repl, err := newChatREPL(stack.Engine, strings.NewReader("I want to cancel my visit"), &out, "tester", 0)
	require.NoError(t, err)

	require.NoError(t, repl.Run(context.Background()))

	s, ok := stack.Sessions.Get("tester")
	require.True(t, ok)
	assert.Equal(t, "CANCELLING", string(s.State))
}

func TestRenderSlots(t *testing.T) {
	assert.Equal(t, "No free slots", renderSlots(nil))

	loc := time.UTC
	start := time.Date(2026, 3, 4, 9, 30, 0, 0, loc)
	out := renderSlots([]schedule.Slot{{Start: start, End: start.Add(time.Hour), DayName: "wednesday"}})

	assert.Contains(t, out, "Wednesday")
	assert.Contains(t, out, "2026-03-04")
	assert.Contains(t, out, "09:30")
	assert.Contains(t, out, "10:30")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "", titleCase(""))
	assert.Equal(t, "Friday", titleCase("friday"))
}
