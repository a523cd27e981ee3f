package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/shlex"
)

func isCommand(text string) bool {
	return strings.HasPrefix(text, "/")
}

func (e *Engine) command(ctx context.Context, userID, input string) string {
	parts, err := shlex.Split(input)
	if err != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return e.helpText()
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	slog.Debug("Executing slash command", "cmd", cmd, "user_id", userID)

	switch cmd {
	case "/start", "/help":
		return e.replies.welcome() + "\n\n" + e.helpText()
	case "/reset":
		if err := e.Reset(ctx, userID); err != nil {
			return e.replies.failure()
		}
		return "Conversation reset. How can I help?"
	case "/status":
		return e.status(userID)
	case "/slots":
		if len(args) == 0 {
			return e.replies.slots(e.slots.GetAvailableSlots(ctx, e.days, 0))
		}
		return e.availability(ctx, strings.Join(args, " "))
	default:
		return fmt.Sprintf("Unknown command: %s\n\n%s", cmd, e.helpText())
	}
}

func (e *Engine) status(userID string) string {
	s, ok := e.sessions.Get(userID)
	if !ok {
		return "No conversation yet."
	}
	if s.Pending.IsZero() {
		return fmt.Sprintf("State: %s", s.State)
	}
	p := s.Pending
	return fmt.Sprintf("State: %s\nPending: %s %s %s", s.State, p.Day, p.Time, p.Service)
}

func (e *Engine) helpText() string {
	return strings.Join([]string{
		"Commands:",
		"/slots [day]  list free slots",
		"/status       show where we are",
		"/reset        start over",
		"/help         this message",
	}, "\n")
}
