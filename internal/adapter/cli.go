package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

type CLIAdapter struct {
	mu      sync.Mutex
	out     io.Writer
	botName string
	reply   lipgloss.Style
	warning lipgloss.Style
	confirm lipgloss.Style
	nameTag lipgloss.Style
}

func NewCLIAdapter(out io.Writer, botName string) *CLIAdapter {
	if out == nil {
		out = os.Stdout
	}
	if botName == "" {
		botName = "bookbot"
	}
	return &CLIAdapter{
		out:     out,
		botName: botName,
		reply:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		confirm: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		nameTag: lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
	}
}

func (a *CLIAdapter) Name() string {
	return "cli"
}

// Prompt prints the input prompt.
func (a *CLIAdapter) Prompt() {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprint(a.out, "> ")
}

func (a *CLIAdapter) Send(ctx context.Context, channelID string, content string) error {
	style := a.reply
	switch {
	case strings.HasPrefix(content, "Appointment confirmed"), strings.HasPrefix(content, "Visit cancelled"):
		style = a.confirm
	case strings.HasPrefix(content, "Sorry"), strings.HasPrefix(content, "Unknown command"):
		style = a.warning
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := fmt.Fprintf(a.out, "%s %s\n", a.nameTag.Render(a.botName+":"), style.Render(content))
	return err
}

func (a *CLIAdapter) Health(ctx context.Context) error {
	return nil
}
