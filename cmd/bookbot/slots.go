package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/harunnryd/bookbot/internal/conversation"
	"github.com/harunnryd/bookbot/internal/schedule"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots [day]",
	Short: "List free slots",
	Long:  `Lists free slots for the coming days, or for one day ("today", "tomorrow", a weekday name).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetInt("duration")
		days, _ := cmd.Flags().GetInt("days")

		return executeWithStack(cmd, func(ctx context.Context, stack *conversation.Stack) error {
			var slots []schedule.Slot
			if len(args) == 1 {
				if _, ok := schedule.ParseDay(args[0]); !ok {
					return fmt.Errorf("unknown day %q", args[0])
				}
				slots = stack.Slots.GetAvailableSlotsForDay(ctx, args[0], duration)
			} else {
				slots = stack.Slots.GetAvailableSlots(ctx, days, duration)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSlots(slots))
			return nil
		})
	},
}

func renderSlots(slots []schedule.Slot) string {
	if len(slots) == 0 {
		return "No free slots"
	}

	t := newTable("Day", "Date", "From", "To")
	for _, s := range slots {
		t.Row(
			titleCase(s.DayName),
			s.Start.Format("2006-01-02"),
			s.Start.Format("15:04"),
			s.End.Format("15:04"),
		)
	}
	return t.String()
}

// newTable returns the bordered table every listing command prints.
func newTable(headers ...string) *table.Table {
	purple := lipgloss.Color("99")
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func init() {
	rootCmd.AddCommand(slotsCmd)
	slotsCmd.Flags().Int("duration", 0, "visit length in minutes (default: salon.default_duration)")
	slotsCmd.Flags().Int("days", 0, "how many open days to scan (default: schedule.default_days_ahead)")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
