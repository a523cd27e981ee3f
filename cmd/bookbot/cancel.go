package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/bookbot/internal/booking"
	"github.com/harunnryd/bookbot/internal/conversation"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a visit on behalf of a client",
	Long:  `Finds the visit by client name or phone, day and time, and removes it from the calendar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := booking.CancellationQuery{}
		q.Name, _ = cmd.Flags().GetString("name")
		q.Phone, _ = cmd.Flags().GetString("phone")
		q.Day, _ = cmd.Flags().GetString("day")
		q.Time, _ = cmd.Flags().GetString("time")

		if q.Day == "" || q.Time == "" {
			return fmt.Errorf("--day and --time are required")
		}
		if q.Name == "" && q.Phone == "" {
			return fmt.Errorf("--name or --phone is required")
		}

		return executeWithStack(cmd, func(ctx context.Context, stack *conversation.Stack) error {
			ok, title, start := stack.Matcher.FindAndCancel(ctx, q)
			if !ok {
				return fmt.Errorf("no visit found for %s %s", q.Day, q.Time)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled: %s (%s)\n", title, start.In(stack.Location).Format("Monday 2006-01-02 15:04"))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
	cancelCmd.Flags().String("name", "", "client first and last name")
	cancelCmd.Flags().String("phone", "", "client phone number")
	cancelCmd.Flags().String("day", "", `"today", "tomorrow" or a weekday name`)
	cancelCmd.Flags().String("time", "", "visit time, e.g. 10:00")
}
