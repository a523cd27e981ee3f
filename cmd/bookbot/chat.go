package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/harunnryd/bookbot/internal/adapter"
	"github.com/harunnryd/bookbot/internal/conversation"
	"github.com/harunnryd/bookbot/internal/egress"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeWithStack(cmd, func(ctx context.Context, stack *conversation.Stack) error {
			ctx, stop := interruptible(ctx, os.Stdout)
			defer stop()

			userID, _ := cmd.Flags().GetString("user")
			if userID == "" {
				userID = fmt.Sprintf("cli-%d", time.Now().Unix())
			}

			repl, err := newChatREPL(stack.Engine, os.Stdin, os.Stdout, userID, cfg.Adapters.MaxMessageChars)
			if err != nil {
				return err
			}
			return repl.Run(ctx)
		})
	},
}

// chatREPL feeds terminal lines to the conversation engine.
type chatREPL struct {
	engine *conversation.Engine
	reader *bufio.Reader
	cli    *adapter.CLIAdapter
	out    egress.Egress
	userID string
}

func newChatREPL(engine *conversation.Engine, in io.Reader, w io.Writer, userID string, maxChars int) (*chatREPL, error) {
	cli := adapter.NewCLIAdapter(w, "")
	out := egress.NewEgress(maxChars)
	if err := out.Register(cli); err != nil {
		return nil, err
	}
	return &chatREPL{
		engine: engine,
		reader: bufio.NewReader(in),
		cli:    cli,
		out:    out,
		userID: userID,
	}, nil
}

func (r *chatREPL) Run(ctx context.Context) error {
	if err := r.out.Send(ctx, r.cli.Name(), r.userID, r.engine.Handle(ctx, r.userID, "/start")); err != nil {
		return err
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := r.reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		r.cli.Prompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "/exit" || text == "/quit" {
				return nil
			}

			reply := r.engine.Handle(ctx, r.userID, text)
			if err := r.out.Send(ctx, r.cli.Name(), r.userID, reply); err != nil {
				return err
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("user", "u", "", "conversation id (default: new one per run)")
}
