package main

import (
	"context"
	"fmt"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/conversation"

	"github.com/spf13/cobra"
)

// executeWithStack builds the booking core for one-shot commands.
func executeWithStack(cmd *cobra.Command, fn func(context.Context, *conversation.Stack) error) error {
	loadedCfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stack, err := conversation.NewStack(ctx, loadedCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize booking core: %w", err)
	}

	return fn(ctx, stack)
}

func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	loadedCfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	return loadedCfg, nil
}
