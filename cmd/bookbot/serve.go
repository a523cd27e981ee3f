package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harunnryd/bookbot/internal/adapter"
	"github.com/harunnryd/bookbot/internal/daemon"
	"github.com/harunnryd/bookbot/internal/daemon/components"
	"github.com/harunnryd/bookbot/internal/egress"
	"github.com/harunnryd/bookbot/internal/ingress"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot as a long-running service",
	Long:  `Starts the chat adapters, the web chat API and the session sweep under component lifecycle orchestration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		daemonMgr, err := daemon.NewDaemon(cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}

		convComp := components.NewConversationComponent(cfg)
		ingressComp := components.NewIngressComponent(&cfg.Ingress)

		eventHandler := func(evtCtx context.Context, source, channelID, content string, metadata map[string]string) error {
			ing := ingressComp.GetIngress()
			if ing == nil {
				return fmt.Errorf("ingress not initialized")
			}

			evt := ingress.NewEvent(source, ingress.TypeUserMessage, channelID, content, metadata)
			return ing.Submit(evtCtx, &evt)
		}

		adapterMgr, err := adapter.NewRuntimeManager(cfg.Adapters, eventHandler, adapter.RuntimeAdapterOptions{
			IncludeWebNull:      true,
			RequireSlackSecrets: true,
		})
		if err != nil {
			return fmt.Errorf("failed to configure adapters: %w", err)
		}

		out := egress.NewEgress(cfg.Adapters.MaxMessageChars)
		for _, outputAdapter := range adapterMgr.OutputAdapters() {
			if err := out.Register(outputAdapter); err != nil {
				return fmt.Errorf("register output adapter %s: %w", outputAdapter.Name(), err)
			}
		}

		daemonMgr.AddComponent(convComp)
		daemonMgr.AddComponent(ingressComp)
		daemonMgr.AddComponent(components.NewWorkersComponent(cfg, ingressComp, convComp, out))
		daemonMgr.AddComponent(components.NewAdaptersComponent(adapterMgr))
		daemonMgr.AddComponent(components.NewSchedulerComponent(cfg, convComp))
		daemonMgr.AddComponent(components.NewHTTPServerComponent(daemonMgr, &cfg.Server, ingressComp, convComp))

		slog.Info("Bookbot starting up...", "port", cfg.Server.Port, "salon", cfg.Salon.Name)
		err = daemonMgr.Start(context.Background())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Bookbot stopped gracefully")
				return nil
			}
			return fmt.Errorf("daemon failed: %w", err)
		}

		slog.Info("Bookbot stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
