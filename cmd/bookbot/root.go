package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bookbot",
	Short: "Salon booking chat bot",
	Long:  `Bookbot answers salon clients on chat, offers free slots, books and cancels visits in the salon calendar.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bookbot/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "server port")
	rootCmd.PersistentFlags().String("calendar.provider", config.DefaultCalendarProvider, "calendar backend (memory, google)")
}
