package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tfkr-ae/logbook"
	"github.com/tfkr-ae/logbook/storage"
)

var configDir string
var debug bool

var levelVar slog.LevelVar

var (
	cfg     *logbook.Config
	manager *logbook.Manager
)

var rootCmd = &cobra.Command{
	Use:           "logbook",
	Short:         "Write, search and sync a local logbook",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelVar.Set(slog.LevelWarn)
		if debug {
			levelVar.Set(slog.LevelDebug)
		}

		if configDir == "" {
			dir, err := storage.DefaultDirectory()
			if err != nil {
				return err
			}
			configDir = dir
		}

		var err error
		cfg, err = logbook.LoadConfig(configDir)
		if err != nil {
			return err
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &levelVar}))
		manager, err = logbook.NewFromConfig(cfg, logger)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if manager == nil {
			return nil
		}
		return manager.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug log")
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if manager != nil {
			manager.Close()
		}
		os.Exit(1)
	}
}
