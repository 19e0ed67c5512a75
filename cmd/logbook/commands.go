package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/tfkr-ae/logbook/archive"
	"github.com/tfkr-ae/logbook/console"
	"github.com/tfkr-ae/logbook/domain"
)

var emitLevel string

var emitCmd = &cobra.Command{
	Use:   "emit <message...>",
	Short: "Log a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := domain.ParseLevel(emitLevel)
		if err != nil {
			return err
		}
		manager.LogAt("cli", 0, "emit", level, strings.Join(args, " "))
		return manager.Flush(cmd.Context())
	},
}

var (
	queryLevel  string
	queryText   string
	queryOffset int
	queryJSON   bool
	queryGroup  time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print one page of history, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := domain.FilterQuery{Text: queryText, Offset: queryOffset}
		if queryLevel != "" {
			level, err := domain.ParseLevel(queryLevel)
			if err != nil {
				return err
			}
			query.Level = &level
		}

		result := <-manager.Filter(cmd.Context(), query)
		switch result.Status {
		case domain.ResultUnsupported:
			return errors.New("no driver keeps a history, enable storage in the config")
		case domain.ResultError:
			return fmt.Errorf("querying logs: %w", result.Err)
		}

		if queryJSON {
			return printJSON(result.Entries)
		}
		printEntries(result.Entries)
		return nil
	},
}

var syncArchiveDir string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Archive every unsynced entry and mark it stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := manager.Flush(cmd.Context()); err != nil {
			return err
		}

		dir := syncArchiveDir
		if dir == "" {
			dir = filepath.Join(cfg.ConfigDir, "archive")
		}

		done, started := manager.StoreInBackground(cmd.Context(), archive.Handler(dir))
		if !started {
			return errors.New("a sync is already running")
		}
		if err := <-done; err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "synced to", dir)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return manager.Clear(cmd.Context())
	},
}

var levelCmd = &cobra.Command{
	Use:   "level <debug|info|warn|error>",
	Short: "Set the level of every driver and save it to the config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := domain.ParseLevel(args[0])
		if err != nil {
			return err
		}
		manager.SetLevel(level)
		return cfg.SetLevel(level)
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived batches",
}

var archiveLsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List archive files, oldest batch first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := filepath.Join(cfg.ConfigDir, "archive")
		if len(args) == 1 {
			dir = args[0]
		}
		paths, err := archive.List(dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

var archiveCatJSON bool

var archiveCatCmd = &cobra.Command{
	Use:   "cat <file...>",
	Short: "Print the entries of archive files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			entries, err := archive.Read(path)
			if err != nil {
				return err
			}
			if archiveCatJSON {
				if err := printJSON(entries); err != nil {
					return err
				}
				continue
			}
			printEntries(entries)
		}
		return nil
	},
}

func init() {
	emitCmd.Flags().StringVarP(&emitLevel, "level", "l", "info", "entry level")

	queryCmd.Flags().StringVarP(&queryLevel, "level", "l", "", "minimum level")
	queryCmd.Flags().StringVarP(&queryText, "text", "t", "", "words to search for, each matched as a prefix")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "number of newer entries to skip")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print JSON lines")
	queryCmd.Flags().DurationVar(&queryGroup, "group", 0, "group entries by this interval, e.g. 1m")

	syncCmd.Flags().StringVar(&syncArchiveDir, "archive-dir", "", "archive directory (default: <config-dir>/archive)")

	archiveCatCmd.Flags().BoolVar(&archiveCatJSON, "json", false, "print JSON lines")
	archiveCmd.AddCommand(archiveLsCmd, archiveCatCmd)

	rootCmd.AddCommand(emitCmd, queryCmd, syncCmd, clearCmd, levelCmd, archiveCmd)
}

func printEntries(entries []*domain.Entry) {
	mode := console.ColorNever
	if isTerminal() {
		mode = console.ColorAuto
	}
	formatter := console.NewFormatter(os.Stdout, mode)

	if queryGroup <= 0 {
		for _, entry := range entries {
			fmt.Println(formatter.Format(entry))
		}
		return
	}

	for _, group := range domain.GroupEntries(entries, queryGroup) {
		fmt.Printf("== %s ==\n", group.Timestamp.Local().Format(console.TimeLayout))
		for _, entry := range group.Entries {
			fmt.Println(formatter.Format(entry))
		}
	}
}

func printJSON(entries []*domain.Entry) error {
	enc := json.NewEncoder(os.Stdout)
	for _, entry := range entries {
		if err := enc.Encode(entry.Record()); err != nil {
			return fmt.Errorf("encoding entry: %w", err)
		}
	}
	return nil
}
