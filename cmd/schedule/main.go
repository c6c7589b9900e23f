package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schedule/internal/config"
	"schedule/internal/taskwarrior"
	"schedule/internal/ui"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath  string
		report      string
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Batch-reschedule TaskWarrior tasks from a keyboard-driven TUI.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			}

			if configPath == "" {
				configPath = config.ResolvePath()
			}
			cfg := config.Load(configPath)
			if report != "" {
				cfg.DefaultReport = report
			}

			return ui.Run(cfg, taskwarrior.New())
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file path (default: $SCHEDULE_CONFIG_FILE or ~/.config/schedule/config.yaml)")
	cmd.Flags().StringVar(&report, "report", "", "initial report or filter (overrides config)")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	return cmd
}
