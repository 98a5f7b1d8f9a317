package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string
	var workersFlag int
	var retriesFlag int
	var keepFlag bool

	ctx := newCommandContext(&configFlag, &logLevelFlag, &workersFlag, &retriesFlag, &keepFlag)

	rootCmd := &cobra.Command{
		Use:           "subbub",
		Short:         "Subtitle alignment and muxing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", 0, "Worker pool size override")
	rootCmd.PersistentFlags().IntVar(&retriesFlag, "retries", -1, "Retry budget per pair for tool failures")
	rootCmd.PersistentFlags().BoolVar(&keepFlag, "keep-workspace", false, "Retain the run's scratch directory")

	rootCmd.AddCommand(newSyncCommand(ctx))
	rootCmd.AddCommand(newDualCommand(ctx))
	rootCmd.AddCommand(newShiftCommand(ctx))
	rootCmd.AddCommand(newStripCommand(ctx))
	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newMuxCommand(ctx))
	rootCmd.AddCommand(newTracksCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newJournalCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))

	return rootCmd
}
