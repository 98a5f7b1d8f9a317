package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"subbub/internal/workspace"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale run directories from the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			var result workspace.CleanResult
			if all {
				result = workspace.Purge(cmd.Context(), cfg.Workspace.Root, logger)
			} else {
				result = workspace.CleanStale(cmd.Context(), cfg.Workspace.Root, olderThan, logger)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "removed %d entries from %s\n", len(result.Removed), cfg.Workspace.Root)
			for _, failure := range result.Errors {
				fmt.Fprintf(out, "failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("cleanup finished with %d errors", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Remove run directories older than this age")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every run directory and the journal")

	return cmd
}
