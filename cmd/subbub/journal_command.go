package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"subbub/internal/journal"
	"subbub/internal/workspace"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show the workspace run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path := workspace.JournalPath(cfg.Workspace.Root)
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(out, "no journal at %s\n", path)
					return nil
				}
				return err
			}

			jrnl, err := journal.Open(path)
			if err != nil {
				return err
			}
			defer func() { _ = jrnl.Close() }()

			entries, err := jrnl.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(out, "journal %s is empty\n", jrnl.Path())
				return nil
			}
			stats, err := jrnl.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.Operation,
					filepath.Base(entry.Source),
					filepath.Base(entry.Output),
					string(entry.Status),
					strconv.Itoa(entry.Attempts),
					entry.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
					truncateCell(entry.Error, 60),
				})
			}

			caption := fmt.Sprintf("%s: %s", jrnl.Path(), formatJournalStats(stats))
			headers := []string{"Operation", "Source", "Output", "Status", "Attempts", "Updated", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderCaptionedTable(headers, rows, aligns, caption))
			return nil
		},
	}

	return cmd
}

// formatJournalStats renders status counts in a stable order, skipping
// statuses with no entries.
func formatJournalStats(stats map[journal.Status]int) string {
	parts := make([]string, 0, len(stats))
	for _, status := range []journal.Status{journal.StatusDone, journal.StatusFailed, journal.StatusRunning, journal.StatusPending} {
		if count := stats[status]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", count, status))
		}
	}
	if len(parts) == 0 {
		return "0 entries"
	}
	return strings.Join(parts, ", ")
}

func truncateCell(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "…"
}
