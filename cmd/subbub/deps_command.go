package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"subbub/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "deps",
		Short:       "Check availability of the external tools",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			// A broken or absent config must not stop the check; the
			// requirements fall back to the default tool names.
			cfg := ctx.configValue()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			statuses := deps.Check(cfg)
			for _, status := range statuses {
				kind := statusOK
				message := status.Version
				switch {
				case !status.Available && status.Optional:
					kind = statusWarn
					message = fmt.Sprintf("%s (optional: %s)", status.Detail, status.Description)
				case !status.Available:
					kind = statusError
					message = status.Detail
				case message == "":
					message = "available"
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}

	return cmd
}
