package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"subbub/internal/pipeline"
	"subbub/internal/services"
)

// renderSummary prints the per-pair outcome table followed by a totals
// line. Batches that resolved zero pairs print nothing; the command's
// error carries the explanation.
func renderSummary(out io.Writer, summary pipeline.Summary) {
	if len(summary.Outcomes) == 0 {
		return
	}

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		rows = append(rows, []string{
			strconv.Itoa(outcome.Index + 1),
			outcome.Name,
			outcomeStatus(outcome),
			strconv.Itoa(outcome.Attempts),
			formatElapsed(outcome.Elapsed),
			outcomeDetail(outcome),
		})
	}

	headers := []string{"#", "Pair", "Status", "Attempts", "Time", "Result"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "%d succeeded, %d failed, %d skipped\n", summary.Succeeded, summary.Failed, summary.Skipped)
}

func outcomeStatus(outcome pipeline.Outcome) string {
	switch {
	case outcome.Skipped:
		return "skipped"
	case outcome.Err != nil:
		return services.Kind(outcome.Err)
	default:
		return "ok"
	}
}

func outcomeDetail(outcome pipeline.Outcome) string {
	if outcome.Err != nil {
		return outcome.Err.Error()
	}
	return outcome.Output
}

func formatElapsed(elapsed time.Duration) string {
	if elapsed <= 0 {
		return "-"
	}
	return elapsed.Round(10 * time.Millisecond).String()
}
