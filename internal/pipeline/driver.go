package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"subbub/internal/align"
	"subbub/internal/config"
	"subbub/internal/extract"
	"subbub/internal/inputs"
	"subbub/internal/journal"
	"subbub/internal/logging"
	"subbub/internal/mux"
	"subbub/internal/services"
	"subbub/internal/workspace"
)

// Item is one independent unit of batch work. Run receives a private
// pair directory inside the workspace for intermediate artifacts.
type Item struct {
	Index     int
	Name      string
	Operation string
	Source    string
	Output    string
	Run       func(ctx context.Context, pairDir string) error
}

// Outcome records the result of one item.
type Outcome struct {
	Index    int
	Name     string
	Output   string
	Attempts int
	Skipped  bool
	Elapsed  time.Duration
	Err      error
}

// Summary aggregates a batch. Outcomes are ordered by item index so
// reports are reproducible regardless of completion order.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Outcomes  []Outcome
}

// Options bundles the collaborators a Driver needs.
type Options struct {
	Config    *config.Config
	Workspace *workspace.Workspace
	Journal   *journal.Journal
	Resolver  *inputs.Resolver
	Extractor *extract.Extractor
	Aligner   *align.Engine
	Muxer     *mux.Muxer
	Logger    *slog.Logger
}

// Driver composes resolution, matching, and the per-pair engines into
// batch operations, one per CLI subcommand.
type Driver struct {
	cfg       *config.Config
	ws        *workspace.Workspace
	jrnl      *journal.Journal
	resolver  *inputs.Resolver
	extractor *extract.Extractor
	aligner   *align.Engine
	muxer     *mux.Muxer
	logger    *slog.Logger
	workers   int
	retries   int
}

// New constructs a Driver. A nil journal disables the ledger; all other
// collaborators are required by the operations that use them.
func New(opts Options) *Driver {
	workers := 1
	retries := 0
	if opts.Config != nil {
		if opts.Config.Pipeline.Workers > 1 {
			workers = opts.Config.Pipeline.Workers
		}
		if opts.Config.Pipeline.Retries > 0 {
			retries = opts.Config.Pipeline.Retries
		}
	}
	return &Driver{
		cfg:       opts.Config,
		ws:        opts.Workspace,
		jrnl:      opts.Journal,
		resolver:  opts.Resolver,
		extractor: opts.Extractor,
		aligner:   opts.Aligner,
		muxer:     opts.Muxer,
		logger:    logging.NewComponentLogger(opts.Logger, "pipeline"),
		workers:   workers,
		retries:   retries,
	}
}

// Execute runs the batch through a bounded worker pool. Pair failures
// are isolated: every item gets an outcome, and an error is returned
// when any item failed so callers map the batch to a nonzero exit.
// Cancellation stops dispatching; undispatched items are recorded as
// failed with the context's error.
func (d *Driver) Execute(ctx context.Context, items []Item) (Summary, error) {
	outcomes := make([]Outcome, len(items))
	sem := make(chan struct{}, d.workers)
	var wg sync.WaitGroup

	dispatched := 0
	for i := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[slot] = d.runItem(ctx, items[slot])
		}(i)
		dispatched++
	}
	wg.Wait()

	for i := dispatched; i < len(items); i++ {
		outcomes[i] = Outcome{
			Index:  items[i].Index,
			Name:   items[i].Name,
			Output: items[i].Output,
			Err:    fmt.Errorf("pair not dispatched: %w", ctx.Err()),
		}
	}

	summary := Summary{Outcomes: outcomes}
	for _, out := range outcomes {
		switch {
		case out.Skipped:
			summary.Skipped++
		case out.Err == nil:
			summary.Succeeded++
		default:
			summary.Failed++
		}
	}
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d pairs failed", summary.Failed, len(items))
	}
	return summary, nil
}

func (d *Driver) runItem(parent context.Context, item Item) Outcome {
	out := Outcome{Index: item.Index, Name: item.Name, Output: item.Output}
	ctx := services.WithPair(parent, item.Name)
	logger := logging.WithContext(ctx, d.logger)

	if d.skipCompleted(ctx, item) {
		logger.Info("pair already completed, skipping", logging.String("output", item.Output))
		out.Skipped = true
		return out
	}
	entryID := d.journalStart(ctx, item, logger)

	pairDir, err := d.ws.PairDir(item.Index, item.Name)
	if err != nil {
		out.Err = err
		out.Attempts = 1
		d.journalFinish(entryID, err, logger)
		return out
	}

	started := time.Now()
	for {
		out.Attempts++
		err = item.Run(ctx, pairDir)
		if err == nil || !services.Retryable(err) || out.Attempts > d.retries || parent.Err() != nil {
			break
		}
		logger.Warn("retrying pair",
			logging.Int("attempt", out.Attempts),
			logging.Int("budget", d.retries),
			logging.Error(err))
	}
	out.Elapsed = time.Since(started)
	out.Err = err

	d.journalFinish(entryID, err, logger)
	if err != nil {
		logger.Error("pair failed",
			logging.Int("attempts", out.Attempts),
			logging.Error(err))
	} else {
		logger.Info("pair completed",
			logging.String("output", item.Output),
			logging.Duration("elapsed", out.Elapsed.Round(time.Millisecond)))
	}
	return out
}

// skipCompleted reports whether the ledger already recorded this item
// as done with its output still on disk.
func (d *Driver) skipCompleted(ctx context.Context, item Item) bool {
	if d.jrnl == nil || item.Operation == "" {
		return false
	}
	entry, err := d.jrnl.Lookup(ctx, item.Operation, item.Source, item.Output)
	if err != nil || entry == nil || entry.Status != journal.StatusDone {
		return false
	}
	_, statErr := os.Stat(item.Output)
	return statErr == nil
}

func (d *Driver) journalStart(ctx context.Context, item Item, logger *slog.Logger) int64 {
	if d.jrnl == nil || item.Operation == "" {
		return -1
	}
	entry, err := d.jrnl.Start(ctx, item.Operation, item.Source, item.Output)
	if err != nil {
		logger.Warn("journal start failed", logging.Error(err))
		return -1
	}
	return entry.ID
}

// journalFinish records the outcome on a background context so a
// canceled run still persists its failures. The ledger is advisory;
// update failures only log.
func (d *Driver) journalFinish(id int64, runErr error, logger *slog.Logger) {
	if d.jrnl == nil || id < 0 {
		return
	}
	ctx := context.Background()
	var err error
	if runErr == nil {
		err = d.jrnl.Complete(ctx, id)
	} else {
		err = d.jrnl.Fail(ctx, id, runErr.Error())
	}
	if err != nil {
		logger.Warn("journal update failed", logging.Error(err))
	}
}
