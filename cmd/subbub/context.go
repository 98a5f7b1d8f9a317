package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subbub/internal/align"
	"subbub/internal/config"
	"subbub/internal/extract"
	"subbub/internal/inputs"
	"subbub/internal/journal"
	"subbub/internal/logging"
	"subbub/internal/mux"
	"subbub/internal/pipeline"
	"subbub/internal/probe"
	"subbub/internal/runner"
	"subbub/internal/services"
	"subbub/internal/workspace"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	workersFlag  *int
	retriesFlag  *int
	keepFlag     *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag, logLevelFlag *string, workersFlag, retriesFlag *int, keepFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		workersFlag:  workersFlag,
		retriesFlag:  retriesFlag,
		keepFlag:     keepFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.applyOverrides(cfg)
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
		c.configExists = exists
	})
	return c.config, c.configErr
}

// applyOverrides folds persistent flag values over the loaded config.
// Flag zero values mean "use the file".
func (c *commandContext) applyOverrides(cfg *config.Config) {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			cfg.Logging.Level = level
		}
	}
	if c.workersFlag != nil && *c.workersFlag > 0 {
		cfg.Pipeline.Workers = *c.workersFlag
	}
	if c.retriesFlag != nil && *c.retriesFlag >= 0 {
		cfg.Pipeline.Retries = *c.retriesFlag
	}
	if c.keepFlag != nil && *c.keepFlag {
		cfg.Workspace.Keep = true
	}
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) newLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// pipelineSession owns the run-scoped collaborators behind one batch
// operation: the locked workspace, the ledger, and the driver wired to
// the external tools.
type pipelineSession struct {
	cfg    *config.Config
	logger *slog.Logger
	ws     *workspace.Workspace
	jrnl   *journal.Journal
	driver *pipeline.Driver
}

func (c *commandContext) openSession(ctx context.Context) (*pipelineSession, error) {
	cfg, logger, err := c.newLogger()
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	jrnl, err := journal.Open(ws.JournalPath())
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	// Entries stuck in running state belong to a crashed or killed run.
	if reset, err := jrnl.ResetRunning(ctx); err != nil {
		logger.Warn("journal reset failed", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset interrupted ledger entries", logging.Int64("count", reset))
	}

	scratch, err := ws.SubDir("extract")
	if err != nil {
		_ = jrnl.Close()
		_ = ws.Close()
		return nil, err
	}

	run := runner.New(logger)
	prober := probe.New(run, cfg)
	extractor := extract.New(run, prober, cfg, scratch, logger)

	driver := pipeline.New(pipeline.Options{
		Config:    cfg,
		Workspace: ws,
		Journal:   jrnl,
		Resolver:  inputs.New(extractor, logger),
		Extractor: extractor,
		Aligner:   align.New(run, cfg, logger),
		Muxer:     mux.New(run, cfg, logger),
		Logger:    logger,
	})
	return &pipelineSession{cfg: cfg, logger: logger, ws: ws, jrnl: jrnl, driver: driver}, nil
}

func (s *pipelineSession) close() {
	if s.jrnl != nil {
		_ = s.jrnl.Close()
	}
	if s.ws != nil {
		_ = s.ws.Close()
	}
}

// runBatch runs one pipeline operation inside a session and renders
// the outcome table. The operation's error passes through so a failed
// batch maps to a nonzero exit.
func (c *commandContext) runBatch(cmd *cobra.Command, op func(context.Context, *pipeline.Driver) (pipeline.Summary, error)) error {
	session, err := c.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.close()

	ctx := services.WithRunID(cmd.Context(), session.ws.RunID())
	summary, err := op(ctx, session.driver)
	renderSummary(cmd.OutOrStdout(), summary)
	if session.cfg.Workspace.Keep {
		fmt.Fprintf(cmd.OutOrStdout(), "workspace retained: %s\n", session.ws.RunDir())
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
