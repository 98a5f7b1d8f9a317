package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"subbub/internal/logging"
	"subbub/internal/services"
)

// Command describes one external tool invocation.
type Command struct {
	// Tool is the logical tool name used in logs and error messages.
	Tool   string
	Binary string
	Args   []string
	Dir    string
	// Timeout bounds the invocation. Zero means the caller's context rules.
	Timeout time.Duration
}

// Result captures process output for report parsing and diagnostics.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Elapsed  time.Duration
}

// Executor launches processes. The default implementation shells out through
// os/exec; tests substitute recordings.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Runner executes external tools with timeout scoping and error
// classification. All subprocess launches in the pipeline go through it.
type Runner struct {
	logger *slog.Logger
	exec   Executor
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExecutor sets a custom executor (for testing).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// New creates a Runner.
func New(logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		logger: logging.NewComponentLogger(logger, "runner"),
		exec:   execExecutor{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes the command and classifies failures into the error taxonomy:
// missing binaries report as unavailable, deadline hits as timeouts, and
// nonzero exits as external tool errors carrying a stderr tail.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Binary) == "" {
		return Result{}, services.Wrap(services.ErrInput, cmd.Tool, "run", "no binary configured", nil)
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	r.logger.Debug("running external tool",
		logging.String(logging.FieldTool, cmd.Tool),
		logging.String("binary", cmd.Binary),
		logging.String("args", strings.Join(cmd.Args, " ")),
	)

	result, err := r.exec.Run(runCtx, cmd)

	r.logger.Debug("external tool finished",
		logging.String(logging.FieldTool, cmd.Tool),
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("elapsed", result.Elapsed),
		logging.Bool("success", err == nil),
	)

	if err == nil {
		return result, nil
	}
	return result, r.classify(runCtx, cmd, result, err)
}

func (r *Runner) classify(ctx context.Context, cmd Command, result Result, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrUnavailable, cmd.Tool, "run",
			fmt.Sprintf("binary %q not found on PATH", cmd.Binary), err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, cmd.Tool, "run",
			fmt.Sprintf("timed out after %s", result.Elapsed.Round(time.Millisecond)), err)
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", cmd.Tool, context.Canceled)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message := fmt.Sprintf("exit status %d", result.ExitCode)
		if tail := outputTail(result.Stderr, result.Stdout); tail != "" {
			message = fmt.Sprintf("%s: %s", message, tail)
		}
		return services.Wrap(services.ErrExternalTool, cmd.Tool, "run", message, err)
	}

	return services.Wrap(services.ErrIO, cmd.Tool, "run", "failed to start", err)
}

// outputTail returns the last portion of the tool's diagnostics for error
// messages. ffmpeg in particular writes pages of banner text before the part
// that matters.
func outputTail(stderr, stdout string) string {
	const limit = 2000
	text := strings.TrimSpace(stderr)
	if text == "" {
		text = strings.TrimSpace(stdout)
	}
	if len(text) > limit {
		text = text[len(text)-limit:]
	}
	return text
}

// execExecutor is the production Executor backed by os/exec.
type execExecutor struct{}

func (execExecutor) Run(ctx context.Context, cmd Command) (Result, error) {
	proc := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	proc.Dir = cmd.Dir
	// Reap leaked descendants instead of hanging on pipe reads after kill.
	proc.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	started := time.Now()
	err := proc.Run()
	result := Result{
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
		Elapsed: time.Since(started),
	}
	if proc.ProcessState != nil {
		result.ExitCode = proc.ProcessState.ExitCode()
	}
	return result, err
}
