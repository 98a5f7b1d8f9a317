package runner_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"subbub/internal/runner"
	"subbub/internal/services"
)

type stubExecutor struct {
	result runner.Result
	err    error
	calls  []runner.Command
}

func (s *stubExecutor) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	s.calls = append(s.calls, cmd)
	return s.result, s.err
}

func TestRunSuccess(t *testing.T) {
	stub := &stubExecutor{result: runner.Result{Stdout: "ok", ExitCode: 0}}
	r := runner.New(nil, runner.WithExecutor(stub))

	result, err := r.Run(context.Background(), runner.Command{Tool: "ffmpeg", Binary: "ffmpeg", Args: []string{"-version"}})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Stdout != "ok" {
		t.Fatalf("unexpected stdout %q", result.Stdout)
	}
	if len(stub.calls) != 1 {
		t.Fatalf("expected 1 executor call, got %d", len(stub.calls))
	}
	if stub.calls[0].Args[0] != "-version" {
		t.Fatalf("args not forwarded: %v", stub.calls[0].Args)
	}
}

func TestRunClassifiesMissingBinary(t *testing.T) {
	stub := &stubExecutor{err: exec.ErrNotFound}
	r := runner.New(nil, runner.WithExecutor(stub))

	_, err := r.Run(context.Background(), runner.Command{Tool: "mkvmerge", Binary: "mkvmerge"})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "mkvmerge") {
		t.Fatalf("expected tool name in error, got %v", err)
	}
}

func TestRunClassifiesExitError(t *testing.T) {
	exitErr := &exec.ExitError{}
	stub := &stubExecutor{result: runner.Result{ExitCode: 2, Stderr: "Error opening input file"}, err: exitErr}
	r := runner.New(nil, runner.WithExecutor(stub))

	_, err := r.Run(context.Background(), runner.Command{Tool: "ffmpeg", Binary: "ffmpeg"})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "Error opening input file") {
		t.Fatalf("expected stderr tail in error, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("external tool failures should be retryable")
	}
}

func TestRunClassifiesTimeout(t *testing.T) {
	stub := &stubExecutor{err: context.DeadlineExceeded}
	r := runner.New(nil, runner.WithExecutor(stub))

	_, err := r.Run(context.Background(), runner.Command{Tool: "ffsubsync", Binary: "ffsubsync", Timeout: time.Nanosecond})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("timeouts should be retryable")
	}
}

func TestRunPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stub := &stubExecutor{err: context.Canceled}
	r := runner.New(nil, runner.WithExecutor(stub))

	_, err := r.Run(ctx, runner.Command{Tool: "ffmpeg", Binary: "ffmpeg"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if services.Retryable(err) {
		t.Fatal("cancellation must not be retryable")
	}
}

func TestRunRequiresBinary(t *testing.T) {
	r := runner.New(nil, runner.WithExecutor(&stubExecutor{}))
	_, err := r.Run(context.Background(), runner.Command{Tool: "ffmpeg"})
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("expected input marker, got %v", err)
	}
}

func TestRunRealProcess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := runner.New(nil)
	result, err := r.Run(context.Background(), runner.Command{
		Tool:   "sh",
		Binary: "sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "out" {
		t.Fatalf("stdout = %q", result.Stdout)
	}
	if strings.TrimSpace(result.Stderr) != "err" {
		t.Fatalf("stderr = %q", result.Stderr)
	}
}

func TestRunRealProcessExitCode(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := runner.New(nil)
	result, err := r.Run(context.Background(), runner.Command{
		Tool:   "sh",
		Binary: "sh",
		Args:   []string{"-c", "echo boom >&2; exit 3"},
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
