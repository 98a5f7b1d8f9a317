package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInput        = errors.New("input error")
	ErrArity        = errors.New("arity mismatch")
	ErrExternalTool = errors.New("external tool error")
	ErrTimeout      = errors.New("timeout")
	ErrInvariant    = errors.New("invariant violation")
	ErrIO           = errors.New("io error")
	ErrUnavailable  = errors.New("tool unavailable")
)

// Wrap builds an error message that includes pipeline context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether a failed unit of work is worth re-running. Only
// external tool failures and timeouts qualify; bad input, arity mismatches,
// and invariant violations fail the same way every time.
func Retryable(err error) bool {
	return errors.Is(err, ErrExternalTool) || errors.Is(err, ErrTimeout)
}

// Kind maps an error to the taxonomy label used in run summaries and the
// journal. Unclassified errors report as "error".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrArity):
		return "arity"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvariant):
		return "invariant"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrExternalTool):
		return "tool"
	default:
		return "error"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
