package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subbub/internal/logging"
)

// CleanResult contains the outcome of a workspace cleanup operation.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes run directories older than maxAge. Retained runs
// from crashed or kept workspaces accumulate under the root; this is the
// maintenance path that reclaims them. It returns the list of removed
// directories and any errors encountered.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), runDirPrefix) {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(dirPath); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
				if logger != nil {
					logger.Warn("failed to remove stale run directory",
						logging.String("path", dirPath),
						logging.Error(err))
				}
			} else {
				result.Removed = append(result.Removed, dirPath)
				if logger != nil {
					logger.Info("removed stale run directory",
						logging.String("path", dirPath),
						logging.Duration("age", time.Since(info.ModTime())))
				}
			}
		}
	}

	return result
}

// Purge removes every run directory and the journal under the root,
// resetting the workspace to empty. The root itself and the lock file
// are left in place.
func Purge(ctx context.Context, root string, logger *slog.Logger) CleanResult {
	result := CleanStale(ctx, root, 0, logger)

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	journal := filepath.Join(root, journalFileName)
	for _, path := range []string{journal, journal + "-wal", journal + "-shm"} {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed workspace journal", logging.String("path", path))
		}
	}

	return result
}
