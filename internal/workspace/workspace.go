package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"subbub/internal/config"
	"subbub/internal/logging"
	"subbub/internal/services"
	"subbub/internal/textutil"
)

// journalFileName is the SQLite ledger kept at the workspace root so a
// retained workspace can skip pairs that already completed.
const journalFileName = "journal.db"

// lockFileName guards the workspace root against concurrent runs.
const lockFileName = ".lock"

// runDirPrefix namespaces per-run scratch directories under the root.
const runDirPrefix = "run-"

// Workspace owns the scratch directory tree for a single pipeline run.
// All intermediate artifacts (extracted tracks, synced subtitles, tool
// reports) live under the run directory and are removed on Close unless
// retention is enabled.
type Workspace struct {
	root   string
	runID  string
	runDir string
	keep   bool
	lock   *flock.Flock
	logger *slog.Logger

	mu         sync.Mutex
	registered []string
	closed     bool
}

// Open prepares the workspace root, acquires the single-run lock, and
// creates a fresh run directory. Callers must Close the returned
// workspace to release the lock and drain registered scratch paths.
func Open(cfg *config.Config, logger *slog.Logger) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("workspace requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	root := strings.TrimSpace(cfg.Workspace.Root)
	if root == "" {
		return nil, services.Wrap(services.ErrInput, "workspace", "open", "workspace root is not configured", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrIO, "workspace", "open", "create workspace root", err)
	}
	if err := checkAccess(root); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "workspace", "lock", "acquire workspace lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrUnavailable, "workspace", "lock", fmt.Sprintf("workspace %s is in use by another run", root), nil)
	}

	runID := uuid.NewString()
	runDir := filepath.Join(root, runDirPrefix+runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrIO, "workspace", "open", "create run directory", err)
	}

	ws := &Workspace{
		root:   root,
		runID:  runID,
		runDir: runDir,
		keep:   cfg.Workspace.Keep,
		lock:   lock,
		logger: logging.NewComponentLogger(logger, "workspace"),
	}
	ws.logger.Debug("workspace opened",
		logging.String("root", root),
		logging.String(logging.FieldRunID, runID),
		logging.Bool("keep", ws.keep))
	return ws, nil
}

// checkAccess verifies the workspace root is a directory this process can
// read, write, and traverse before any tool output lands in it.
func checkAccess(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrIO, "workspace", "open", "stat workspace root", err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrInput, "workspace", "open", fmt.Sprintf("%s is not a directory", path), nil)
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrIO, "workspace", "open", fmt.Sprintf("insufficient permissions on %s", path), err)
	}
	return nil
}

// RunID returns the correlation ID for this run.
func (w *Workspace) RunID() string { return w.runID }

// RunDir returns the scratch directory owned by this run.
func (w *Workspace) RunDir() string { return w.runDir }

// JournalPath returns the run ledger location under the given workspace
// root. The journal lives at the root, not the run directory, so
// completed pairs survive scratch cleanup and later runs can skip them.
func JournalPath(root string) string {
	return filepath.Join(root, journalFileName)
}

// JournalPath returns the location of this workspace's run ledger.
func (w *Workspace) JournalPath() string {
	return JournalPath(w.root)
}

// PairDir creates and returns the scratch directory for one pipeline
// pair. The name is sanitized to a filesystem-safe token.
func (w *Workspace) PairDir(index int, name string) (string, error) {
	dir := filepath.Join(w.runDir, fmt.Sprintf("pair-%03d-%s", index, textutil.SanitizeToken(name)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "workspace", "pair dir", "create pair directory", err)
	}
	return dir, nil
}

// SubDir creates and returns a named scratch directory under the run
// directory, shared across pairs (extraction cache, tool reports).
func (w *Workspace) SubDir(name string) (string, error) {
	dir := filepath.Join(w.runDir, textutil.SanitizeToken(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrIO, "workspace", "sub dir", "create scratch directory", err)
	}
	return dir, nil
}

// Register queues a path for removal when the workspace closes. Paths
// registered after Close are ignored.
func (w *Workspace) Register(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.registered = append(w.registered, path)
}

// Close drains registered scratch paths, removes the run directory
// unless retention is enabled, and releases the workspace lock. Cleanup
// failures are logged, never escalated. Close is safe to call more than
// once; later calls are no-ops.
func (w *Workspace) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	registered := w.registered
	w.registered = nil
	w.mu.Unlock()

	for _, path := range registered {
		if err := os.RemoveAll(path); err != nil {
			w.logger.Warn("failed to remove scratch path",
				logging.String("path", path),
				logging.Error(err))
		}
	}

	if w.keep {
		w.logger.Info("workspace retained", logging.String("path", w.runDir))
	} else if err := os.RemoveAll(w.runDir); err != nil {
		w.logger.Warn("failed to remove run directory",
			logging.String("path", w.runDir),
			logging.Error(err))
	}

	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release workspace lock", logging.Error(err))
	}
	w.logger.Debug("workspace closed", logging.String(logging.FieldRunID, w.runID))
	return nil
}
