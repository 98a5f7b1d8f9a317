package testsupport

import (
	"path/filepath"
	"testing"

	"subbub/internal/config"
)

// NewConfig produces a config seeded with a unique workspace root per
// test. Logging is forced to error level so tool chatter stays out of
// test output. Tests mutate the returned config directly for anything
// else they need.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Workspace.Root = filepath.Join(t.TempDir(), "work")
	cfg.Logging.Level = "error"
	return &cfg
}

// BaseDir returns the temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Workspace.Root)
}
