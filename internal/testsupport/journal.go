package testsupport

import (
	"testing"

	"subbub/internal/journal"
)

// MustOpenJournal opens the ledger at path for tests and registers
// cleanup.
func MustOpenJournal(t testing.TB, path string) *journal.Journal {
	t.Helper()

	jrnl, err := journal.Open(path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = jrnl.Close()
	})
	return jrnl
}
