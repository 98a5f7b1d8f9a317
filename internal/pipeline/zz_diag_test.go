package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subbub/internal/services"
)

func TestDiagJournalStart(t *testing.T) {
	d, jrnl := newTestDriver(t, nil)

	okOutput := filepath.Join(t.TempDir(), "ok.srt")
	items := []Item{
		{Index: 0, Name: "ok", Operation: "shift:1s", Source: "a.srt", Output: okOutput,
			Run: func(context.Context, string) error {
				return os.WriteFile(okOutput, []byte("payload"), 0o644)
			}},
		{Index: 1, Name: "broken", Operation: "shift:1s", Source: "b.srt", Output: "/nope/out.srt",
			Run: func(context.Context, string) error {
				return services.Wrap(services.ErrExternalTool, "test", "run", "exit status 2", nil)
			}},
	}

	summary, err := d.Execute(context.Background(), items)
	t.Logf("Execute: summary=%+v err=%v", summary, err)

	entries, err := jrnl.Entries(context.Background())
	t.Logf("Entries: err=%v count=%d", err, len(entries))
	for _, e := range entries {
		t.Logf("  entry=%+v", *e)
	}
}
