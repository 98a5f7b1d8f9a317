package deps

import (
	"os"
	"path/filepath"
	"testing"

	"subbub/internal/config"
)

func writeStubTool(t *testing.T, dir, name, banner string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho \"" + banner + "\"\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStubTool(t, binDir, "present", "present 1.2.3")

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version != "present 1.2.3" {
		t.Fatalf("version = %q, want banner line", results[0].Version)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
}

func TestCheckBinariesUnconfigured(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Empty", Command: "  "}})
	if results[0].Available {
		t.Fatalf("unexpected availability: %#v", results[0])
	}
	if results[0].Detail != "command not configured" {
		t.Fatalf("detail = %q", results[0].Detail)
	}
}

func TestRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = "/opt/ffmpeg/bin/ffmpeg"
	reqs := Requirements(&cfg)
	if len(reqs) != 4 {
		t.Fatalf("requirement count = %d, want 4", len(reqs))
	}
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg command = %q", reqs[0].Command)
	}
	for _, req := range reqs[:2] {
		if req.Optional {
			t.Fatalf("%s should be required", req.Name)
		}
	}
	for _, req := range reqs[2:] {
		if !req.Optional {
			t.Fatalf("%s should be optional", req.Name)
		}
	}
}

func TestMissingRequired(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: false},
		{Name: "ffsubsync", Available: false, Optional: true},
		{Name: "FFprobe", Available: true},
	}
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0] != "FFmpeg" {
		t.Fatalf("missing = %v", missing)
	}
}

func TestProbeVersionReadsBanner(t *testing.T) {
	tool := writeStubTool(t, t.TempDir(), "mkvmerge", "mkvmerge v80.0 ('Unsinkable') 64-bit")
	if got := probeVersion(tool); got != "mkvmerge v80.0 ('Unsinkable') 64-bit" {
		t.Fatalf("version = %q", got)
	}
}

func TestProbeVersionToleratesNonzeroExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grumpy")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho \"grumpy 0.1\"\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := probeVersion(path); got != "grumpy 0.1" {
		t.Fatalf("version = %q", got)
	}
}
