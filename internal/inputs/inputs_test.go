package inputs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"subbub/internal/config"
	"subbub/internal/extract"
	"subbub/internal/logging"
	"subbub/internal/probe"
	"subbub/internal/runner"
	"subbub/internal/services"
)

const singleTrackJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "subrip", "codec_type": "subtitle", "tags": {"language": "eng"}}
  ],
  "format": {"nb_streams": 2}
}`

const doubleTrackJSON = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video"},
    {"index": 1, "codec_name": "subrip", "codec_type": "subtitle"},
    {"index": 2, "codec_name": "subrip", "codec_type": "subtitle"}
  ],
  "format": {"nb_streams": 3}
}`

const sampleSRT = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"

type probeStub struct {
	mu    sync.Mutex
	calls int
	json  string
}

func (s *probeStub) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return runner.Result{Stdout: s.json}, nil
}

func (s *probeStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestResolver(t *testing.T, probeJSON string) (*Resolver, *probeStub) {
	t.Helper()
	cfg := config.Default()
	stub := &probeStub{json: probeJSON}
	run := runner.New(logging.NewNop(), runner.WithExecutor(stub))
	prober := probe.New(run, &cfg)
	ex := extract.New(run, prober, &cfg, t.TempDir(), logging.NewNop())
	return New(ex, logging.NewNop()), stub
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseSpec(t *testing.T) {
	cases := []struct {
		raw   string
		path  string
		track int
	}{
		{"movie.mkv:2", "movie.mkv", 2},
		{"movie.mkv", "movie.mkv", -1},
		{"subs.srt", "subs.srt", -1},
		{"weird:name.srt", "weird:name.srt", -1},
		{"movie.mkv:", "movie.mkv:", -1},
		{"dir/:0", "dir/", 0},
	}
	for _, tc := range cases {
		spec, err := ParseSpec(tc.raw)
		if err != nil {
			t.Fatalf("ParseSpec(%q): %v", tc.raw, err)
		}
		if spec.Path != tc.path || spec.Track != tc.track {
			t.Errorf("ParseSpec(%q) = {%q, %d}, want {%q, %d}", tc.raw, spec.Path, spec.Track, tc.path, tc.track)
		}
	}

	if _, err := ParseSpec("  "); !errors.Is(err, services.ErrInput) {
		t.Fatalf("empty spec error = %v, want ErrInput", err)
	}
}

func TestResolveSubtitleFile(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.srt")
	writeFile(t, path, sampleSRT)

	units, err := resolver.Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("unit count = %d, want 1", len(units))
	}
	unit := units[0]
	if unit.Name != "episode" || unit.Track != -1 || unit.ContainerBacked() {
		t.Fatalf("unexpected unit: %+v", unit)
	}

	doc, err := unit.Document(context.Background())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if len(doc.Cues) != 1 || doc.Cues[0].Text != "Hello" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	again, err := unit.Document(context.Background())
	if err != nil {
		t.Fatalf("second Document: %v", err)
	}
	if doc != again {
		t.Fatal("expected cached document on second call")
	}
}

func TestResolveRejectsTrackOnSubtitleFile(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.srt")
	writeFile(t, path, sampleSRT)

	_, err := resolver.Resolve(context.Background(), path+":1")
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
}

func TestResolveMissingPath(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	_, err := resolver.Resolve(context.Background(), filepath.Join(t.TempDir(), "absent.srt"))
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("error should say the path does not exist: %v", err)
	}
}

func TestResolveUnknownExtension(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	path := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, path, "hi")

	if _, err := resolver.Resolve(context.Background(), path); !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
}

func TestResolveVideoSingleStreamRule(t *testing.T) {
	resolver, stub := newTestResolver(t, singleTrackJSON)
	path := filepath.Join(t.TempDir(), "movie.mkv")
	writeFile(t, path, "")

	units, err := resolver.Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("unit count = %d, want 1", len(units))
	}
	unit := units[0]
	if !unit.ContainerBacked() || unit.Track != 0 {
		t.Fatalf("expected track 0 container unit, got %+v", unit)
	}
	if unit.Name != "movie:0" {
		t.Fatalf("unit name = %q", unit.Name)
	}
	if stub.callCount() != 1 {
		t.Fatalf("probe calls = %d, want 1", stub.callCount())
	}
}

func TestResolveVideoAmbiguousTrack(t *testing.T) {
	resolver, _ := newTestResolver(t, doubleTrackJSON)
	path := filepath.Join(t.TempDir(), "movie.mkv")
	writeFile(t, path, "")

	_, err := resolver.Resolve(context.Background(), path)
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
	if !strings.Contains(err.Error(), ":N") {
		t.Fatalf("error should hint at explicit track syntax: %v", err)
	}
}

func TestResolveVideoExplicitTrackSkipsProbe(t *testing.T) {
	resolver, stub := newTestResolver(t, doubleTrackJSON)
	path := filepath.Join(t.TempDir(), "movie.mkv")
	writeFile(t, path, "")

	units, err := resolver.Resolve(context.Background(), path+":1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if units[0].Track != 1 {
		t.Fatalf("track = %d, want 1", units[0].Track)
	}
	if stub.callCount() != 0 {
		t.Fatalf("probe calls = %d, want 0 (lazy materialization)", stub.callCount())
	}
}

func TestResolveDirectoryOrdersCaseFolded(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	for _, name := range []string{"Beta.srt", "alpha.srt", "Gamma.vtt", "notes.txt"} {
		writeFile(t, filepath.Join(dir, name), sampleSRT)
	}
	writeFile(t, filepath.Join(dir, "clip.mkv"), "")

	units, err := resolver.Resolve(context.Background(), dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var names []string
	for _, unit := range units {
		names = append(names, unit.Name)
	}
	want := []string{"alpha", "Beta", "Gamma"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestResolveDirectoryWithTrackIncludesVideos(t *testing.T) {
	resolver, _ := newTestResolver(t, doubleTrackJSON)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "episode.srt"), sampleSRT)
	writeFile(t, filepath.Join(dir, "clip.mkv"), "")

	units, err := resolver.Resolve(context.Background(), dir+":0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("unit count = %d, want 2", len(units))
	}
	if units[0].Name != "clip:0" || units[0].Track != 0 {
		t.Fatalf("first unit = %+v", units[0])
	}
	if units[1].Name != "episode" {
		t.Fatalf("second unit = %+v", units[1])
	}
}

func TestResolveDirectoryEmpty(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), "hi")

	_, err := resolver.Resolve(context.Background(), dir)
	if !errors.Is(err, services.ErrInput) {
		t.Fatalf("error = %v, want ErrInput", err)
	}
	if !strings.Contains(err.Error(), "no subtitle sources") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestResolveAllDeduplicates(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	path := filepath.Join(dir, "episode.srt")
	writeFile(t, path, sampleSRT)

	units, err := resolver.ResolveAll(context.Background(), []string{dir, path})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("unit count = %d, want 1 after dedup", len(units))
	}
}

func TestResolveVideos(t *testing.T) {
	resolver, _ := newTestResolver(t, singleTrackJSON)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clip2.mkv"), "")
	writeFile(t, filepath.Join(dir, "Clip1.mp4"), "")
	writeFile(t, filepath.Join(dir, "episode.srt"), sampleSRT)

	videos, err := resolver.ResolveVideos(dir)
	if err != nil {
		t.Fatalf("ResolveVideos: %v", err)
	}
	if len(videos) != 2 || videos[0].Name != "Clip1" || videos[1].Name != "clip2" {
		t.Fatalf("videos = %+v", videos)
	}

	single, err := resolver.ResolveVideos(filepath.Join(dir, "clip2.mkv"))
	if err != nil || len(single) != 1 {
		t.Fatalf("single video resolve: %v %v", single, err)
	}

	if _, err := resolver.ResolveVideos(filepath.Join(dir, "episode.srt")); !errors.Is(err, services.ErrInput) {
		t.Fatalf("non-video file error = %v, want ErrInput", err)
	}

	empty := t.TempDir()
	if _, err := resolver.ResolveVideos(empty); !errors.Is(err, services.ErrInput) {
		t.Fatalf("empty directory error = %v, want ErrInput", err)
	}
}
