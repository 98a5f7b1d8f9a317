package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"subbub/internal/config"
	"subbub/internal/cue"
	"subbub/internal/logging"
	"subbub/internal/probe"
	"subbub/internal/runner"
	"subbub/internal/services"
	"subbub/internal/textutil"
)

// TrackFile pairs an extracted subtitle artifact with its parsed form.
// Image tracks carry no cues; their Document wraps the artifact path as
// an opaque payload.
type TrackFile struct {
	Path     string
	Document *cue.Document
	Stream   probe.Stream
}

type inflight struct {
	done chan struct{}
	file *TrackFile
	err  error
}

// Extractor demuxes subtitle tracks out of media containers into the
// run workspace. Successful results are cached per (container, track)
// so matching strategies that reference the same track repeatedly pay
// for one ffmpeg invocation; concurrent requests for the same track
// share a single run.
type Extractor struct {
	run     *runner.Runner
	prober  *probe.Prober
	logger  *slog.Logger
	binary  string
	timeout time.Duration
	dir     string

	mu     sync.Mutex
	tracks map[string]*inflight
	probes map[string]*probe.Result
}

// New constructs an Extractor writing artifacts into dir.
func New(run *runner.Runner, prober *probe.Prober, cfg *config.Config, dir string, logger *slog.Logger) *Extractor {
	binary := "ffmpeg"
	timeout := time.Duration(0)
	if cfg != nil {
		if b := strings.TrimSpace(cfg.Tools.FFmpeg); b != "" {
			binary = b
		}
		timeout = time.Duration(cfg.Tools.ExtractTimeout) * time.Second
	}
	return &Extractor{
		run:     run,
		prober:  prober,
		logger:  logging.NewComponentLogger(logger, "extract"),
		binary:  binary,
		timeout: timeout,
		dir:     dir,
		tracks:  make(map[string]*inflight),
		probes:  make(map[string]*probe.Result),
	}
}

// Probe returns container metadata, cached per path for the run.
func (e *Extractor) Probe(ctx context.Context, container string) (probe.Result, error) {
	e.mu.Lock()
	if cached, ok := e.probes[container]; ok {
		e.mu.Unlock()
		return *cached, nil
	}
	e.mu.Unlock()

	result, err := e.prober.Inspect(ctx, container)
	if err != nil {
		return probe.Result{}, err
	}

	e.mu.Lock()
	e.probes[container] = &result
	e.mu.Unlock()
	return result, nil
}

// Extract demuxes the subtitle track with the given ordinal (ffmpeg s:N
// numbering) from the container. Text codecs are converted to SRT and
// parsed; bitmap codecs are copied into a Matroska subtitle file and
// returned as opaque payloads.
func (e *Extractor) Extract(ctx context.Context, container string, track int) (*TrackFile, error) {
	container = strings.TrimSpace(container)
	if container == "" {
		return nil, services.Wrap(services.ErrInput, "extract", "extract", "empty container path", nil)
	}
	if track < 0 {
		return nil, services.Wrap(services.ErrInput, "extract", "extract", fmt.Sprintf("negative track index %d", track), nil)
	}

	key := container + "#" + fmt.Sprint(track)
	e.mu.Lock()
	if entry, ok := e.tracks[key]; ok {
		e.mu.Unlock()
		select {
		case <-entry.done:
			return entry.file, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &inflight{done: make(chan struct{})}
	e.tracks[key] = entry
	e.mu.Unlock()

	file, err := e.extract(ctx, container, track)
	entry.file, entry.err = file, err
	if err != nil {
		// Cache successes only. A failed attempt (timeout, tool crash)
		// must not poison retries of the same pair.
		e.mu.Lock()
		delete(e.tracks, key)
		e.mu.Unlock()
	}
	close(entry.done)
	return file, err
}

func (e *Extractor) extract(ctx context.Context, container string, track int) (*TrackFile, error) {
	info, err := e.Probe(ctx, container)
	if err != nil {
		return nil, err
	}
	subs := info.SubtitleStreams()
	if track >= len(subs) {
		return nil, services.Wrap(services.ErrInput, "extract", "extract",
			fmt.Sprintf("%s has %d subtitle tracks, track %d requested", container, len(subs), track), nil)
	}
	stream := subs[track]

	outPath := e.artifactPath(container, fmt.Sprintf("s%d", track), textutil.Ternary(stream.IsImage(), "mks", "srt"))
	args := []string{"-y", "-v", "error", "-i", container, "-map", fmt.Sprintf("0:s:%d", track)}
	if stream.IsImage() {
		args = append(args, "-c", "copy")
	}
	args = append(args, outPath)

	if _, err := e.run.Run(ctx, runner.Command{
		Tool:    "ffmpeg",
		Binary:  e.binary,
		Args:    args,
		Timeout: e.timeout,
	}); err != nil {
		return nil, err
	}

	if stream.IsImage() {
		e.logger.Debug("extracted bitmap subtitle track",
			logging.String("container", container),
			logging.Int("track", track),
			logging.String("codec", stream.CodecName),
			logging.String("path", outPath))
		return &TrackFile{Path: outPath, Document: cue.NewImageDocument(outPath), Stream: stream}, nil
	}

	doc, err := e.parseSRTFile(outPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracted subtitle track",
		logging.String("container", container),
		logging.Int("track", track),
		logging.String("codec", stream.CodecName),
		logging.Int("cues", len(doc.Cues)))
	return &TrackFile{Path: outPath, Document: doc, Stream: stream}, nil
}

// Load reads a standalone subtitle file. SRT and VTT parse natively;
// formats only ffmpeg understands are converted to SRT in the workspace
// first.
func (e *Extractor) Load(ctx context.Context, path string) (*cue.Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrInput, "extract", "load", "empty subtitle path", nil)
	}

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "srt":
		return e.parseFile(path, cue.FormatSRT)
	case "vtt":
		return e.parseFile(path, cue.FormatVTT)
	case "ass", "ssa":
		outPath := e.artifactPath(path, "conv", "srt")
		if _, err := e.run.Run(ctx, runner.Command{
			Tool:    "ffmpeg",
			Binary:  e.binary,
			Args:    []string{"-y", "-v", "error", "-i", path, outPath},
			Timeout: e.timeout,
		}); err != nil {
			return nil, err
		}
		return e.parseSRTFile(outPath)
	default:
		return nil, services.Wrap(services.ErrInput, "extract", "load", fmt.Sprintf("unsupported subtitle format %q", ext), nil)
	}
}

func (e *Extractor) parseFile(path string, format cue.Format) (*cue.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "extract", "load", fmt.Sprintf("read %s", path), err)
	}
	doc, err := cue.Parse(format, data)
	if err != nil {
		return nil, services.Wrap(services.ErrInput, "extract", "load", fmt.Sprintf("parse %s", path), err)
	}
	return doc, nil
}

func (e *Extractor) parseSRTFile(path string) (*cue.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "extract", "extract", fmt.Sprintf("read extracted track %s", path), err)
	}
	doc, err := cue.ParseSRT(data)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "extract", fmt.Sprintf("ffmpeg produced unparseable output at %s", path), err)
	}
	return doc, nil
}

// artifactPath builds a collision-free workspace path for an artifact
// derived from source. The digest disambiguates same-named sources from
// different directories.
func (e *Extractor) artifactPath(source, tag, ext string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	sum := sha256.Sum256([]byte(source))
	return filepath.Join(e.dir, fmt.Sprintf("%s-%s.%s.%s", textutil.SanitizeToken(base), hex.EncodeToString(sum[:4]), tag, ext))
}
