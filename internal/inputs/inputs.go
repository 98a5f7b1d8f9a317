package inputs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"subbub/internal/cue"
	"subbub/internal/extract"
	"subbub/internal/logging"
	"subbub/internal/services"
)

// videoExtensions are the container formats the pipeline accepts.
var videoExtensions = map[string]struct{}{
	".mkv": {},
	".mp4": {},
	".avi": {},
}

// subtitleExtensions are the standalone subtitle formats the pipeline
// accepts. ASS and SSA load through ffmpeg conversion.
var subtitleExtensions = map[string]struct{}{
	".srt": {},
	".vtt": {},
	".ass": {},
	".ssa": {},
}

// Spec is one parsed input specification. Track is -1 when the spec
// carries no explicit track index.
type Spec struct {
	Path  string
	Track int
}

// ParseSpec splits an input specification into path and optional track
// index. "movie.mkv:2" addresses subtitle track 2 of movie.mkv; a
// suffix that is not all digits is treated as part of the path.
func ParseSpec(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}, services.Wrap(services.ErrInput, "inputs", "parse", "empty input spec", nil)
	}
	spec := Spec{Path: raw, Track: -1}
	if idx := strings.LastIndex(raw, ":"); idx > 0 && idx < len(raw)-1 {
		if track, err := strconv.Atoi(raw[idx+1:]); err == nil && track >= 0 {
			spec.Path = raw[:idx]
			spec.Track = track
		}
	}
	return spec, nil
}

// Unit is one resolved subtitle source. Materialization is lazy: the
// document loads or extracts on the first Document call and is cached
// for the life of the unit.
type Unit struct {
	// Name identifies the unit in pair names and summaries.
	Name string
	Path string
	// Track is the subtitle track ordinal for container-backed units,
	// -1 for standalone files.
	Track int

	extractor *extract.Extractor

	mu  sync.Mutex
	doc *cue.Document
}

// ContainerBacked reports whether the unit extracts from a video
// container rather than a standalone subtitle file.
func (u *Unit) ContainerBacked() bool { return u.Track >= 0 }

// Identity returns the unit's canonical source key, stable across runs
// on an unchanged filesystem.
func (u *Unit) Identity() string { return identityKey(u.Path, u.Track) }

// Document materializes the unit's subtitle document. Successful loads
// are cached; failures are returned fresh so retries re-attempt.
func (u *Unit) Document(ctx context.Context) (*cue.Document, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.doc != nil {
		return u.doc, nil
	}

	var doc *cue.Document
	var err error
	if u.ContainerBacked() {
		var file *extract.TrackFile
		file, err = u.extractor.Extract(ctx, u.Path, u.Track)
		if file != nil {
			doc = file.Document
		}
	} else {
		doc, err = u.extractor.Load(ctx, u.Path)
	}
	if err != nil {
		return nil, err
	}
	u.doc = doc
	return doc, nil
}

// Video is a resolved video container input.
type Video struct {
	Path string
	Name string
}

// Resolver turns user-supplied input specifications into ordered
// collections of subtitle units and video paths.
type Resolver struct {
	extractor *extract.Extractor
	logger    *slog.Logger
}

// New constructs a Resolver materializing through the given extractor.
func New(extractor *extract.Extractor, logger *slog.Logger) *Resolver {
	return &Resolver{
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "inputs"),
	}
}

// Resolve expands one input specification into subtitle units:
//   - a subtitle file becomes a single unit wrapping that document
//   - a video file becomes a container-backed unit, requiring an
//     explicit track index unless the container holds exactly one
//     subtitle stream
//   - a directory contributes every subtitle file it holds, plus every
//     video file when the spec carries a track index, ordered by
//     case-folded file name
func (r *Resolver) Resolve(ctx context.Context, raw string) ([]*Unit, error) {
	spec, err := ParseSpec(raw)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(spec.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrInput, "inputs", "resolve", fmt.Sprintf("%s does not exist", spec.Path), nil)
		}
		return nil, services.Wrap(services.ErrIO, "inputs", "resolve", fmt.Sprintf("stat %s", spec.Path), err)
	}

	if info.IsDir() {
		return r.resolveDirectory(spec)
	}
	unit, err := r.resolveFile(ctx, spec)
	if err != nil {
		return nil, err
	}
	return []*Unit{unit}, nil
}

// ResolveAll resolves multiple specifications into one ordered
// collection, deduplicating sources that share a resolved identity.
// Units keep the order their specs were given in.
func (r *Resolver) ResolveAll(ctx context.Context, raws []string) ([]*Unit, error) {
	if len(raws) == 0 {
		return nil, services.Wrap(services.ErrInput, "inputs", "resolve", "no input specs given", nil)
	}
	var all []*Unit
	seen := make(map[string]struct{})
	for _, raw := range raws {
		units, err := r.Resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		for _, unit := range units {
			key := identityKey(unit.Path, unit.Track)
			if _, ok := seen[key]; ok {
				r.logger.Debug("skipping duplicate input", logging.String("path", unit.Path))
				continue
			}
			seen[key] = struct{}{}
			all = append(all, unit)
		}
	}
	return all, nil
}

// ResolveVideos expands a video file or a directory of video files into
// an ordered list, case-folded like subtitle resolution so positional
// matching lines both sides up.
func (r *Resolver) ResolveVideos(raw string) ([]Video, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return nil, services.Wrap(services.ErrInput, "inputs", "resolve videos", "empty video spec", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrInput, "inputs", "resolve videos", fmt.Sprintf("%s does not exist", path), nil)
		}
		return nil, services.Wrap(services.ErrIO, "inputs", "resolve videos", fmt.Sprintf("stat %s", path), err)
	}

	if !info.IsDir() {
		if !isVideoPath(path) {
			return nil, services.Wrap(services.ErrInput, "inputs", "resolve videos", fmt.Sprintf("%s is not a recognized video file", path), nil)
		}
		return []Video{{Path: path, Name: stem(path)}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "inputs", "resolve videos", fmt.Sprintf("read directory %s", path), err)
	}
	var videos []Video
	for _, entry := range entries {
		if entry.IsDir() || !isVideoPath(entry.Name()) {
			continue
		}
		full := filepath.Join(path, entry.Name())
		videos = append(videos, Video{Path: full, Name: stem(full)})
	}
	if len(videos) == 0 {
		return nil, services.Wrap(services.ErrInput, "inputs", "resolve videos", fmt.Sprintf("directory %s contains no video files", path), nil)
	}
	sortByName(videos, func(v Video) string { return v.Name })
	return videos, nil
}

func (r *Resolver) resolveFile(ctx context.Context, spec Spec) (*Unit, error) {
	switch {
	case isSubtitlePath(spec.Path):
		if spec.Track >= 0 {
			return nil, services.Wrap(services.ErrInput, "inputs", "resolve",
				fmt.Sprintf("%s is a subtitle file, track index %d does not apply", spec.Path, spec.Track), nil)
		}
		return r.fileUnit(spec.Path), nil
	case isVideoPath(spec.Path):
		track := spec.Track
		if track < 0 {
			resolved, err := r.soleTrack(ctx, spec.Path)
			if err != nil {
				return nil, err
			}
			track = resolved
		}
		return r.trackUnit(spec.Path, track), nil
	default:
		return nil, services.Wrap(services.ErrInput, "inputs", "resolve",
			fmt.Sprintf("%s is neither a subtitle nor a video file", spec.Path), nil)
	}
}

func (r *Resolver) resolveDirectory(spec Spec) ([]*Unit, error) {
	entries, err := os.ReadDir(spec.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "inputs", "resolve", fmt.Sprintf("read directory %s", spec.Path), err)
	}

	var units []*Unit
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		full := filepath.Join(spec.Path, entry.Name())
		switch {
		case isSubtitlePath(full):
			units = append(units, r.fileUnit(full))
		case isVideoPath(full) && spec.Track >= 0:
			units = append(units, r.trackUnit(full, spec.Track))
		}
	}
	if len(units) == 0 {
		return nil, services.Wrap(services.ErrInput, "inputs", "resolve",
			fmt.Sprintf("directory %s contains no subtitle sources", spec.Path), nil)
	}
	sortByName(units, func(u *Unit) string { return u.Name })
	return units, nil
}

// soleTrack applies the single-stream rule: a container input without
// an explicit track index is accepted only when exactly one subtitle
// stream exists.
func (r *Resolver) soleTrack(ctx context.Context, container string) (int, error) {
	info, err := r.extractor.Probe(ctx, container)
	if err != nil {
		return 0, err
	}
	switch count := len(info.SubtitleStreams()); count {
	case 0:
		return 0, services.Wrap(services.ErrInput, "inputs", "resolve",
			fmt.Sprintf("%s has no subtitle tracks", container), nil)
	case 1:
		return 0, nil
	default:
		return 0, services.Wrap(services.ErrInput, "inputs", "resolve",
			fmt.Sprintf("%s has %d subtitle tracks, specify one as %s:N", container, count, container), nil)
	}
}

func (r *Resolver) fileUnit(path string) *Unit {
	return &Unit{Name: stem(path), Path: path, Track: -1, extractor: r.extractor}
}

func (r *Resolver) trackUnit(path string, track int) *Unit {
	return &Unit{Name: fmt.Sprintf("%s:%d", stem(path), track), Path: path, Track: track, extractor: r.extractor}
}

func isSubtitlePath(path string) bool {
	_, ok := subtitleExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func isVideoPath(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// identityKey canonicalizes a source for deduplication, following
// symlinks where the filesystem allows.
func identityKey(path string, track int) string {
	clean := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		clean = resolved
	}
	if track >= 0 {
		return fmt.Sprintf("%s#%d", clean, track)
	}
	return clean
}

// sortByName orders items by case-folded name so matching is
// independent of the locale and the filesystem's listing order.
func sortByName[T any](items []T, name func(T) string) {
	caser := cases.Fold()
	sort.Slice(items, func(i, j int) bool {
		ni, nj := name(items[i]), name(items[j])
		fi, fj := caser.String(ni), caser.String(nj)
		if fi == fj {
			return ni < nj
		}
		return fi < fj
	})
}
