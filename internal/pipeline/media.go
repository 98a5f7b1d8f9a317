package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subbub/internal/fileutil"
	"subbub/internal/inputs"
	"subbub/internal/logging"
	"subbub/internal/match"
	"subbub/internal/mux"
	"subbub/internal/services"
)

// ExtractRequest pulls one subtitle track out of each container into
// the output location.
type ExtractRequest struct {
	Videos string
	// Track is the subtitle ordinal to extract; -1 applies the
	// single-stream rule per container.
	Track     int
	OutputDir string
}

// Extract resolves each video's track up front (so ambiguous containers
// fail before any work starts) and delivers the extracted artifacts
// with verified copies.
func (d *Driver) Extract(ctx context.Context, req ExtractRequest) (Summary, error) {
	videos, err := d.resolver.ResolveVideos(req.Videos)
	if err != nil {
		return Summary{}, err
	}

	items := make([]Item, len(videos))
	for i, video := range videos {
		spec := video.Path
		if req.Track >= 0 {
			spec = fmt.Sprintf("%s:%d", video.Path, req.Track)
		}
		units, err := d.resolver.Resolve(ctx, spec)
		if err != nil {
			return Summary{}, err
		}
		unit := units[0]

		ext := ".srt"
		info, err := d.extractor.Probe(ctx, video.Path)
		if err != nil {
			return Summary{}, err
		}
		if subs := info.SubtitleStreams(); unit.Track < len(subs) && subs[unit.Track].IsImage() {
			ext = ".mks"
		}

		output := d.outputPath(req.OutputDir, video.Path, fmt.Sprintf("%s.s%d%s", video.Name, unit.Track, ext))
		items[i] = Item{
			Index:     i,
			Name:      unit.Name,
			Operation: "extract",
			Source:    unit.Identity(),
			Output:    output,
			Run: func(ctx context.Context, _ string) error {
				return d.extractUnit(ctx, unit, output)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) extractUnit(ctx context.Context, unit *inputs.Unit, output string) error {
	ctx = services.WithStage(ctx, "extract")
	file, err := d.extractor.Extract(ctx, unit.Path, unit.Track)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return services.Wrap(services.ErrIO, "pipeline", "extract", fmt.Sprintf("create %s", filepath.Dir(output)), err)
	}
	if err := fileutil.CopyFileVerified(file.Path, output); err != nil {
		return services.Wrap(services.ErrIO, "pipeline", "extract", fmt.Sprintf("deliver %s", output), err)
	}
	logging.WithContext(ctx, d.logger).Info("subtitle track delivered",
		logging.String("codec", file.Stream.CodecName),
		logging.String("language", file.Stream.Language()),
		logging.String("output", output))
	return nil
}

// MuxRequest attaches subtitle sources to containers.
type MuxRequest struct {
	Videos    string
	Subtitles string
	Language  string
	OutputDir string
	// Replace renames the muxed container over the source video after a
	// successful mux.
	Replace bool
	// StripExisting drops the video's existing subtitle tracks.
	StripExisting bool
}

type muxBatch struct {
	video inputs.Video
	units []*inputs.Unit
}

// Mux attaches subtitles to videos. A single video receives all
// resolved subtitles as ordered tracks in one invocation; multiple
// videos pair positionally, one track each.
func (d *Driver) Mux(ctx context.Context, req MuxRequest) (Summary, error) {
	units, err := d.resolver.Resolve(ctx, req.Subtitles)
	if err != nil {
		return Summary{}, err
	}
	videos, err := d.resolver.ResolveVideos(req.Videos)
	if err != nil {
		return Summary{}, err
	}

	var batches []muxBatch
	if len(videos) == 1 {
		batches = []muxBatch{{video: videos[0], units: units}}
	} else {
		pairs, err := match.Positional(units, videos)
		if err != nil {
			return Summary{}, err
		}
		for _, pair := range pairs {
			batches = append(batches, muxBatch{video: pair.Right, units: []*inputs.Unit{pair.Left}})
		}
	}

	lang := d.language(req.Language)
	items := make([]Item, len(batches))
	for i, batch := range batches {
		output := d.outputPath(req.OutputDir, batch.video.Path, batch.video.Name+".subbed.mkv")
		final := output
		if req.Replace {
			final = batch.video.Path
		}
		sources := make([]string, len(batch.units))
		for n, unit := range batch.units {
			sources[n] = unit.Identity()
		}
		items[i] = Item{
			Index:     i,
			Name:      batch.video.Name,
			Operation: "mux",
			Source:    strings.Join(sources, "+"),
			Output:    final,
			Run: func(ctx context.Context, _ string) error {
				return d.muxOne(ctx, batch, lang, output, req)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) muxOne(ctx context.Context, batch muxBatch, lang, output string, req MuxRequest) error {
	ctx = services.WithStage(ctx, "mux")
	tracks := make([]mux.Track, 0, len(batch.units))
	for i, unit := range batch.units {
		path := unit.Path
		if unit.ContainerBacked() {
			file, err := d.extractor.Extract(ctx, unit.Path, unit.Track)
			if err != nil {
				return err
			}
			path = file.Path
		}
		tracks = append(tracks, mux.Track{Path: path, Language: lang, Default: i == 0})
	}

	target := output
	if req.Replace {
		// Mux next to the source so the final rename stays on one
		// filesystem. The temp container lives outside the run directory,
		// so register it for cleanup in case the run is interrupted.
		target = filepath.Join(filepath.Dir(batch.video.Path), batch.video.Name+".mux-tmp.mkv")
		d.ws.Register(target)
	}
	res, err := d.muxer.Attach(ctx, mux.Request{
		VideoPath:         batch.video.Path,
		OutputPath:        target,
		Tracks:            tracks,
		StripExistingSubs: req.StripExisting,
	})
	if err != nil {
		if req.Replace {
			_ = os.Remove(target)
		}
		return err
	}

	if req.Replace {
		if err := os.Rename(res.OutputPath, batch.video.Path); err != nil {
			_ = os.Remove(res.OutputPath)
			return services.Wrap(services.ErrIO, "pipeline", "mux", fmt.Sprintf("replace %s", batch.video.Path), err)
		}
		logging.WithContext(ctx, d.logger).Info("container replaced",
			logging.String("video", batch.video.Path),
			logging.Int("tracks", res.TracksAdded))
	}
	return nil
}
