package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subbub/internal/combine"
	"subbub/internal/cue"
	"subbub/internal/inputs"
	"subbub/internal/language"
	"subbub/internal/match"
	"subbub/internal/mux"
	"subbub/internal/services"
)

// SyncRequest aligns subtitle sources against reference videos.
type SyncRequest struct {
	Subtitles string
	Videos    string
	OutputDir string
	Language  string
}

// Sync resolves both sides, pairs them positionally (or broadcasts
// against a single video), and aligns each subtitle to its video
// through the estimator.
func (d *Driver) Sync(ctx context.Context, req SyncRequest) (Summary, error) {
	units, err := d.resolver.Resolve(ctx, req.Subtitles)
	if err != nil {
		return Summary{}, err
	}
	videos, err := d.resolver.ResolveVideos(req.Videos)
	if err != nil {
		return Summary{}, err
	}
	pairs, err := matchVideos(units, videos)
	if err != nil {
		return Summary{}, err
	}

	// Positional batches name outputs after the video so media players
	// pick them up; broadcast batches name after the subtitle to keep
	// outputs distinct.
	nameByVideo := len(pairs) == len(videos)
	lang := d.language(req.Language)

	items := make([]Item, len(pairs))
	for i, pair := range pairs {
		unit, video := pair.Left, pair.Right
		base := video.Name
		if !nameByVideo {
			base = unitStem(unit)
		}
		name := fmt.Sprintf("%s%s.%s.srt", base, d.cfg.Output.SyncedSuffix, lang)
		output := d.outputPath(req.OutputDir, video.Path, name)
		items[i] = Item{
			Index:     i,
			Name:      unit.Name,
			Operation: "sync",
			Source:    unit.Identity(),
			Output:    output,
			Run: func(ctx context.Context, pairDir string) error {
				return d.syncPair(ctx, pairDir, unit, video.Path, output)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) syncPair(ctx context.Context, pairDir string, unit *inputs.Unit, referencePath, output string) error {
	ctx = services.WithStage(ctx, "sync")
	doc, err := unit.Document(ctx)
	if err != nil {
		return err
	}
	synced, _, err := d.aligner.Sync(ctx, pairDir, doc, referencePath)
	if err != nil {
		return err
	}
	// Synced outputs are named .srt regardless of the source format.
	out, err := cue.Convert(synced, cue.FormatSRT)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "sync", unit.Name, err)
	}
	return writeDocument(out, output)
}

// DualRequest merges a primary and a secondary subtitle set into dual
// tracks aligned against reference videos.
type DualRequest struct {
	Primary           string
	Secondary         string
	Videos            string
	OutputDir         string
	PrimaryLanguage   string
	SecondaryLanguage string
	// Mux additionally attaches the merged track to a new container.
	Mux bool
}

// Dual pairs the primary and secondary sets strictly by position, then
// pairs each subtitle pair with its video. Both documents are aligned
// to the video before merging.
func (d *Driver) Dual(ctx context.Context, req DualRequest) (Summary, error) {
	primaries, err := d.resolver.Resolve(ctx, req.Primary)
	if err != nil {
		return Summary{}, err
	}
	secondaries, err := d.resolver.Resolve(ctx, req.Secondary)
	if err != nil {
		return Summary{}, err
	}
	subPairs, err := match.Positional(primaries, secondaries)
	if err != nil {
		return Summary{}, err
	}
	videos, err := d.resolver.ResolveVideos(req.Videos)
	if err != nil {
		return Summary{}, err
	}
	pairs, err := matchVideos(subPairs, videos)
	if err != nil {
		return Summary{}, err
	}

	langP := d.language(req.PrimaryLanguage)
	langS := strings.ToLower(strings.TrimSpace(req.SecondaryLanguage))
	if langS == "" {
		langS = strings.TrimSpace(d.cfg.Output.SecondaryLanguage)
	}
	if langS == "" {
		return Summary{}, services.Wrap(services.ErrInput, "pipeline", "dual",
			"secondary language is required (flag or output.secondary_language)", nil)
	}

	items := make([]Item, len(pairs))
	for i, pair := range pairs {
		sub, video := pair.Left, pair.Right
		name := fmt.Sprintf("%s%s.%s-%s.srt", video.Name, d.cfg.Output.DualSuffix, langP, langS)
		output := d.outputPath(req.OutputDir, video.Path, name)
		muxOutput := ""
		final := output
		if req.Mux {
			muxOutput = d.outputPath(req.OutputDir, video.Path, video.Name+d.cfg.Output.DualSuffix+".mkv")
			final = muxOutput
		}
		items[i] = Item{
			Index:     i,
			Name:      video.Name,
			Operation: "dual",
			Source:    sub.Left.Identity() + "+" + sub.Right.Identity(),
			Output:    final,
			Run: func(ctx context.Context, pairDir string) error {
				return d.dualPair(ctx, pairDir, sub.Left, sub.Right, video, output, muxOutput, langP, langS)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) dualPair(ctx context.Context, pairDir string, primary, secondary *inputs.Unit, video inputs.Video, output, muxOutput, langP, langS string) error {
	ctx = services.WithStage(ctx, "dual")
	pDoc, err := primary.Document(ctx)
	if err != nil {
		return err
	}
	sDoc, err := secondary.Document(ctx)
	if err != nil {
		return err
	}

	// Each alignment gets its own scratch dir; the estimator writes
	// fixed file names.
	primaryDir := filepath.Join(pairDir, "primary")
	secondaryDir := filepath.Join(pairDir, "secondary")
	for _, dir := range []string{primaryDir, secondaryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrIO, "pipeline", "dual", fmt.Sprintf("create %s", dir), err)
		}
	}

	pSynced, _, err := d.aligner.Sync(ctx, primaryDir, pDoc, video.Path)
	if err != nil {
		return err
	}
	sSynced, _, err := d.aligner.Sync(ctx, secondaryDir, sDoc, video.Path)
	if err != nil {
		return err
	}

	dual, err := combine.Documents(pSynced, sSynced)
	if err != nil {
		return services.Wrap(services.ErrInvariant, "pipeline", "dual", "merge synced documents", err)
	}
	dual, err = cue.Convert(dual, cue.FormatSRT)
	if err != nil {
		return services.Wrap(services.ErrInvariant, "pipeline", "dual", "render merged document", err)
	}
	if err := writeDocument(dual, output); err != nil {
		return err
	}
	if muxOutput == "" {
		return nil
	}

	trackName := fmt.Sprintf("%s + %s", language.DisplayName(langP), language.DisplayName(langS))
	_, err = d.muxer.Attach(ctx, mux.Request{
		VideoPath:  video.Path,
		OutputPath: muxOutput,
		Tracks: []mux.Track{{
			Path:     output,
			Language: langP,
			Name:     trackName,
			Default:  true,
		}},
	})
	return err
}

// matchVideos pairs lefts with videos: broadcast against a single
// video, strict positional otherwise.
func matchVideos[L any](lefts []L, videos []inputs.Video) ([]match.Pair[L, inputs.Video], error) {
	if len(videos) == 1 {
		return match.Broadcast(lefts, videos[0]), nil
	}
	return match.Positional(lefts, videos)
}
