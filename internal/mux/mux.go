package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subbub/internal/config"
	"subbub/internal/language"
	"subbub/internal/logging"
	"subbub/internal/runner"
	"subbub/internal/services"
)

// Track is one subtitle file to attach, with the metadata mkvmerge
// stamps onto the new track.
type Track struct {
	Path     string
	Language string
	// Name overrides the display name derived from Language.
	Name    string
	Default bool
	Forced  bool
}

// Request describes one mux invocation. Existing tracks in the video
// are preserved unless StripExistingSubs is set; new tracks append in
// the order given.
type Request struct {
	VideoPath         string
	OutputPath        string
	Tracks            []Track
	StripExistingSubs bool
}

// Result reports the outcome of a mux.
type Result struct {
	OutputPath  string
	TracksAdded int
}

// Muxer attaches subtitle tracks to video containers with mkvmerge.
// It always writes to a new output path; replace-in-place semantics
// belong to the caller.
type Muxer struct {
	run     *runner.Runner
	logger  *slog.Logger
	binary  string
	timeout time.Duration
}

// New constructs a Muxer bound to the configured mkvmerge binary.
func New(run *runner.Runner, cfg *config.Config, logger *slog.Logger) *Muxer {
	binary := "mkvmerge"
	timeout := time.Duration(0)
	if cfg != nil {
		if b := strings.TrimSpace(cfg.Tools.MKVMerge); b != "" {
			binary = b
		}
		timeout = time.Duration(cfg.Tools.MuxTimeout) * time.Second
	}
	return &Muxer{
		run:     run,
		logger:  logging.NewComponentLogger(logger, "mux"),
		binary:  binary,
		timeout: timeout,
	}
}

// Attach muxes the requested tracks into a new container at
// req.OutputPath. All tracks go in through one mkvmerge invocation so
// ordering is exactly the request order.
func (m *Muxer) Attach(ctx context.Context, req Request) (Result, error) {
	video := strings.TrimSpace(req.VideoPath)
	output := strings.TrimSpace(req.OutputPath)
	if video == "" {
		return Result{}, services.Wrap(services.ErrInput, "mux", "attach", "video path is required", nil)
	}
	if output == "" {
		return Result{}, services.Wrap(services.ErrInput, "mux", "attach", "output path is required", nil)
	}
	if filepath.Clean(output) == filepath.Clean(video) {
		return Result{}, services.Wrap(services.ErrInput, "mux", "attach",
			"output path equals the source container, in-place muxing is not supported", nil)
	}
	if len(req.Tracks) == 0 {
		return Result{}, services.Wrap(services.ErrInput, "mux", "attach", "at least one subtitle track is required", nil)
	}
	if _, err := os.Stat(video); err != nil {
		return Result{}, services.Wrap(services.ErrInput, "mux", "attach", fmt.Sprintf("source container %s", video), err)
	}
	for _, track := range req.Tracks {
		if _, err := os.Stat(track.Path); err != nil {
			return Result{}, services.Wrap(services.ErrInput, "mux", "attach", fmt.Sprintf("subtitle file %s", track.Path), err)
		}
	}

	args := buildArgs(req, video, output)
	m.logger.Debug("executing mkvmerge",
		logging.String("video", video),
		logging.String("output", output),
		logging.Int("tracks", len(req.Tracks)))

	res, err := m.run.Run(ctx, runner.Command{
		Tool:    "mkvmerge",
		Binary:  m.binary,
		Args:    args,
		Timeout: m.timeout,
	})
	if err != nil {
		// mkvmerge exits 1 for warnings while still writing the output.
		if res.ExitCode == 1 && errors.Is(err, services.ErrExternalTool) && outputExists(output) {
			m.logger.Warn("mkvmerge finished with warnings",
				logging.String("output", output),
				logging.String("detail", strings.TrimSpace(res.Stderr)))
		} else {
			return Result{}, err
		}
	}

	if !outputExists(output) {
		return Result{}, services.Wrap(services.ErrExternalTool, "mux", "attach",
			fmt.Sprintf("mkvmerge did not produce %s", output), nil)
	}

	m.logger.Info("subtitle tracks muxed",
		logging.String("output", output),
		logging.Int("tracks_added", len(req.Tracks)))
	return Result{OutputPath: output, TracksAdded: len(req.Tracks)}, nil
}

// buildArgs constructs the mkvmerge argument list. Track metadata flags
// precede the file they apply to; "0:" addresses the single subtitle
// track inside each attached file.
func buildArgs(req Request, video, output string) []string {
	args := []string{"-o", output}
	if req.StripExistingSubs {
		args = append(args, "-S")
	}
	args = append(args, video)

	for _, track := range req.Tracks {
		lang3 := language.ToISO3(track.Language)
		name := strings.TrimSpace(track.Name)
		if name == "" {
			name = trackName(track.Language, track.Forced)
		}

		args = append(args, "--language", "0:"+lang3)
		args = append(args, "--track-name", "0:"+name)
		if track.Default {
			args = append(args, "--default-track", "0:yes")
		} else {
			args = append(args, "--default-track", "0:no")
		}
		if track.Forced {
			args = append(args, "--forced-track", "0:yes")
		}
		args = append(args, track.Path)
	}
	return args
}

// trackName derives a human-readable track name from the language tag.
func trackName(lang string, forced bool) string {
	name := language.DisplayName(lang)
	if forced {
		name += " (Forced)"
	}
	return name
}

func outputExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
