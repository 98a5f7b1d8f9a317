package align

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"subbub/internal/config"
	"subbub/internal/cue"
	"subbub/internal/logging"
	"subbub/internal/runner"
	"subbub/internal/services"
)

// Report patterns for estimators that log their correction as plain
// text rather than a JSON summary line.
var (
	offsetPattern = regexp.MustCompile(`offset seconds:\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	scalePattern  = regexp.MustCompile(`(?:framerate scale factor|speed factor):\s*(-?[0-9]+(?:\.[0-9]+)?)`)
)

// Engine aligns subtitle documents against a reference by running the
// external estimator and applying its reported linear transform. The
// estimator writes its own synced file too, but the parsed transform is
// authoritative: applying it in-process keeps the result under the cue
// model's invariant checks.
type Engine struct {
	run     *runner.Runner
	logger  *slog.Logger
	binary  string
	timeout time.Duration
}

// New constructs an Engine bound to the configured estimator binary.
func New(run *runner.Runner, cfg *config.Config, logger *slog.Logger) *Engine {
	binary := "ffsubsync"
	timeout := time.Duration(0)
	if cfg != nil {
		if b := strings.TrimSpace(cfg.Tools.FFSubsync); b != "" {
			binary = b
		}
		timeout = time.Duration(cfg.Tools.SyncTimeout) * time.Second
	}
	return &Engine{
		run:     run,
		logger:  logging.NewComponentLogger(logger, "align"),
		binary:  binary,
		timeout: timeout,
	}
}

// Sync estimates the timing correction for target against the reference
// (a media file or a rendered subtitle document) and returns the
// transformed document plus the transform itself. The reference is
// never modified and the target document is not mutated; scratch files
// land in dir, which callers scope per pair.
func (e *Engine) Sync(ctx context.Context, dir string, target *cue.Document, referencePath string) (*cue.Document, cue.TimeTransform, error) {
	if target == nil {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrInput, "align", "sync", "nil target document", nil)
	}
	if target.IsImage() {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrInput, "align", "sync", "bitmap subtitles cannot be timed against a reference", nil)
	}
	referencePath = strings.TrimSpace(referencePath)
	if referencePath == "" {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrInput, "align", "sync", "empty reference path", nil)
	}

	targetPath := filepath.Join(dir, "target.unsynced.srt")
	if err := os.WriteFile(targetPath, cue.RenderSRT(target), 0o644); err != nil {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrIO, "align", "sync", "write estimator input", err)
	}
	outputPath := filepath.Join(dir, "target.synced.srt")

	res, err := e.run.Run(ctx, runner.Command{
		Tool:    "ffsubsync",
		Binary:  e.binary,
		Args:    []string{referencePath, "-i", targetPath, "-o", outputPath},
		Timeout: e.timeout,
	})
	if err != nil {
		return nil, cue.TimeTransform{}, err
	}

	transform, ok := parseReport(res.Stdout + "\n" + res.Stderr)
	if !ok {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrExternalTool, "align", "sync", "estimator reported no usable transform", nil)
	}
	if !transform.Valid() {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrInvariant, "align", "sync", fmt.Sprintf("estimator reported %s", transform), nil)
	}

	synced, err := cue.ApplyTransform(target, transform)
	if err != nil {
		return nil, cue.TimeTransform{}, services.Wrap(services.ErrInvariant, "align", "sync", "estimated transform corrupts cue timing", err)
	}

	e.logger.Info("subtitles aligned",
		logging.String("reference", referencePath),
		logging.Duration("offset", transform.Offset),
		logging.Float64("scale", transform.Scale),
		logging.Int("cues", len(synced.Cues)))
	return synced, transform, nil
}

// parseReport extracts the reported transform from estimator output.
// A JSON summary line wins over the human-readable log lines; scale
// defaults to 1 when only an offset is reported.
func parseReport(output string) (cue.TimeTransform, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] != '{' || !gjson.Valid(line) {
			continue
		}
		offset := gjson.Get(line, "offset_seconds")
		if !offset.Exists() {
			continue
		}
		transform := cue.TimeTransform{Scale: 1, Offset: secondsToDuration(offset.Float())}
		if scale := gjson.Get(line, "scale_factor"); scale.Exists() {
			transform.Scale = scale.Float()
		}
		return transform, true
	}

	offsetMatch := offsetPattern.FindStringSubmatch(output)
	if offsetMatch == nil {
		return cue.TimeTransform{}, false
	}
	offset, err := strconv.ParseFloat(offsetMatch[1], 64)
	if err != nil {
		return cue.TimeTransform{}, false
	}
	transform := cue.TimeTransform{Scale: 1, Offset: secondsToDuration(offset)}
	if scaleMatch := scalePattern.FindStringSubmatch(output); scaleMatch != nil {
		if scale, err := strconv.ParseFloat(scaleMatch[1], 64); err == nil {
			transform.Scale = scale
		}
	}
	return transform, true
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds*1000)) * time.Millisecond
}
