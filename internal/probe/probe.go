package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"subbub/internal/config"
	"subbub/internal/runner"
	"subbub/internal/services"
)

// imageSubtitleCodecs lists ffprobe codec names for bitmap subtitle
// tracks. These carry no cue text and can only pass through the pipeline
// as opaque payloads.
var imageSubtitleCodecs = map[string]struct{}{
	"hdmv_pgs_subtitle": {},
	"dvd_subtitle":      {},
	"dvb_subtitle":      {},
	"xsub":              {},
}

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index       int         `json:"index"`
	CodecName   string      `json:"codec_name"`
	CodecType   string      `json:"codec_type"`
	Tags        Tags        `json:"tags"`
	Disposition Disposition `json:"disposition"`

	// TypeIndex is the zero-based ordinal among streams of the same
	// codec type, matching ffmpeg's s:N selector numbering.
	TypeIndex int `json:"-"`
}

// Tags captures the stream metadata tags the pipeline cares about.
type Tags struct {
	Language string `json:"language"`
	Title    string `json:"title"`
}

// Disposition holds the stream disposition flags relevant to muxing.
type Disposition struct {
	Default int `json:"default"`
	Forced  int `json:"forced"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Language returns the stream's language tag lowercased, or "und" when
// the container carries none.
func (s Stream) Language() string {
	lang := strings.ToLower(strings.TrimSpace(s.Tags.Language))
	if lang == "" {
		return "und"
	}
	return lang
}

// Title returns the stream's title tag, trimmed.
func (s Stream) Title() string {
	return strings.TrimSpace(s.Tags.Title)
}

// IsImage reports whether the stream is a bitmap subtitle codec.
func (s Stream) IsImage() bool {
	_, ok := imageSubtitleCodecs[strings.ToLower(strings.TrimSpace(s.CodecName))]
	return ok
}

// SubtitleStreams returns the subtitle streams in container order.
func (r Result) SubtitleStreams() []Stream {
	var subs []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "subtitle") {
			subs = append(subs, stream)
		}
	}
	return subs
}

// DurationSeconds returns the container duration in seconds, or 0 when
// unavailable.
func (r Result) DurationSeconds() float64 {
	cleaned := strings.TrimSpace(r.Format.Duration)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// Prober inspects media containers with ffprobe.
type Prober struct {
	run     *runner.Runner
	binary  string
	timeout time.Duration
}

// New constructs a Prober bound to the configured ffprobe binary.
func New(run *runner.Runner, cfg *config.Config) *Prober {
	binary := "ffprobe"
	timeout := time.Duration(0)
	if cfg != nil {
		if b := strings.TrimSpace(cfg.Tools.FFprobe); b != "" {
			binary = b
		}
		timeout = time.Duration(cfg.Tools.ProbeTimeout) * time.Second
	}
	return &Prober{run: run, binary: binary, timeout: timeout}
}

// Inspect executes ffprobe against the provided path and decodes the
// JSON response. Stream ordinals per codec type are assigned after
// decoding so callers can address subtitle tracks by s:N index.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrInput, "probe", "inspect", "empty path", nil)
	}

	res, err := p.run.Run(ctx, runner.Command{
		Tool:    "ffprobe",
		Binary:  p.binary,
		Args:    []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path},
		Timeout: p.timeout,
	})
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal([]byte(res.Stdout), &result); err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "probe", "inspect", fmt.Sprintf("decode ffprobe output for %s", path), err)
	}

	typeCounts := make(map[string]int)
	for i := range result.Streams {
		codecType := strings.ToLower(strings.TrimSpace(result.Streams[i].CodecType))
		result.Streams[i].TypeIndex = typeCounts[codecType]
		typeCounts[codecType]++
	}
	return result, nil
}
