package cue

import (
	"fmt"
	"html"
	"math"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// TimeTransform is the linear correction reported by the sync estimator:
// new_t = old_t * Scale + Offset.
type TimeTransform struct {
	Scale  float64
	Offset time.Duration
}

// Identity reports whether applying the transform would change nothing.
func (t TimeTransform) Identity() bool {
	return t.Scale == 1 && t.Offset == 0
}

// Valid reports whether the transform preserves cue ordering. A non-positive
// or non-finite scale would invert or collapse the timeline.
func (t TimeTransform) Valid() bool {
	return t.Scale > 0 && !math.IsNaN(t.Scale) && !math.IsInf(t.Scale, 0)
}

func (t TimeTransform) String() string {
	return fmt.Sprintf("scale=%.6f offset=%s", t.Scale, t.Offset)
}

// Apply maps a single timestamp through the transform. Results are quantized
// to milliseconds, the resolution of every supported output format.
func (t TimeTransform) Apply(d time.Duration) time.Duration {
	ns := float64(d)*t.Scale + float64(t.Offset)
	ms := math.Round(ns / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// ApplyTransform maps every cue timestamp through the transform and validates
// the result. The input document is not modified.
func ApplyTransform(d *Document, t TimeTransform) (*Document, error) {
	if d.IsImage() {
		return nil, ErrImageDocument
	}
	if !t.Valid() {
		return nil, fmt.Errorf("invalid transform %s", t)
	}
	out := d.Clone()
	for i := range out.Cues {
		out.Cues[i].Start = t.Apply(out.Cues[i].Start)
		out.Cues[i].End = t.Apply(out.Cues[i].End)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("transform %s produces invalid document: %w", t, err)
	}
	return out, nil
}

// Shift moves every cue by delta. Timestamps that would go negative are
// clamped to zero; the count of clamped cues is returned so callers can warn.
// Cue count, order, and text are preserved.
func Shift(d *Document, delta time.Duration) (*Document, int, error) {
	if d.IsImage() {
		return nil, 0, ErrImageDocument
	}
	out := d.Clone()
	clamped := 0
	for i := range out.Cues {
		start := out.Cues[i].Start + delta
		end := out.Cues[i].End + delta
		touched := false
		if start < 0 {
			start = 0
			touched = true
		}
		if end < 0 {
			end = 0
			touched = true
		}
		if touched {
			clamped++
		}
		out.Cues[i].Start = start
		out.Cues[i].End = end
	}
	return out, clamped, nil
}

// stripPolicy removes every HTML tag and is safe for concurrent use.
var stripPolicy = bluemonday.StrictPolicy()

// StripMarkup removes HTML markup (font, i, b, and friends) from cue text.
// Timing, count, and order are untouched. Entities introduced by
// sanitization are unescaped so plain text passes through byte-identical.
func StripMarkup(d *Document) (*Document, error) {
	if d.IsImage() {
		return nil, ErrImageDocument
	}
	out := d.Clone()
	for i := range out.Cues {
		out.Cues[i].Text = html.UnescapeString(stripPolicy.Sanitize(out.Cues[i].Text))
	}
	return out, nil
}

// Convert re-tags the document for a different output format. Cue count and
// timing are exact; the byte representation changes only at render time.
func Convert(d *Document, target Format) (*Document, error) {
	if d.IsImage() {
		return nil, ErrImageDocument
	}
	switch target {
	case FormatSRT, FormatVTT:
	default:
		return nil, fmt.Errorf("unsupported target format %q", target)
	}
	out := d.Clone()
	out.Format = target
	return out, nil
}
