package cue

import (
	"errors"
	"fmt"
	"time"
)

// Format identifies a timed-text serialization.
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
)

// Kind distinguishes text documents from image-based subtitle streams that
// carry no parseable cues.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Channel tags a cue with its display channel in a dual-subtitle document.
type Channel string

const (
	ChannelNone      Channel = ""
	ChannelPrimary   Channel = "primary"
	ChannelSecondary Channel = "secondary"
)

var (
	// ErrImageDocument is returned when a text-only operation receives an
	// image-based document.
	ErrImageDocument = errors.New("image-based document has no text cues")
	// ErrChannelConflict is returned when combine receives a document that
	// already carries channel tags.
	ErrChannelConflict = errors.New("document already carries channel tags")
)

// Cue is a single subtitle event. Timestamps are absolute offsets from the
// start of the media.
type Cue struct {
	Index   int
	Start   time.Duration
	End     time.Duration
	Text    string
	Channel Channel
}

// Document is an ordered collection of cues plus enough metadata to render it
// back out. Image-based tracks are modeled as a Document with Kind KindImage
// and the raw stream path in Payload; they flow through extraction and muxing
// untouched but are rejected by text transforms.
type Document struct {
	Cues   []Cue
	Format Format
	Kind   Kind
	// Payload is the path of the raw demuxed stream for image documents.
	Payload string
	// Dual marks a combined document whose cues carry channel tags.
	Dual bool
}

// NewTextDocument builds a text document in the given format.
func NewTextDocument(format Format, cues []Cue) *Document {
	return &Document{Cues: cues, Format: format, Kind: KindText}
}

// NewImageDocument wraps a raw demuxed subtitle stream that cannot be parsed
// into cues.
func NewImageDocument(payload string) *Document {
	return &Document{Kind: KindImage, Payload: payload}
}

// IsImage reports whether the document is image-based.
func (d *Document) IsImage() bool {
	return d != nil && d.Kind == KindImage
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Format: d.Format, Kind: d.Kind, Payload: d.Payload, Dual: d.Dual}
	if d.Cues != nil {
		out.Cues = make([]Cue, len(d.Cues))
		copy(out.Cues, d.Cues)
	}
	return out
}

// Renumber reassigns 1-based cue indices in document order.
func (d *Document) Renumber() {
	for i := range d.Cues {
		d.Cues[i].Index = i + 1
	}
}

// Bounds returns the first cue start and the last cue end. Zero values are
// returned for empty documents.
func (d *Document) Bounds() (time.Duration, time.Duration) {
	if d == nil || len(d.Cues) == 0 {
		return 0, 0
	}
	first := d.Cues[0].Start
	var last time.Duration
	for _, c := range d.Cues {
		if c.Start < first {
			first = c.Start
		}
		if c.End > last {
			last = c.End
		}
	}
	return first, last
}

// Validate checks the document invariants: non-negative timestamps, end at or
// after start, cues ordered by start time, and no two cues on the same
// channel sharing a start time. An empty document is valid.
func (d *Document) Validate() error {
	if d == nil {
		return errors.New("nil document")
	}
	if d.Kind == KindImage {
		if len(d.Cues) > 0 {
			return errors.New("image document must not carry cues")
		}
		return nil
	}
	lastStart := map[Channel]time.Duration{}
	seen := map[Channel]bool{}
	var prev time.Duration
	for i, c := range d.Cues {
		if c.Start < 0 {
			return fmt.Errorf("cue %d: negative start %s", i+1, c.Start)
		}
		if c.End < c.Start {
			return fmt.Errorf("cue %d: end %s before start %s", i+1, c.End, c.Start)
		}
		if i > 0 && c.Start < prev {
			return fmt.Errorf("cue %d: start %s before previous start %s", i+1, c.Start, prev)
		}
		if seen[c.Channel] && c.Start == lastStart[c.Channel] {
			return fmt.Errorf("cue %d: duplicate start %s on channel %q", i+1, c.Start, c.Channel)
		}
		seen[c.Channel] = true
		lastStart[c.Channel] = c.Start
		prev = c.Start
	}
	return nil
}

// Parse decodes raw timed-text data in the given format.
func Parse(format Format, data []byte) (*Document, error) {
	switch format {
	case FormatSRT:
		return ParseSRT(data)
	case FormatVTT:
		return ParseVTT(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Render serializes the document according to its Format field.
func Render(d *Document) ([]byte, error) {
	if d == nil {
		return nil, errors.New("nil document")
	}
	if d.IsImage() {
		return nil, ErrImageDocument
	}
	switch d.Format {
	case FormatSRT:
		return RenderSRT(d), nil
	case FormatVTT:
		return RenderVTT(d), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", d.Format)
	}
}
