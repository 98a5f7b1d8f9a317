// Package combine merges two aligned subtitle documents into one dual-channel
// document, the precursor of a dual-subtitle track.
package combine

import (
	"errors"
	"sort"

	"subbub/internal/cue"
)

// Documents unions an aligned primary and secondary document into a dual
// document. Primary cues keep the default display position; secondary cues
// are tagged so renderers pin them to the top of the frame. Inputs must be
// single-channel text documents that are already aligned to the same
// timeline; combine neither deduplicates nor clips.
func Documents(primary, secondary *cue.Document) (*cue.Document, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("combine requires two documents")
	}
	if primary.IsImage() || secondary.IsImage() {
		return nil, cue.ErrImageDocument
	}
	if primary.Dual || secondary.Dual {
		return nil, cue.ErrChannelConflict
	}

	merged := make([]cue.Cue, 0, len(primary.Cues)+len(secondary.Cues))
	for _, c := range primary.Cues {
		c.Channel = cue.ChannelPrimary
		merged = append(merged, c)
	}
	for _, c := range secondary.Cues {
		c.Channel = cue.ChannelSecondary
		merged = append(merged, c)
	}

	// Stable sort keeps primary before secondary on equal start times.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})

	format := primary.Format
	if format == "" {
		format = cue.FormatSRT
	}
	out := &cue.Document{Cues: merged, Format: format, Kind: cue.KindText, Dual: true}
	out.Renumber()
	return out, nil
}
