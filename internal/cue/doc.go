// Package cue models subtitle tracks as ordered cue collections and owns
// every pure transform the pipeline applies to them.
//
// A Document is format-agnostic: SRT and WebVTT parse into the same cue
// slice, and Render serializes back according to the Format tag, so shift,
// strip, sync, and combine operate once rather than per format. Image-based
// tracks (PGS and friends) are represented as opaque payload documents that
// survive extraction and muxing but reject text transforms.
//
// All transforms return new documents; inputs are never mutated.
package cue
