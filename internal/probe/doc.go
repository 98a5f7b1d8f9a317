// Package probe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties with per-type ordinals
//
// The pipeline uses it to enumerate subtitle tracks, classify text
// versus bitmap codecs, and read language and disposition tags for
// muxing.
package probe
