// Package extract demuxes subtitle tracks from media containers and
// loads standalone subtitle files, normalizing everything to the cue
// document model. Extraction artifacts live in the run workspace and a
// per-run cache keeps repeated references to one track down to a single
// ffmpeg invocation.
package extract
