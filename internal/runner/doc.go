// Package runner executes external tools (ffmpeg, ffprobe, ffsubsync,
// mkvmerge) with per-invocation timeouts and maps process failures onto the
// pipeline error taxonomy.
//
// Every subprocess in the repository launches through a Runner so timeout
// scoping, output capture, and failure classification behave identically for
// every tool. The Executor seam swaps the real os/exec launcher for
// recordings in tests.
package runner
