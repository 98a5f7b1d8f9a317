// Package main hosts the subbub CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into
// batch pipeline runs: subtitle alignment, dual-track merging, timing
// transforms, track extraction, and muxing. It centralizes
// configuration resolution, workspace setup, and structured logging so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
