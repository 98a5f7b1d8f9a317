// Package mux attaches subtitle tracks to video containers through
// mkvmerge. Every mux writes a fresh output container; the source video
// is never modified.
package mux
