// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names)
// are consolidated here so config normalization, track naming, and
// mkvmerge flags agree on one table.
package language
