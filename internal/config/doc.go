// Package config loads, normalizes, and validates subbub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from ~/.config/subbub/config.toml or a
// project-local subbub.toml. The Config type centralizes every knob the CLI
// needs: external tool binaries and timeouts, workspace placement, pipeline
// concurrency, and output naming.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
