package config

import (
	"fmt"
	"strings"

	"subbub/internal/language"
	"subbub/internal/textutil"
)

func (c *Config) normalize() error {
	c.normalizeTools()
	if err := c.normalizeWorkspace(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizePipeline()
	return c.normalizeLogging()
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.FFSubsync = strings.TrimSpace(c.Tools.FFSubsync)
	if c.Tools.FFSubsync == "" {
		c.Tools.FFSubsync = defaultFFSubsyncBinary
	}
	c.Tools.MKVMerge = strings.TrimSpace(c.Tools.MKVMerge)
	if c.Tools.MKVMerge == "" {
		c.Tools.MKVMerge = defaultMKVMergeBinary
	}
	if c.Tools.ProbeTimeout <= 0 {
		c.Tools.ProbeTimeout = defaultProbeTimeout
	}
	if c.Tools.ExtractTimeout <= 0 {
		c.Tools.ExtractTimeout = defaultExtractTimeout
	}
	if c.Tools.SyncTimeout <= 0 {
		c.Tools.SyncTimeout = defaultSyncTimeout
	}
	if c.Tools.MuxTimeout <= 0 {
		c.Tools.MuxTimeout = defaultMuxTimeout
	}
}

func (c *Config) normalizeWorkspace() error {
	var err error
	if strings.TrimSpace(c.Workspace.Root) == "" {
		c.Workspace.Root = defaultWorkspaceRoot()
	}
	if c.Workspace.Root, err = expandPath(c.Workspace.Root); err != nil {
		return fmt.Errorf("workspace.root: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() error {
	var err error
	c.Output.Directory = strings.TrimSpace(c.Output.Directory)
	if c.Output.Directory != "" {
		if c.Output.Directory, err = expandPath(c.Output.Directory); err != nil {
			return fmt.Errorf("output.directory: %w", err)
		}
	}
	// Suffixes become output filename segments; strip anything that would
	// change the path.
	c.Output.SyncedSuffix = textutil.SanitizeFileName(c.Output.SyncedSuffix)
	if c.Output.SyncedSuffix == "" {
		c.Output.SyncedSuffix = defaultSyncedSuffix
	}
	c.Output.DualSuffix = textutil.SanitizeFileName(c.Output.DualSuffix)
	if c.Output.DualSuffix == "" {
		c.Output.DualSuffix = defaultDualSuffix
	}
	c.Output.Language = normalizeLanguage(c.Output.Language)
	if c.Output.Language == "" {
		c.Output.Language = defaultLanguage
	}
	c.Output.SecondaryLanguage = normalizeLanguage(c.Output.SecondaryLanguage)
	return nil
}

// normalizeLanguage maps any recognized spelling ("JPN", "japanese") to
// its ISO 639-1 code, keeping unrecognized codes lowercased as-is.
func normalizeLanguage(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	if mapped := language.ToISO2(value); mapped != "" {
		return mapped
	}
	return value
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.Retries < 0 {
		c.Pipeline.Retries = defaultRetries
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.File != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}
