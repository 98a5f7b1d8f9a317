package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateTools() error {
	if err := ensurePositiveMap(map[string]int{
		"tools.probe_timeout":   c.Tools.ProbeTimeout,
		"tools.extract_timeout": c.Tools.ExtractTimeout,
		"tools.sync_timeout":    c.Tools.SyncTimeout,
		"tools.mux_timeout":     c.Tools.MuxTimeout,
	}); err != nil {
		return err
	}
	for key, value := range map[string]string{
		"tools.ffmpeg":    c.Tools.FFmpeg,
		"tools.ffprobe":   c.Tools.FFprobe,
		"tools.ffsubsync": c.Tools.FFSubsync,
		"tools.mkvmerge":  c.Tools.MKVMerge,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	if c.Workspace.Root == "" {
		return errors.New("workspace.root must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be >= 1")
	}
	if c.Pipeline.Retries < 0 {
		return errors.New("pipeline.retries must be >= 0")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.SyncedSuffix == "" {
		return errors.New("output.synced_suffix must be set")
	}
	if c.Output.DualSuffix == "" {
		return errors.New("output.dual_suffix must be set")
	}
	if c.Output.Language == "" {
		return errors.New("output.language must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
