package config

const (
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultFFSubsyncBinary = "ffsubsync"
	defaultMKVMergeBinary  = "mkvmerge"
	defaultProbeTimeout    = 60
	defaultExtractTimeout  = 300
	defaultSyncTimeout     = 900
	defaultMuxTimeout      = 600
	defaultWorkers         = 2
	defaultRetries         = 0
	defaultSyncedSuffix    = ".synced"
	defaultDualSuffix      = ".dual"
	defaultLanguage        = "en"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFmpeg:         defaultFFmpegBinary,
			FFprobe:        defaultFFprobeBinary,
			FFSubsync:      defaultFFSubsyncBinary,
			MKVMerge:       defaultMKVMergeBinary,
			ProbeTimeout:   defaultProbeTimeout,
			ExtractTimeout: defaultExtractTimeout,
			SyncTimeout:    defaultSyncTimeout,
			MuxTimeout:     defaultMuxTimeout,
		},
		Workspace: Workspace{
			Root: defaultWorkspaceRoot(),
		},
		Pipeline: Pipeline{
			Workers: defaultWorkers,
			Retries: defaultRetries,
		},
		Output: Output{
			SyncedSuffix: defaultSyncedSuffix,
			DualSuffix:   defaultDualSuffix,
			Language:     defaultLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
