// Package deps reports the availability of the external tools the
// pipeline shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"subbub/internal/config"
)

// Requirement defines an external tool subbub depends on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of one tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements returns the tool set for the configured binaries.
// ffsubsync and mkvmerge are optional: only the sync, dual, and mux
// commands need them, and the pure transforms run without any tools.
func Requirements(cfg *config.Config) []Requirement {
	var tools config.Tools
	if cfg != nil {
		tools = cfg.Tools
	}
	return []Requirement{
		{Name: "FFmpeg", Command: orDefault(tools.FFmpeg, "ffmpeg"), Description: "track extraction and format conversion"},
		{Name: "FFprobe", Command: orDefault(tools.FFprobe, "ffprobe"), Description: "container stream inspection"},
		{Name: "ffsubsync", Command: orDefault(tools.FFSubsync, "ffsubsync"), Description: "timing estimation (sync, dual)", Optional: true},
		{Name: "mkvmerge", Command: orDefault(tools.MKVMerge, "mkvmerge"), Description: "subtitle muxing (mux, dual --mux)", Optional: true},
	}
}

// Check evaluates the configured tool set.
func Check(cfg *config.Config) []Status {
	return CheckBinaries(Requirements(cfg))
}

// CheckBinaries evaluates the provided requirements and reports
// availability. Available tools carry the version banner the binary
// prints, when it prints one.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Version = probeVersion(resolved)
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional tools.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
