package deps

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// versionArgs maps tool base names to the flag that prints a version
// banner. ffmpeg and ffprobe reject the double-dash form.
var versionArgs = map[string][]string{
	"ffmpeg":    {"-version"},
	"ffprobe":   {"-version"},
	"ffsubsync": {"--version"},
	"mkvmerge":  {"--version"},
}

// probeVersion runs the tool's version flag and returns the first
// banner line. Failures degrade to an empty version; availability is
// already established by the PATH lookup.
func probeVersion(command string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(command), filepath.Ext(command)))
	args, ok := versionArgs[base]
	if !ok {
		args = []string{"--version"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, command, args...).CombinedOutput()
	line := firstLine(string(out))
	if err != nil && line == "" {
		return ""
	}
	return line
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
