package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subbub/internal/cue"
	"subbub/internal/inputs"
	"subbub/internal/services"
)

// outputPath decides where a result lands: the request's directory,
// else the configured output directory, else alongside the source.
func (d *Driver) outputPath(requested, source, name string) string {
	dir := strings.TrimSpace(requested)
	if dir == "" {
		dir = strings.TrimSpace(d.cfg.Output.Directory)
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, name)
}

// language picks the request's language tag, falling back to the
// configured default.
func (d *Driver) language(requested string) string {
	if v := strings.TrimSpace(requested); v != "" {
		return strings.ToLower(v)
	}
	return d.cfg.Output.Language
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// unitStem names transform outputs: file units keep their stem,
// container units gain the track ordinal.
func unitStem(unit *inputs.Unit) string {
	if unit.ContainerBacked() {
		return fmt.Sprintf("%s.s%d", stemOf(unit.Path), unit.Track)
	}
	return stemOf(unit.Path)
}

// unitExtension is the extension a rendered document keeps: VTT sources
// stay VTT, everything else renders to SRT.
func unitExtension(unit *inputs.Unit) string {
	if !unit.ContainerBacked() && strings.EqualFold(filepath.Ext(unit.Path), ".vtt") {
		return ".vtt"
	}
	return ".srt"
}

// writeDocument renders doc in its own format and writes it to path,
// creating parent directories as needed.
func writeDocument(doc *cue.Document, path string) error {
	data, err := cue.Render(doc)
	if err != nil {
		return services.Wrap(services.ErrInvariant, "pipeline", "write", fmt.Sprintf("render %s", path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrIO, "pipeline", "write", fmt.Sprintf("create %s", filepath.Dir(path)), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "pipeline", "write", fmt.Sprintf("write %s", path), err)
	}
	return nil
}
