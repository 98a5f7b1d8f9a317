package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"subbub/internal/cue"
	"subbub/internal/inputs"
	"subbub/internal/logging"
	"subbub/internal/services"
)

// ShiftRequest applies a fixed delta to every cue of each input.
type ShiftRequest struct {
	Inputs    []string
	Delta     time.Duration
	OutputDir string
}

// Shift runs the shift transform over every resolved input. The delta
// is part of the ledger key so re-runs with a different delta are not
// skipped.
func (d *Driver) Shift(ctx context.Context, req ShiftRequest) (Summary, error) {
	units, err := d.resolver.ResolveAll(ctx, req.Inputs)
	if err != nil {
		return Summary{}, err
	}

	items := make([]Item, len(units))
	for i, unit := range units {
		output := d.outputPath(req.OutputDir, unit.Path, unitStem(unit)+".shifted"+unitExtension(unit))
		items[i] = Item{
			Index:     i,
			Name:      unit.Name,
			Operation: "shift:" + req.Delta.String(),
			Source:    unit.Identity(),
			Output:    output,
			Run: func(ctx context.Context, _ string) error {
				return d.shiftUnit(ctx, unit, req.Delta, output)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) shiftUnit(ctx context.Context, unit *inputs.Unit, delta time.Duration, output string) error {
	ctx = services.WithStage(ctx, "shift")
	doc, err := unit.Document(ctx)
	if err != nil {
		return err
	}
	shifted, clamped, err := cue.Shift(doc, delta)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "shift", unit.Name, err)
	}
	if clamped > 0 {
		first, _ := doc.Bounds()
		logging.WithContext(ctx, d.logger).Warn("cue starts clamped to zero",
			logging.Int("count", clamped),
			logging.Duration("first_start", first),
			logging.String("unit", unit.Name))
	}
	return writeDocument(shifted, output)
}

// StripRequest removes markup from cue text across each input.
type StripRequest struct {
	Inputs    []string
	OutputDir string
}

// Strip runs the markup strip transform over every resolved input.
func (d *Driver) Strip(ctx context.Context, req StripRequest) (Summary, error) {
	units, err := d.resolver.ResolveAll(ctx, req.Inputs)
	if err != nil {
		return Summary{}, err
	}

	items := make([]Item, len(units))
	for i, unit := range units {
		output := d.outputPath(req.OutputDir, unit.Path, unitStem(unit)+".stripped"+unitExtension(unit))
		items[i] = Item{
			Index:     i,
			Name:      unit.Name,
			Operation: "strip",
			Source:    unit.Identity(),
			Output:    output,
			Run: func(ctx context.Context, _ string) error {
				return d.stripUnit(ctx, unit, output)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) stripUnit(ctx context.Context, unit *inputs.Unit, output string) error {
	ctx = services.WithStage(ctx, "strip")
	doc, err := unit.Document(ctx)
	if err != nil {
		return err
	}
	stripped, err := cue.StripMarkup(doc)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "strip", unit.Name, err)
	}
	return writeDocument(stripped, output)
}

// ConvertRequest re-encodes each input into the target timed-text
// format.
type ConvertRequest struct {
	Inputs    []string
	Target    cue.Format
	OutputDir string
}

// Convert runs the format conversion over every resolved input.
func (d *Driver) Convert(ctx context.Context, req ConvertRequest) (Summary, error) {
	if req.Target != cue.FormatSRT && req.Target != cue.FormatVTT {
		return Summary{}, services.Wrap(services.ErrInput, "pipeline", "convert",
			fmt.Sprintf("unsupported target format %q", req.Target), nil)
	}
	units, err := d.resolver.ResolveAll(ctx, req.Inputs)
	if err != nil {
		return Summary{}, err
	}

	items := make([]Item, len(units))
	for i, unit := range units {
		output := d.outputPath(req.OutputDir, unit.Path, unitStem(unit)+"."+string(req.Target))
		items[i] = Item{
			Index:     i,
			Name:      unit.Name,
			Operation: "convert:" + string(req.Target),
			Source:    unit.Identity(),
			Output:    output,
			Run: func(ctx context.Context, _ string) error {
				return d.convertUnit(ctx, unit, req.Target, output)
			},
		}
	}
	return d.Execute(ctx, items)
}

func (d *Driver) convertUnit(ctx context.Context, unit *inputs.Unit, target cue.Format, output string) error {
	ctx = services.WithStage(ctx, "convert")
	if filepath.Clean(output) == filepath.Clean(unit.Path) {
		return services.Wrap(services.ErrInput, "pipeline", "convert",
			fmt.Sprintf("converting %s to %s would overwrite the source", unit.Path, target), nil)
	}
	doc, err := unit.Document(ctx)
	if err != nil {
		return err
	}
	converted, err := cue.Convert(doc, target)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "convert", unit.Name, err)
	}
	return writeDocument(converted, output)
}
