package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subbub/internal/cue"
	"subbub/internal/pipeline"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var videos string
	var outputDir string
	var language string

	cmd := &cobra.Command{
		Use:   "sync <subtitles>",
		Short: "Align subtitle timing against reference videos",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the subtitle file or directory to sync. Example: subbub sync ./subs --videos ./season1")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Sync(runCtx, pipeline.SyncRequest{
					Subtitles: strings.TrimSpace(args[0]),
					Videos:    strings.TrimSpace(videos),
					OutputDir: strings.TrimSpace(outputDir),
					Language:  language,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&videos, "videos", "v", "", "Video file or directory providing the timing reference")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each video)")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language tag for output names (default from config)")
	_ = cmd.MarkFlagRequired("videos")

	return cmd
}

func newDualCommand(ctx *commandContext) *cobra.Command {
	var videos string
	var outputDir string
	var primaryLanguage string
	var secondaryLanguage string
	var muxResult bool

	cmd := &cobra.Command{
		Use:   "dual <primary> <secondary>",
		Short: "Merge two subtitle sets into dual-language tracks",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("provide the primary and secondary subtitle sets. Example: subbub dual ./en ./ja --videos ./season1 -s ja")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Dual(runCtx, pipeline.DualRequest{
					Primary:           strings.TrimSpace(args[0]),
					Secondary:         strings.TrimSpace(args[1]),
					Videos:            strings.TrimSpace(videos),
					OutputDir:         strings.TrimSpace(outputDir),
					PrimaryLanguage:   primaryLanguage,
					SecondaryLanguage: secondaryLanguage,
					Mux:               muxResult,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&videos, "videos", "v", "", "Video file or directory providing the timing reference")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each video)")
	cmd.Flags().StringVar(&primaryLanguage, "primary-language", "", "Language tag for the primary set (default from config)")
	cmd.Flags().StringVarP(&secondaryLanguage, "secondary-language", "s", "", "Language tag for the secondary set (default from config)")
	cmd.Flags().BoolVar(&muxResult, "mux", false, "Also mux the merged track into a new container per video")
	_ = cmd.MarkFlagRequired("videos")

	return cmd
}

func newShiftCommand(ctx *commandContext) *cobra.Command {
	var delta time.Duration
	var outputDir string

	cmd := &cobra.Command{
		Use:   "shift <inputs...>",
		Short: "Shift subtitle timing by a fixed duration",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("provide the subtitle files or directories to shift. Example: subbub shift ./subs --by 1.5s")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Shift(runCtx, pipeline.ShiftRequest{
					Inputs:    trimmedArgs(args),
					Delta:     delta,
					OutputDir: strings.TrimSpace(outputDir),
				})
			})
		},
	}

	cmd.Flags().DurationVarP(&delta, "by", "b", 0, "Signed offset to apply, e.g. 1.5s or -500ms")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each input)")
	_ = cmd.MarkFlagRequired("by")

	return cmd
}

func newStripCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "strip <inputs...>",
		Short: "Remove styling markup from subtitle text",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("provide the subtitle files or directories to strip. Example: subbub strip ./subs -o ./clean")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Strip(runCtx, pipeline.StripRequest{
					Inputs:    trimmedArgs(args),
					OutputDir: strings.TrimSpace(outputDir),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each input)")

	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var target string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "convert <inputs...>",
		Short: "Convert subtitles between SRT and WebVTT",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("provide the subtitle files or directories to convert. Example: subbub convert ./subs --to vtt")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Convert(runCtx, pipeline.ConvertRequest{
					Inputs:    trimmedArgs(args),
					Target:    cue.Format(strings.ToLower(strings.TrimSpace(target))),
					OutputDir: strings.TrimSpace(outputDir),
				})
			})
		},
	}

	cmd.Flags().StringVarP(&target, "to", "t", "", "Target format: srt or vtt")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each input)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func trimmedArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, strings.TrimSpace(arg))
	}
	return out
}
