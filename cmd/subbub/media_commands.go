package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"subbub/internal/pipeline"
	"subbub/internal/probe"
	"subbub/internal/runner"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var track int
	var outputDir string

	cmd := &cobra.Command{
		Use:   "extract <videos>",
		Short: "Extract subtitle tracks from media containers",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the video file or directory to extract from. Example: subbub extract ./season1 --track 0")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Extract(runCtx, pipeline.ExtractRequest{
					Videos:    strings.TrimSpace(args[0]),
					Track:     track,
					OutputDir: strings.TrimSpace(outputDir),
				})
			})
		},
	}

	cmd.Flags().IntVarP(&track, "track", "t", -1, "Subtitle track ordinal to extract (default: the container's sole track)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each video)")

	return cmd
}

func newMuxCommand(ctx *commandContext) *cobra.Command {
	var subtitles string
	var language string
	var outputDir string
	var replace bool
	var stripExisting bool

	cmd := &cobra.Command{
		Use:   "mux <videos>",
		Short: "Mux subtitle files into media containers",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the video file or directory to mux into. Example: subbub mux ./season1 --subtitles ./subs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.runBatch(cmd, func(runCtx context.Context, driver *pipeline.Driver) (pipeline.Summary, error) {
				return driver.Mux(runCtx, pipeline.MuxRequest{
					Videos:        strings.TrimSpace(args[0]),
					Subtitles:     strings.TrimSpace(subtitles),
					Language:      language,
					OutputDir:     strings.TrimSpace(outputDir),
					Replace:       replace,
					StripExisting: stripExisting,
				})
			})
		},
	}

	cmd.Flags().StringVarP(&subtitles, "subtitles", "s", "", "Subtitle file or directory to attach")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language tag for the attached tracks (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: alongside each video)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace each source video with the muxed container")
	cmd.Flags().BoolVar(&stripExisting, "strip-existing", false, "Drop the video's existing subtitle tracks")
	_ = cmd.MarkFlagRequired("subtitles")

	return cmd
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracks <video>",
		Short: "List the subtitle tracks in a media container",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the video file to inspect. Example: subbub tracks movie.mkv")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(args[0])
			prober := probe.New(runner.New(logger), cfg)
			result, err := prober.Inspect(cmd.Context(), path)
			if err != nil {
				return err
			}

			subs := result.SubtitleStreams()
			if len(subs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no subtitle tracks in %s\n", path)
				return nil
			}

			rows := make([][]string, 0, len(subs))
			for _, stream := range subs {
				kind := "text"
				if stream.IsImage() {
					kind = "image"
				}
				rows = append(rows, []string{
					fmt.Sprintf("s:%d", stream.TypeIndex),
					stream.CodecName,
					stream.Language(),
					stream.Title(),
					yesNo(stream.Disposition.Default == 1),
					yesNo(stream.Disposition.Forced == 1),
					kind,
				})
			}

			caption := fmt.Sprintf("%s: %d streams", filepath.Base(path), result.Format.NBStreams)
			if secs := result.DurationSeconds(); secs > 0 {
				duration := time.Duration(secs * float64(time.Second)).Round(time.Second)
				caption = fmt.Sprintf("%s, %s", caption, duration)
			}
			headers := []string{"Track", "Codec", "Language", "Title", "Default", "Forced", "Kind"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderCaptionedTable(headers, rows, aligns, caption))
			return nil
		},
	}

	return cmd
}
