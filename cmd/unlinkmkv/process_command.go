package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"unlinkmkv/internal/preflight"
	"unlinkmkv/internal/probecache"
	"unlinkmkv/internal/processor"
	"unlinkmkv/internal/segments"
	"unlinkmkv/internal/timecode"
	"unlinkmkv/internal/workspace"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var (
		outDir             string
		workDir            string
		edition            int
		fixVideo           bool
		fixAudio           bool
		fixSubtitles       bool
		playResX           string
		playResY           string
		ignoreDefaultFlag  bool
		ignoreSegmentStart bool
		noChapters         bool
		noCleanup          bool
		noCache            bool
	)

	cmd := &cobra.Command{
		Use:   "process [paths...]",
		Short: "Rebuild segment-linked files into self-contained ones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Flags override the file configuration only when given.
			flags := cmd.Flags()
			if flags.Changed("outdir") {
				cfg.Paths.OutDir = outDir
			}
			if flags.Changed("workdir") {
				cfg.Paths.WorkDir = workDir
			}
			if flags.Changed("edition") {
				cfg.Processing.Edition = edition
			}
			if flags.Changed("fix-video") {
				cfg.Processing.FixVideo = fixVideo
			}
			if flags.Changed("fix-audio") {
				cfg.Processing.FixAudio = fixAudio
			}
			if flags.Changed("fix-subtitles") {
				cfg.Processing.FixSubtitles = fixSubtitles
			}
			if flags.Changed("play-res-x") {
				cfg.Processing.PlayResX = playResX
			}
			if flags.Changed("play-res-y") {
				cfg.Processing.PlayResY = playResY
			}
			if ignoreDefaultFlag {
				cfg.Processing.IgnoreDefaultFlag = true
			}
			if ignoreSegmentStart {
				cfg.Processing.IgnoreSegmentStart = true
			}
			if noChapters {
				cfg.Processing.Chapters = false
			}
			if noCleanup {
				cfg.Processing.Cleanup = false
			}
			if noCache {
				cfg.ProbeCache.Enabled = false
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			tools, err := ctx.newTools(logger)
			if err != nil {
				return err
			}

			checks := preflight.RunAll(cfg)
			if !preflight.AllPassed(checks) {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
				return fmt.Errorf("preflight checks failed")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ws, err := workspace.Open(cfg.Paths.WorkDir, logger)
			if err != nil {
				return err
			}
			defer ws.Close()

			var probe segments.ProbeFunc = func(ctx context.Context, file string) (string, timecode.Timecode, error) {
				info, err := tools.Identify(ctx, file)
				if err != nil {
					return "", 0, err
				}
				return info.UID, info.Duration, nil
			}
			if cfg.ProbeCache.Enabled {
				store, err := probecache.Open(cfg.ProbeCache.Path)
				if err != nil {
					logger.Warn("probe cache unavailable, probing directly")
				} else {
					defer store.Close()
					probe = probecache.WrapProbe(store, probe)
				}
			}

			proc := processor.New(cfg, tools, ws, probe, logger)

			files, err := processor.ExpandInputs(args, proc.SkipExistingOutputs())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .mkv files found in the given paths")
			}

			results := proc.ProcessAll(runCtx, files)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, result := range results {
				fmt.Fprintln(out, renderResultLine(result, colorize))
			}
			fmt.Fprintln(out, processor.Summarize(results))

			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "", "Directory for rebuilt files")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Scratch directory for intermediate files")
	cmd.Flags().IntVar(&edition, "edition", 1, "Chapter edition to keep (1-based)")
	cmd.Flags().BoolVar(&fixVideo, "fix-video", false, "Re-encode video of rebuilt parts")
	cmd.Flags().BoolVar(&fixAudio, "fix-audio", false, "Re-encode audio of rebuilt parts")
	cmd.Flags().BoolVar(&fixSubtitles, "fix-subtitles", true, "Unify ASS subtitle styles across parts")
	cmd.Flags().StringVar(&playResX, "play-res-x", "", "Force subtitle horizontal resolution")
	cmd.Flags().StringVar(&playResY, "play-res-y", "", "Force subtitle vertical resolution")
	cmd.Flags().BoolVar(&ignoreDefaultFlag, "ignore-default-flag", false, "Keep non-default chapter editions")
	cmd.Flags().BoolVar(&ignoreSegmentStart, "ignore-segment-start", false, "Include external segments regardless of chapter start")
	cmd.Flags().BoolVar(&noChapters, "no-chapters", false, "Drop chapters from the rebuilt file")
	cmd.Flags().BoolVar(&noCleanup, "no-cleanup", false, "Keep the scratch directory after processing")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the probe cache")

	return cmd
}

func renderResultLine(result processor.Result, colorize bool) string {
	kind := statusOK
	var message string
	switch {
	case result.Err != nil:
		kind = statusError
		message = fmt.Sprintf("%s: %v", result.Status, result.Err)
	case !result.Linked:
		kind = statusInfo
		message = "no segment links"
	default:
		message = fmt.Sprintf("%s (%d parts, %s)", result.Output, result.Parts,
			result.Elapsed.Round(time.Millisecond))
	}
	return renderStatusLine(filepath.Base(result.File), kind, message, colorize)
}

func countFailed(results []processor.Result) int {
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	return failed
}
