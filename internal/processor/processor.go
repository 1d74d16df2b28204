package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"unlinkmkv/internal/chapters"
	"unlinkmkv/internal/config"
	"unlinkmkv/internal/encode"
	"unlinkmkv/internal/fileutil"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/mkvtool"
	"unlinkmkv/internal/preflight"
	"unlinkmkv/internal/segments"
	"unlinkmkv/internal/services"
	"unlinkmkv/internal/timecode"
	"unlinkmkv/internal/timeline"
	"unlinkmkv/internal/workspace"
)

// Processor rebuilds segment-linked files.
type Processor struct {
	cfg    *config.Config
	tools  *mkvtool.Tools
	ws     *workspace.Workspace
	probe  segments.ProbeFunc
	logger *slog.Logger

	// registries caches one segment registry per scanned directory.
	registries map[string]*segments.Registry
}

// Result is the outcome for one input file.
type Result struct {
	File    string
	Linked  bool
	Status  string
	Output  string
	Parts   int
	Splits  int
	Elapsed time.Duration
	Err     error
}

// New wires a processor from its collaborators. probe defaults to the
// mkvmerge identify call when nil.
func New(cfg *config.Config, tools *mkvtool.Tools, ws *workspace.Workspace, probe segments.ProbeFunc, logger *slog.Logger) *Processor {
	if probe == nil {
		probe = func(ctx context.Context, file string) (string, timecode.Timecode, error) {
			info, err := tools.Identify(ctx, file)
			if err != nil {
				return "", 0, err
			}
			return info.UID, info.Duration, nil
		}
	}
	return &Processor{
		cfg:        cfg,
		tools:      tools,
		ws:         ws,
		probe:      probe,
		logger:     logging.NewComponentLogger(logger, "processor"),
		registries: make(map[string]*segments.Registry),
	}
}

// ProcessFile rebuilds one file. Unlinked files come back with Linked false
// and no error.
func (p *Processor) ProcessFile(ctx context.Context, file string) Result {
	started := time.Now()
	result := Result{File: file}

	err := p.process(ctx, file, &result)
	result.Err = err
	result.Status = services.Classify(err)
	if !result.Linked && err == nil {
		result.Status = "not-linked"
	}
	result.Elapsed = time.Since(started)
	return result
}

func (p *Processor) process(ctx context.Context, file string, result *Result) error {
	logger := p.logger.With(logging.String(logging.FieldInput, filepath.Base(file)))
	logger.Info("processing", logging.String("file", file))

	chapterXML, err := p.tools.ExtractChapters(ctx, file)
	if err != nil {
		return err
	}
	if !chapters.HasSegmentLinks(chapterXML) {
		logger.Info("file has no segment links, skipping")
		return nil
	}
	result.Linked = true

	doc, err := chapters.Parse([]byte(chapterXML))
	if err != nil {
		return err
	}
	if !p.cfg.Processing.IgnoreDefaultFlag {
		if dropped := doc.DropNonDefaultEditions(); dropped > 0 {
			logger.Debug("dropped non-default editions", logging.Int("count", dropped))
		}
	}
	if err := doc.SelectEdition(p.cfg.Processing.Edition); err != nil {
		return err
	}
	atoms, err := doc.Atoms(1)
	if err != nil {
		return err
	}

	registry, err := p.registryFor(ctx, filepath.Dir(file), logger)
	if err != nil {
		return err
	}
	resolve := func(uid string) (segments.Entry, bool) {
		return registry.ResolveFor(uid, file)
	}

	plan, err := timeline.Build(atoms, resolve, logger)
	if err != nil {
		return err
	}
	doc.ClearOrderedFlag()
	result.Splits = len(plan.SplitPoints)

	run, err := p.ws.NewRun()
	if err != nil {
		return err
	}
	cleanup := p.cfg.Processing.Cleanup
	defer func() {
		if cleanup {
			run.Cleanup()
		}
	}()
	if info, statErr := os.Stat(file); statErr == nil {
		if check := preflight.CheckScratchSpace(run.Dir, info.Size()); !check.Passed {
			return services.Wrap(services.ErrValidation, "processor", "scratch space", check.Detail, nil)
		}
	}

	chapterBytes, err := doc.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(run.ChaptersFile(), chapterBytes, 0o644); err != nil {
		return fmt.Errorf("write flattened chapters: %w", err)
	}

	// Metadata is scraped before any rewriting so the rebuilt file can be
	// stamped with the original title and track properties.
	infoOutput, err := p.tools.Info(ctx, file)
	if err != nil {
		return err
	}
	edits := mkvtool.ParseEdits(infoOutput)

	source, err := p.ensureSplittable(ctx, run, file, infoOutput, logger)
	if err != nil {
		return err
	}
	for i, seg := range plan.Segments {
		if !seg.External {
			continue
		}
		converted, err := p.ensureSplittableFile(ctx, run, seg.File, logger)
		if err != nil {
			return err
		}
		plan.Segments[i].File = converted
	}

	var slices []string
	if plan.NeedsSplit() {
		logger.Info("splitting source",
			logging.Int("points", len(plan.SplitPoints)),
			logging.String("pattern", run.SplitPattern()))
		if err := p.tools.Split(ctx, source, plan.SplitPoints, run.SplitPattern()); err != nil {
			return err
		}
		for i := 1; i <= len(plan.SplitPoints)+1; i++ {
			slice := run.SplitSlice(i)
			if _, statErr := os.Stat(slice); statErr != nil {
				break
			}
			slices = append(slices, slice)
		}
	}

	parts, err := plan.AssignParts(source, slices, p.cfg.Processing.IgnoreSegmentStart)
	if err != nil {
		return err
	}
	result.Parts = len(parts)
	logger.Info("assembled part list", logging.Int("parts", len(parts)))

	rewriting := p.cfg.Processing.FixSubtitles || p.encodeOptions().Enabled()
	if rewriting {
		if parts, err = p.materializeParts(run, parts); err != nil {
			return err
		}
	}

	if p.cfg.Processing.FixSubtitles {
		if err := p.fixSubtitles(ctx, run, file, plan, parts, logger); err != nil {
			return err
		}
	}
	if opts := p.encodeOptions(); opts.Enabled() {
		if err := p.reencodeParts(ctx, opts, parts, logger); err != nil {
			return err
		}
	}

	output := filepath.Join(run.EncodesDir, filepath.Base(file))
	chaptersFile := ""
	if p.cfg.Processing.Chapters {
		chaptersFile = run.ChaptersFile()
	}
	logger.Info("building file", logging.String("output", output))
	if err := p.tools.AppendParts(ctx, output, parts, chaptersFile); err != nil {
		return err
	}

	// mkvmerge can reorder appended subtitle tracks, so the styles are put
	// back once more on the merged result.
	if p.cfg.Processing.FixSubtitles && len(parts) > 1 {
		if err := p.refixMergedSubtitles(ctx, run, output, logger); err != nil {
			return err
		}
	}

	for _, edit := range edits {
		if err := p.tools.PropEdit(ctx, output, edit); err != nil {
			logger.Warn("metadata edit failed", logging.Error(err))
		}
	}

	dest := filepath.Join(p.destinationDir(file), filepath.Base(file))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := fileutil.MoveFile(output, dest); err != nil {
		return fmt.Errorf("move output: %w", err)
	}
	result.Output = dest
	logger.Info("rebuild complete",
		logging.String("output", dest),
		logging.String(logging.FieldEventType, "rebuild_complete"))
	return nil
}

// OutputPath returns where the rebuilt version of file would land.
func (p *Processor) OutputPath(file string) string {
	return filepath.Join(p.destinationDir(file), filepath.Base(file))
}

// destinationDir returns where the rebuilt file lands: the configured
// output directory, or an UMKV subdirectory next to the source.
func (p *Processor) destinationDir(file string) string {
	if p.cfg.Paths.OutDir != "" {
		return p.cfg.Paths.OutDir
	}
	return filepath.Join(filepath.Dir(file), "UMKV")
}

func (p *Processor) encodeOptions() encode.Options {
	return encode.Options{
		FixVideo:      p.cfg.Processing.FixVideo,
		FixAudio:      p.cfg.Processing.FixAudio,
		VideoTemplate: p.cfg.Processing.VideoTemplate,
		AudioTemplate: p.cfg.Processing.AudioTemplate,
		Vars:          p.cfg.Processing.Vars,
	}
}

func (p *Processor) registryFor(ctx context.Context, dir string, logger *slog.Logger) (*segments.Registry, error) {
	if registry, ok := p.registries[dir]; ok {
		return registry, nil
	}
	logger.Info("scanning directory for segments", logging.String("dir", dir))
	registry, err := segments.Build(ctx, dir, p.probe, p.logger)
	if err != nil {
		return nil, err
	}
	logger.Info("segment scan complete", logging.Int("segments", registry.Len()))
	p.registries[dir] = registry
	return registry, nil
}

// ensureSplittable converts the file to ALAC audio when it carries FLAC,
// reusing an already fetched mkvinfo listing.
func (p *Processor) ensureSplittable(ctx context.Context, run *workspace.Run, file, infoOutput string, logger *slog.Logger) (string, error) {
	if !mkvtool.HasFLACTrack(infoOutput) {
		return file, nil
	}
	return p.convertToALAC(ctx, run, file, logger)
}

func (p *Processor) ensureSplittableFile(ctx context.Context, run *workspace.Run, file string, logger *slog.Logger) (string, error) {
	infoOutput, err := p.tools.Info(ctx, file)
	if err != nil {
		return "", err
	}
	return p.ensureSplittable(ctx, run, file, infoOutput, logger)
}

func (p *Processor) convertToALAC(ctx context.Context, run *workspace.Run, file string, logger *slog.Logger) (string, error) {
	base := filepath.Base(file)
	converted := filepath.Join(run.EncodesDir, trimExt(base)+"-alac.mkv")
	if _, err := os.Stat(converted); err == nil {
		return converted, nil
	}
	logger.Info("converting flac audio to alac", logging.String("file", base))
	if err := encode.ConvertToALAC(ctx, p.tools, file, converted); err != nil {
		return "", err
	}
	return converted, nil
}

// materializeParts copies parts that live outside the run directory into
// the parts area, so the subtitle and encode passes can rewrite them
// without touching library files.
func (p *Processor) materializeParts(run *workspace.Run, parts []string) ([]string, error) {
	out := make([]string, len(parts))
	for i, part := range parts {
		if withinDir(run.Dir, part) {
			out[i] = part
			continue
		}
		copied := filepath.Join(run.PartsDir, fmt.Sprintf("part-%03d-%s", i+1, filepath.Base(part)))
		if err := fileutil.CopyFile(part, copied); err != nil {
			return nil, fmt.Errorf("stage part %s: %w", part, err)
		}
		out[i] = copied
	}
	return out, nil
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (p *Processor) reencodeParts(ctx context.Context, opts encode.Options, parts []string, logger *slog.Logger) error {
	logger.Info("encoding parts")
	for _, part := range parts {
		vopt, aopt, err := opts.Args(ctx, p.tools, part)
		if err != nil {
			return err
		}
		fixed := part + "-fixed.mkv"
		if err := encode.Reencode(ctx, p.tools, part, fixed, vopt, aopt); err != nil {
			return err
		}
		if err := fileutil.Replace(part, fixed); err != nil {
			return err
		}
	}
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
