package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"unlinkmkv/internal/fileutil"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/mkvtool"
	"unlinkmkv/internal/subtitles"
	"unlinkmkv/internal/timeline"
	"unlinkmkv/internal/workspace"
)

// collectAttachments pulls the attachments of every source file into the
// run's attach directory, deduplicated by file name, and returns the
// collected paths for reattaching.
func (p *Processor) collectAttachments(ctx context.Context, run *workspace.Run, files []string, logger *slog.Logger) ([]string, error) {
	for _, file := range files {
		infoOutput, err := p.tools.Info(ctx, file)
		if err != nil {
			return nil, err
		}
		wanted := map[int]string{}
		for i, att := range mkvtool.ParseAttachments(infoOutput) {
			dest := filepath.Join(run.AttachDir, att.Name)
			if _, statErr := os.Stat(dest); statErr == nil {
				logger.Debug("skipping duplicate attachment", logging.String("name", att.Name))
				continue
			}
			wanted[i+1] = dest
		}
		if len(wanted) == 0 {
			continue
		}
		logger.Debug("extracting attachments",
			logging.String("file", filepath.Base(file)),
			logging.Int("count", len(wanted)))
		if err := p.tools.ExtractAttachments(ctx, file, wanted); err != nil {
			return nil, err
		}
	}

	entries, err := os.ReadDir(run.AttachDir)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	var fonts []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			fonts = append(fonts, filepath.Join(run.AttachDir, entry.Name()))
		}
	}
	return fonts, nil
}

type partScripts struct {
	part    string
	scripts []*subtitles.Script
	schemas []subtitles.Schema
}

// fixSubtitles extracts the subtitle tracks of every part, makes their
// styles globally unique, installs the shared style catalog in each script,
// and remuxes each part with the rewritten scripts plus the collected
// fonts.
func (p *Processor) fixSubtitles(ctx context.Context, run *workspace.Run, originalFile string, plan *timeline.Plan, parts []string, logger *slog.Logger) error {
	logger.Info("fixing subtitle styles")

	sources := append([]string{originalFile}, plan.ExternalFiles()...)
	fonts, err := p.collectAttachments(ctx, run, sources, logger)
	if err != nil {
		return err
	}

	var all []partScripts
	var catalog []string
	for _, part := range parts {
		infoOutput, err := p.tools.Info(ctx, part)
		if err != nil {
			return err
		}
		ids := mkvtool.ParseSubtitleTracks(infoOutput)
		ps := partScripts{part: part}
		if len(ids) == 0 {
			all = append(all, ps)
			continue
		}

		tracks := map[int]string{}
		for _, id := range ids {
			tracks[id] = filepath.Join(run.SubtitlesDir,
				fmt.Sprintf("%s-%d.ass", filepath.Base(part), id))
		}
		if err := p.tools.ExtractTracks(ctx, part, tracks); err != nil {
			return err
		}

		for _, id := range ids {
			script, err := subtitles.ReadScript(tracks[id])
			if err != nil {
				return err
			}
			schema := subtitles.ParseSchema(script.Text)
			if !schema.Complete() {
				logger.Warn("subtitle style schema missing, script passes through unchanged",
					logging.String("part", filepath.Base(part)),
					logging.String("script", filepath.Base(script.Path)))
			}
			rewritten, styles := subtitles.Disambiguate(script.Text, subtitles.StyleTag(script.Path), schema)
			script.Text = rewritten
			catalog = append(catalog, styles...)
			ps.scripts = append(ps.scripts, script)
			ps.schemas = append(ps.schemas, schema)
		}
		all = append(all, ps)
	}

	for _, ps := range all {
		if len(ps.scripts) == 0 {
			continue
		}
		subPaths := make([]string, 0, len(ps.scripts))
		for i, script := range ps.scripts {
			script.Text = subtitles.Merge(script.Text, ps.schemas[i], catalog,
				p.cfg.Processing.PlayResX, p.cfg.Processing.PlayResY)
			if err := script.Save(); err != nil {
				return err
			}
			subPaths = append(subPaths, script.Path)
		}

		fixed := ps.part + "-fixsubs.mkv"
		logger.Debug("remuxing part subtitles", logging.String("part", filepath.Base(ps.part)))
		if err := p.tools.RemuxWithSubtitles(ctx, fixed, ps.part, subPaths, fonts); err != nil {
			return err
		}
		if err := fileutil.Replace(ps.part, fixed); err != nil {
			return err
		}
	}
	return nil
}

// refixMergedSubtitles extracts the merged file's subtitle tracks and muxes
// them back in one more time. Styles are already unified at this point; the
// extra pass restores the track order mkvmerge shuffles while appending.
func (p *Processor) refixMergedSubtitles(ctx context.Context, run *workspace.Run, output string, logger *slog.Logger) error {
	infoOutput, err := p.tools.Info(ctx, output)
	if err != nil {
		return err
	}
	ids := mkvtool.ParseSubtitleTracks(infoOutput)
	if len(ids) == 0 {
		return nil
	}

	tracks := map[int]string{}
	subPaths := make([]string, 0, len(ids))
	for _, id := range ids {
		dest := filepath.Join(run.EncodesDir, fmt.Sprintf("merged-%d.ass", id))
		tracks[id] = dest
		subPaths = append(subPaths, dest)
	}
	if err := p.tools.ExtractTracks(ctx, output, tracks); err != nil {
		return err
	}

	logger.Debug("restoring subtitle track order")
	fixed := output + "-fixsubs.mkv"
	if err := p.tools.ReplaceSubtitles(ctx, fixed, output, subPaths); err != nil {
		return err
	}
	return fileutil.Replace(output, fixed)
}
