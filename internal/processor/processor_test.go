package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"unlinkmkv/internal/config"
	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/mkvtool"
	"unlinkmkv/internal/timecode"
	"unlinkmkv/internal/workspace"
)

const linkedChapters = `<?xml version="1.0" encoding="UTF-8"?>
<Chapters>
  <EditionEntry>
    <EditionFlagOrdered>1</EditionFlagOrdered>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:10:00.000000000</ChapterTimeEnd>
    </ChapterAtom>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:01:30.000000000</ChapterTimeEnd>
      <ChapterSegmentUID format="hex">ABC123</ChapterSegmentUID>
    </ChapterAtom>
    <ChapterAtom>
      <ChapterTimeStart>00:10:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:20:00.000000000</ChapterTimeEnd>
    </ChapterAtom>
  </EditionEntry>
</Chapters>
`

const plainChapters = `<?xml version="1.0" encoding="UTF-8"?>
<Chapters>
  <EditionEntry>
    <ChapterAtom>
      <ChapterTimeStart>00:00:00.000000000</ChapterTimeStart>
      <ChapterTimeEnd>00:10:00.000000000</ChapterTimeEnd>
    </ChapterAtom>
  </EditionEntry>
</Chapters>
`

const plainInfo = `+ EBML head
+ Segment
| + Title: Episode One
| + Segment tracks
| + A track
|  + Track number: 1 (track ID for mkvmerge & mkvextract: 0)
|  + Track type: video
`

const subtitleInfo = plainInfo + `| + A track
|  + Track number: 3 (track ID for mkvmerge & mkvextract: 2)
|  + Track type: subtitles
`

// bareSubtitleScript has no Format: line in either section, so no style
// schema can be resolved for it.
const bareSubtitleScript = "[Script Info]\nTitle: stub\n\n[Events]\nDialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hi\n"

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// fakeToolchainInfo simulates the external binaries: chapter dumps come from
// the chaptersByFile map, mkvinfo returns infoOutput, track and attachment
// extraction writes stub files, split and merge invocations create their
// output files.
func fakeToolchainInfo(t *testing.T, chaptersByFile map[string]string, infoOutput string) mkvtool.CommandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) (string, error) {
		base := filepath.Base(name)
		switch base {
		case "mkvextract":
			for i, arg := range args {
				switch arg {
				case "chapters":
					if i+1 < len(args) {
						return chaptersByFile[filepath.Base(args[i+1])], nil
					}
				case "tracks", "attachments":
					for _, spec := range args[i+2:] {
						sep := strings.IndexByte(spec, ':')
						if sep <= 0 {
							continue
						}
						if err := os.WriteFile(spec[sep+1:], []byte(bareSubtitleScript), 0o644); err != nil {
							t.Fatalf("fake extract: %v", err)
						}
					}
					return "", nil
				}
			}
			return "", nil
		case "mkvinfo":
			return infoOutput, nil
		case "mkvpropedit":
			return "", nil
		case "mkvmerge":
			for _, arg := range args {
				if strings.HasPrefix(arg, "timecodes:") {
					pattern := argValue(args, "-o")
					count := strings.Count(arg, ",") + 2
					for n := 1; n <= count; n++ {
						path := fmt.Sprintf(pattern, n)
						if err := os.WriteFile(path, []byte("slice"), 0o644); err != nil {
							t.Fatalf("fake split: %v", err)
						}
					}
					return "", nil
				}
			}
			if out := argValue(args, "-o"); out != "" {
				if err := os.WriteFile(out, []byte("mkv"), 0o644); err != nil {
					t.Fatalf("fake merge: %v", err)
				}
			}
			return "", nil
		}
		return "", fmt.Errorf("unexpected binary %s", name)
	}
}

func testProbe(t *testing.T) func(context.Context, string) (string, timecode.Timecode, error) {
	t.Helper()
	return func(_ context.Context, file string) (string, timecode.Timecode, error) {
		switch filepath.Base(file) {
		case "ep.mkv":
			return "deadbeef", timecode.MustParse("00:20:00.000000000"), nil
		case "opening.mkv":
			return "abc123", timecode.MustParse("00:01:30.000000000"), nil
		}
		return "", 0, fmt.Errorf("unknown file %s", file)
	}
}

func newTestProcessor(t *testing.T, chaptersByFile map[string]string, mutate func(*config.Config)) (*Processor, string) {
	t.Helper()
	return newTestProcessorInfo(t, chaptersByFile, plainInfo, logging.NewNop(), mutate)
}

func newTestProcessorInfo(t *testing.T, chaptersByFile map[string]string, infoOutput string, logger *slog.Logger, mutate func(*config.Config)) (*Processor, string) {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.ProbeCache.Enabled = false
	cfg.Processing.FixSubtitles = false
	if mutate != nil {
		mutate(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	ws, err := workspace.Open(cfg.Paths.WorkDir, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ws.Close() })

	tools := mkvtool.New(mkvtool.Binaries{}, "en_US", logging.NewNop()).
		WithCommandRunner(fakeToolchainInfo(t, chaptersByFile, infoOutput))

	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name := range chaptersByFile {
		if err := os.WriteFile(filepath.Join(mediaDir, name), []byte("mkv"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return New(&cfg, tools, ws, testProbe(t), logger), mediaDir
}

// logRecorder captures log messages so tests can assert on emitted signals.
type logRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, record slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, record.Message)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

func (r *logRecorder) contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestProcessFileSkipsUnlinked(t *testing.T) {
	proc, mediaDir := newTestProcessor(t, map[string]string{
		"ep.mkv":      plainChapters,
		"opening.mkv": plainChapters,
	}, nil)

	result := proc.ProcessFile(context.Background(), filepath.Join(mediaDir, "ep.mkv"))
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Linked {
		t.Error("plain file should not be linked")
	}
	if result.Status != "not-linked" {
		t.Errorf("Status = %q", result.Status)
	}
}

func TestProcessFileRebuildsLinkedFile(t *testing.T) {
	proc, mediaDir := newTestProcessor(t, map[string]string{
		"ep.mkv":      linkedChapters,
		"opening.mkv": plainChapters,
	}, nil)

	result := proc.ProcessFile(context.Background(), filepath.Join(mediaDir, "ep.mkv"))
	if result.Err != nil {
		t.Fatalf("ProcessFile: %v", result.Err)
	}
	if !result.Linked {
		t.Error("file should be linked")
	}
	if result.Status != "ok" {
		t.Errorf("Status = %q", result.Status)
	}
	// Two internal runs around one external insert: split before the
	// external and after the trailing run.
	if result.Splits != 2 {
		t.Errorf("Splits = %d, want 2", result.Splits)
	}
	// slice, opening.mkv, slice.
	if result.Parts != 3 {
		t.Errorf("Parts = %d, want 3", result.Parts)
	}

	want := filepath.Join(filepath.Dir(mediaDir), "out", "ep.mkv")
	if result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestProcessFileWarnsOnSchemalessSubtitles(t *testing.T) {
	recorder := &logRecorder{}
	proc, mediaDir := newTestProcessorInfo(t, map[string]string{
		"ep.mkv":      linkedChapters,
		"opening.mkv": plainChapters,
	}, subtitleInfo, slog.New(recorder), func(cfg *config.Config) {
		cfg.Processing.FixSubtitles = true
	})

	result := proc.ProcessFile(context.Background(), filepath.Join(mediaDir, "ep.mkv"))
	if result.Err != nil {
		t.Fatalf("ProcessFile: %v", result.Err)
	}
	if result.Status != "ok" {
		t.Errorf("Status = %q", result.Status)
	}
	// Each part's script has no Format: line; the style pass degrades to
	// passthrough and must say so.
	if !recorder.contains("subtitle style schema missing") {
		t.Errorf("expected schema warning, got %v", recorder.messages)
	}
}

func TestProcessFileDefaultsToUMKVSubdir(t *testing.T) {
	proc, mediaDir := newTestProcessor(t, map[string]string{
		"ep.mkv":      linkedChapters,
		"opening.mkv": plainChapters,
	}, func(cfg *config.Config) {
		cfg.Paths.OutDir = ""
	})

	result := proc.ProcessFile(context.Background(), filepath.Join(mediaDir, "ep.mkv"))
	if result.Err != nil {
		t.Fatalf("ProcessFile: %v", result.Err)
	}
	want := filepath.Join(mediaDir, "UMKV", "ep.mkv")
	if result.Output != want {
		t.Errorf("Output = %q, want %q", result.Output, want)
	}
}

func TestProcessFileReportsMissingSegment(t *testing.T) {
	missing := strings.ReplaceAll(linkedChapters, "ABC123", "FFFF")
	proc, mediaDir := newTestProcessor(t, map[string]string{
		"ep.mkv":      missing,
		"opening.mkv": plainChapters,
	}, nil)

	result := proc.ProcessFile(context.Background(), filepath.Join(mediaDir, "ep.mkv"))
	if result.Err == nil {
		t.Fatal("expected missing segment error")
	}
	if result.Status != "missing-segment" {
		t.Errorf("Status = %q", result.Status)
	}
}

func TestProcessAllIsolatesFailures(t *testing.T) {
	proc, mediaDir := newTestProcessor(t, map[string]string{
		"ep.mkv":      "<ChapterSegmentUID truncated",
		"opening.mkv": plainChapters,
	}, nil)

	results := proc.ProcessAll(context.Background(), []string{
		filepath.Join(mediaDir, "ep.mkv"),
		filepath.Join(mediaDir, "opening.mkv"),
	})
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].Err == nil || results[0].Status != "malformed-chapters" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Err != nil || results[1].Status != "not-linked" {
		t.Errorf("second result = %+v", results[1])
	}
}

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.mkv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ExpandInputs([]string{dir, filepath.Join(dir, "a.mkv")}, nil)
	if err != nil {
		t.Fatalf("ExpandInputs: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if filepath.Base(files[0]) != "a.mkv" || filepath.Base(files[1]) != "b.mkv" {
		t.Errorf("files = %v, want sorted mkv files deduplicated", files)
	}
}

func TestExpandInputsSkipsOnlyDirectoryMatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mkv", "b.mkv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	skip := func(file string) bool { return filepath.Base(file) == "a.mkv" }
	files, err := ExpandInputs([]string{dir, filepath.Join(dir, "a.mkv")}, skip)
	if err != nil {
		t.Fatalf("ExpandInputs: %v", err)
	}
	// a.mkv is skipped as a directory match but kept as an explicit argument.
	if len(files) != 2 {
		t.Fatalf("files = %v", files)
	}
	if filepath.Base(files[0]) != "b.mkv" || filepath.Base(files[1]) != "a.mkv" {
		t.Errorf("files = %v", files)
	}
}

func TestSkipExistingOutputs(t *testing.T) {
	proc, mediaDir := newTestProcessor(t, map[string]string{"ep.mkv": plainChapters}, nil)

	file := filepath.Join(mediaDir, "ep.mkv")
	skip := proc.SkipExistingOutputs()
	if skip(file) {
		t.Fatal("no output yet, should not skip")
	}

	out := proc.OutputPath(file)
	if err := os.WriteFile(out, []byte("done"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !skip(file) {
		t.Fatal("existing output should skip")
	}
}

func TestExpandInputsMissingPath(t *testing.T) {
	if _, err := ExpandInputs([]string{"/no/such/path.mkv"}, nil); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]Result{
		{Linked: true},
		{Linked: false},
		{Err: fmt.Errorf("boom")},
	})
	if summary != "1 rebuilt, 1 not linked, 1 failed of 3 files" {
		t.Errorf("summary = %q", summary)
	}
}
