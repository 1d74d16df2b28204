package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"unlinkmkv/internal/logging"
)

// Workspace is the locked scratch root.
type Workspace struct {
	root     string
	lockPath string
	lock     *flock.Flock
	logger   *slog.Logger
}

// Open creates the scratch root and takes the single-instance lock.
// Two processes splitting into the same directory would clobber each
// other's parts.
func Open(root string, logger *slog.Logger) (*Workspace, error) {
	if root == "" {
		return nil, errors.New("workspace root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}

	lockPath := filepath.Join(root, "unlinkmkv.lock")
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("workspace %s is in use by another instance", root)
	}

	return &Workspace{
		root:     root,
		lockPath: lockPath,
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "workspace"),
	}, nil
}

// Root returns the scratch root path.
func (w *Workspace) Root() string { return w.root }

// Close releases the single-instance lock.
func (w *Workspace) Close() error {
	if w == nil || w.lock == nil {
		return nil
	}
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to release workspace lock",
			logging.String("lock", w.lockPath), logging.Error(err))
		return err
	}
	return nil
}

// Run is the per-file scratch directory tree.
type Run struct {
	Dir          string
	AttachDir    string
	PartsDir     string
	EncodesDir   string
	SubtitlesDir string

	logger *slog.Logger
}

// NewRun creates a uniquely named run directory with its subdirectories.
func (w *Workspace) NewRun() (*Run, error) {
	dir := filepath.Join(w.root, uuid.NewString())
	run := &Run{
		Dir:          dir,
		AttachDir:    filepath.Join(dir, "attach"),
		PartsDir:     filepath.Join(dir, "parts"),
		EncodesDir:   filepath.Join(dir, "encodes"),
		SubtitlesDir: filepath.Join(dir, "subtitles"),
		logger:       w.logger,
	}
	for _, sub := range []string{run.AttachDir, run.PartsDir, run.EncodesDir, run.SubtitlesDir} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("create run directory: %w", err)
		}
	}
	w.logger.Debug("created run directory", logging.String("dir", dir))
	return run, nil
}

// ChaptersFile returns the run-local path for the flattened chapter XML.
func (r *Run) ChaptersFile() string {
	return filepath.Join(r.Dir, "chapters.xml")
}

// SplitPattern returns the mkvmerge output pattern for split slices.
func (r *Run) SplitPattern() string {
	return filepath.Join(r.PartsDir, "split-%03d.mkv")
}

// SplitSlice returns the path mkvmerge gave the n-th slice (1-based).
func (r *Run) SplitSlice(n int) string {
	return filepath.Join(r.PartsDir, fmt.Sprintf("split-%03d.mkv", n))
}

// Cleanup removes the run directory tree. Failures are logged, not fatal;
// a leftover run directory costs disk space only.
func (r *Run) Cleanup() {
	if err := os.RemoveAll(r.Dir); err != nil {
		r.logger.Warn("failed to remove run directory",
			logging.String("dir", r.Dir), logging.Error(err))
	}
}
