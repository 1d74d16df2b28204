package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unlinkmkv/internal/logging"
)

func TestOpenCreatesRootAndLock(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	ws, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ws.Close()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("root not created: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "unlinkmkv.lock")); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
}

func TestOpenRejectsSecondInstance(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	first, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer first.Close()

	if _, err := Open(root, logging.NewNop()); err == nil {
		t.Fatal("second Open should fail while lock is held")
	}
}

func TestOpenAfterClose(t *testing.T) {
	root := filepath.Join(t.TempDir(), "work")
	first, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(root, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	second.Close()
}

func TestOpenRequiresRoot(t *testing.T) {
	if _, err := Open("", logging.NewNop()); err == nil {
		t.Fatal("empty root should be rejected")
	}
}

func TestNewRunLaysOutSubdirectories(t *testing.T) {
	ws, err := Open(filepath.Join(t.TempDir(), "work"), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	run, err := ws.NewRun()
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	for _, dir := range []string{run.AttachDir, run.PartsDir, run.EncodesDir, run.SubtitlesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("missing %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	if got := run.SplitSlice(2); !strings.HasSuffix(got, "split-002.mkv") {
		t.Errorf("SplitSlice(2) = %s", got)
	}
	if got := run.SplitPattern(); !strings.HasSuffix(got, "split-%03d.mkv") {
		t.Errorf("SplitPattern = %s", got)
	}
}

func TestRunsAreDistinct(t *testing.T) {
	ws, err := Open(filepath.Join(t.TempDir(), "work"), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	a, err := ws.NewRun()
	if err != nil {
		t.Fatal(err)
	}
	b, err := ws.NewRun()
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir == b.Dir {
		t.Error("run directories should be unique")
	}
}

func TestCleanupRemovesRun(t *testing.T) {
	ws, err := Open(filepath.Join(t.TempDir(), "work"), logging.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	run, err := ws.NewRun()
	if err != nil {
		t.Fatal(err)
	}
	run.Cleanup()
	if _, err := os.Stat(run.Dir); !os.IsNotExist(err) {
		t.Errorf("run directory should be gone, stat err = %v", err)
	}
}
