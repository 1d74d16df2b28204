package segments

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"unlinkmkv/internal/chapters"
	"unlinkmkv/internal/timecode"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizeUID(t *testing.T) {
	cases := []struct {
		raw    string
		format chapters.UIDFormat
		want   string
	}{
		{"AB CD\nEF 01", chapters.UIDHex, "abcdef01"},
		{"  deadbeef  ", chapters.UIDHex, "deadbeef"},
		{"AB", chapters.UIDASCII, "4142"},
		{" linked ", chapters.UIDASCII, "6c696e6b6564"},
	}
	for _, tc := range cases {
		if got := NormalizeUID(tc.raw, tc.format); got != tc.want {
			t.Errorf("NormalizeUID(%q, %v) = %q, want %q", tc.raw, tc.format, got, tc.want)
		}
	}
}

func TestBuildAndResolve(t *testing.T) {
	dir := t.TempDir()
	ep := touch(t, dir, "episode.mkv")
	op := touch(t, dir, "opening.mkv")
	touch(t, dir, "notes.txt")

	uids := map[string]string{
		ep: "aaaa0001",
		op: "bbbb0002",
	}
	probe := func(_ context.Context, file string) (string, timecode.Timecode, error) {
		return uids[file], timecode.MustParse("00:01:30.000000000"), nil
	}

	reg, err := Build(context.Background(), dir, probe, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}

	entry, ok := reg.Resolve("bbbb0002")
	if !ok || entry.File != op {
		t.Fatalf("Resolve = (%+v, %v)", entry, ok)
	}

	// Self-reference must not resolve.
	if _, ok := reg.ResolveFor("aaaa0001", ep); ok {
		t.Error("self reference resolved")
	}
	if _, ok := reg.ResolveFor("bbbb0002", ep); !ok {
		t.Error("cross reference failed to resolve")
	}
}

func TestBuildSkipsUnprobeable(t *testing.T) {
	dir := t.TempDir()
	good := touch(t, dir, "good.mkv")
	touch(t, dir, "broken.mkv")

	probe := func(_ context.Context, file string) (string, timecode.Timecode, error) {
		if strings.Contains(file, "broken") {
			return "", 0, errors.New("unreadable container")
		}
		return "cafe0042", timecode.MustParse("00:22:00.000000000"), nil
	}

	reg, err := Build(context.Background(), dir, probe, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	if entry, _ := reg.Resolve("cafe0042"); entry.File != good {
		t.Fatalf("unexpected file %s", entry.File)
	}
}

func TestBuildRejectsDuplicateUID(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	touch(t, dir, "b.mkv")

	probe := func(_ context.Context, _ string) (string, timecode.Timecode, error) {
		return "feed0001", timecode.Zero, nil
	}

	if _, err := Build(context.Background(), dir, probe, nil); err == nil {
		t.Fatal("expected duplicate uid error")
	}
}
