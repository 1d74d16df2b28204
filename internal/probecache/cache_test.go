package probecache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"unlinkmkv/internal/timecode"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "probes.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLookup(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	duration := timecode.MustParse("00:01:30.000000000")

	if err := store.Save(ctx, "/media/op.mkv", 1000, 42, "aabbcc", duration); err != nil {
		t.Fatalf("Save: %v", err)
	}

	uid, got, found, err := store.Lookup(ctx, "/media/op.mkv", 1000, 42)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatal("entry should be found")
	}
	if uid != "aabbcc" || got != duration {
		t.Errorf("got (%q, %v), want (aabbcc, %v)", uid, got, duration)
	}
}

func TestLookupMissesOnChangedIdentity(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "/media/op.mkv", 1000, 42, "aabbcc", 0); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name  string
		size  int64
		mtime int64
	}{
		{"size changed", 2000, 42},
		{"mtime changed", 1000, 43},
		{"unknown path", 1000, 42},
	} {
		path := "/media/op.mkv"
		if tc.name == "unknown path" {
			path = "/media/other.mkv"
		}
		_, _, found, err := store.Lookup(ctx, path, tc.size, tc.mtime)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if found {
			t.Errorf("%s: lookup should miss", tc.name)
		}
	}
}

func TestSaveReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "/media/op.mkv", 1000, 42, "old", 0); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, "/media/op.mkv", 2000, 43, "new", 0); err != nil {
		t.Fatal(err)
	}

	uid, _, found, err := store.Lookup(ctx, "/media/op.mkv", 2000, 43)
	if err != nil || !found {
		t.Fatalf("Lookup after replace: found=%v err=%v", found, err)
	}
	if uid != "new" {
		t.Errorf("uid = %q, want new", uid)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, "/a.mkv", 1, 1, "a", 0)
	_ = store.Save(ctx, "/b.mkv", 2, 2, "b", 0)
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count = %d after clear", count)
	}
}

func TestWrapProbeCachesResults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "op.mkv")
	if err := os.WriteFile(file, []byte("mkv"), 0o644); err != nil {
		t.Fatal(err)
	}

	probes := 0
	probe := WrapProbe(store, func(context.Context, string) (string, timecode.Timecode, error) {
		probes++
		return "cafe", timecode.MustParse("00:00:05.000000000"), nil
	})

	for i := 0; i < 3; i++ {
		uid, duration, err := probe(ctx, file)
		if err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
		if uid != "cafe" || duration.String() != "00:00:05.000000000" {
			t.Errorf("probe %d: (%q, %v)", i, uid, duration)
		}
	}
	if probes != 1 {
		t.Errorf("underlying probe ran %d times, want 1", probes)
	}
}

func TestWrapProbeNilStorePassesThrough(t *testing.T) {
	called := false
	probe := WrapProbe(nil, func(context.Context, string) (string, timecode.Timecode, error) {
		called = true
		return "x", 0, nil
	})
	if _, _, err := probe(context.Background(), "anything"); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("underlying probe should run")
	}
}
