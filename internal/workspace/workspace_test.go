package workspace_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/workspace"
)

func newManager(t *testing.T) *workspace.Manager {
	t.Helper()
	base := t.TempDir()
	m := workspace.New(filepath.Join(base, "inbound"), filepath.Join(base, "outbound"))
	if err := m.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return m
}

func TestResolvePath(t *testing.T) {
	m := workspace.New("/data/in", "/data/out")
	cases := map[workspace.Kind]string{
		workspace.KindRawFetch:   "/data/in/abc.mp4",
		workspace.KindTrimmed:    "/data/out/abc_cut.mp4",
		workspace.KindComposed:   "/data/out/abc_portrait.mp4",
		workspace.KindCaptioned:  "/data/out/abc_with_text.mp4",
		workspace.KindAudio:      "/data/out/abc_audio.wav",
		workspace.KindTranscript: "/data/out/abc_audio.json",
	}
	for kind, want := range cases {
		if got := m.ResolvePath("abc", kind); got != want {
			t.Errorf("ResolvePath(%s) = %q, want %q", kind, got, want)
		}
		if again := m.ResolvePath("abc", kind); again != m.ResolvePath("abc", kind) {
			t.Errorf("ResolvePath(%s) not deterministic", kind)
		}
	}
	if m.ResolvePath("abc", workspace.KindTrimmed) == m.ResolvePath("abd", workspace.KindTrimmed) {
		t.Fatal("expected distinct paths for distinct job IDs")
	}
}

func TestEnsureDirectoriesIsIdempotent(t *testing.T) {
	m := newManager(t)
	if err := m.EnsureDirectories(); err != nil {
		t.Fatalf("second EnsureDirectories: %v", err)
	}
	for _, dir := range []string{m.InboundDir(), m.OutboundDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestEnsureDirectoriesReportsStorageError(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := workspace.New(filepath.Join(blocker, "in"), filepath.Join(base, "out"))
	err := m.EnsureDirectories()
	if !errors.Is(err, services.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestExistsAndRemove(t *testing.T) {
	m := newManager(t)
	path := m.ResolvePath("abc", workspace.KindTrimmed)
	if m.Exists(path) {
		t.Fatal("expected missing file")
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !m.Exists(path) {
		t.Fatal("expected file to exist")
	}
	if err := m.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if m.Exists(path) {
		t.Fatal("expected file removed")
	}
	if err := m.Remove(path); err != nil {
		t.Fatalf("Remove of missing file should succeed, got %v", err)
	}
}

func TestFetchLeftovers(t *testing.T) {
	m := newManager(t)
	final := m.ResolvePath("ABC123", workspace.KindRawFetch)
	in := m.InboundDir()
	for _, name := range []string{"ABC123.mp4", "ABC123.mp4.part", "ABC123.f137.mp4.part", "ABC123.f140.m4a", "ABC1234.mp4.part", ".ABC123.lock"} {
		if err := os.WriteFile(filepath.Join(in, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got := m.FetchLeftovers("ABC123")
	want := map[string]bool{
		filepath.Join(in, "ABC123.mp4.part"):      true,
		filepath.Join(in, "ABC123.f137.mp4.part"): true,
		filepath.Join(in, "ABC123.f140.m4a"):      true,
	}
	if len(got) != len(want) {
		t.Fatalf("FetchLeftovers = %v", got)
	}
	for _, path := range got {
		if !want[path] || path == final {
			t.Fatalf("unexpected leftover %s in %v", path, got)
		}
	}
}

func TestLockJobSerializesSameJob(t *testing.T) {
	m := newManager(t)
	first, err := m.LockJob(context.Background(), "abc")
	if err != nil {
		t.Fatalf("LockJob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if _, err := m.LockJob(ctx, "abc"); !errors.Is(err, services.ErrCanceled) {
		t.Fatalf("expected second lock to wait until ctx ends, got %v", err)
	}

	other, err := m.LockJob(context.Background(), "xyz")
	if err != nil {
		t.Fatalf("expected independent job lock, got %v", err)
	}
	_ = other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	again, err := m.LockJob(context.Background(), "abc")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	_ = again.Release()
}

func TestListCachedDoesNotCreateLockFiles(t *testing.T) {
	m := newManager(t)
	path := m.ResolvePath("idle", workspace.KindRawFetch)
	if err := os.WriteFile(path, []byte("idle"), 0o644); err != nil {
		t.Fatal(err)
	}

	listed, err := m.ListCached()
	if err != nil {
		t.Fatalf("ListCached: %v", err)
	}
	if len(listed) != 1 || listed[0].InUse {
		t.Fatalf("unexpected listing %+v", listed)
	}
	if _, err := os.Stat(filepath.Join(m.InboundDir(), ".idle.lock")); !os.IsNotExist(err) {
		t.Fatalf("expected no lock file after listing, stat err=%v", err)
	}
}

func TestPruneCacheSkipsLockedAndFresh(t *testing.T) {
	m := newManager(t)
	stale := time.Now().Add(-48 * time.Hour)

	write := func(jobID string, mtime time.Time) string {
		path := m.ResolvePath(jobID, workspace.KindRawFetch)
		if err := os.WriteFile(path, []byte(jobID), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
		return path
	}
	oldPath := write("old", stale)
	busyPath := write("busy", stale)
	freshPath := write("fresh", time.Now())

	lock, err := m.LockJob(context.Background(), "busy")
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	listed, err := m.ListCached()
	if err != nil {
		t.Fatalf("ListCached: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 cached artifacts, got %d", len(listed))
	}
	for _, artifact := range listed {
		if artifact.InUse != (artifact.JobID == "busy") {
			t.Fatalf("unexpected in-use flag for %s: %v", artifact.JobID, artifact.InUse)
		}
	}

	result := m.PruneCache(context.Background(), 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != oldPath {
		t.Fatalf("expected only %s removed, got %v", oldPath, result.Removed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != busyPath {
		t.Fatalf("expected %s skipped, got %v", busyPath, result.Skipped)
	}
	if !m.Exists(freshPath) || !m.Exists(busyPath) {
		t.Fatal("expected fresh and busy artifacts to remain")
	}
}
