package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/testutil"
)

func newTestWatcher(t *testing.T, dir string, check CheckFunc) *ReleaseWatcher {
	t.Helper()

	cfg := &config.Config{
		Mode: config.ModeLocal,
		App:  config.AppConfig{Executable: "ZocoPOS.exe"},
		Source: config.SourceConfig{
			Local: config.LocalSourceConfig{Dir: dir, DefaultVersion: "1.0.0"},
		},
	}
	lg := testutil.NopLogger()

	rw, err := NewReleaseWatcher(cfg, check, &lg)
	if err != nil {
		t.Fatalf("NewReleaseWatcher() error = %v", err)
	}
	// Shorten the settle delay so tests stay fast.
	rw.settle = 50 * time.Millisecond
	return rw
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTriggersOnReleaseDrop(t *testing.T) {
	dir := t.TempDir()

	var checks atomic.Int32
	rw := newTestWatcher(t, dir, func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})
	if err := rw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "ZocoPOS.exe"), []byte("new build"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return checks.Load() >= 1 }, "check never triggered by release drop")
}

func TestSidecarTriggersCheck(t *testing.T) {
	dir := t.TempDir()

	var checks atomic.Int32
	rw := newTestWatcher(t, dir, func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})
	if err := rw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{"version":"2.0.0"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return checks.Load() >= 1 }, "check never triggered by sidecar drop")
}

func TestIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	var checks atomic.Int32
	rw := newTestWatcher(t, dir, func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})
	if err := rw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rw.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(4 * rw.settle)
	if got := checks.Load(); got != 0 {
		t.Errorf("checks = %d, want 0 for unrelated file", got)
	}
}

func TestBurstCoalescesIntoOneCheck(t *testing.T) {
	dir := t.TempDir()

	var checks atomic.Int32
	rw := newTestWatcher(t, dir, func(ctx context.Context) error {
		checks.Add(1)
		return nil
	})
	if err := rw.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer rw.Stop()

	// A copy in progress looks like repeated writes to the same name.
	path := filepath.Join(dir, "ZocoPOS.exe")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("chunk"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { return checks.Load() >= 1 }, "check never triggered by release drop")
	time.Sleep(4 * rw.settle)
	if got := checks.Load(); got != 1 {
		t.Errorf("checks = %d, want a single coalesced check", got)
	}
}

func TestStartMissingDir(t *testing.T) {
	rw := newTestWatcher(t, "/nonexistent/dist", func(ctx context.Context) error { return nil })
	defer rw.Stop()

	if err := rw.Start(); err == nil {
		t.Error("Start() on missing directory should fail")
	}
}
