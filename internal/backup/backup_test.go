package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
)

func backupTestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Mode: config.ModeLocal,
		App:  config.AppConfig{Executable: "ZocoPOS.exe", DataFile: "zocopos_local.db"},
		Install: config.InstallConfig{
			Root:     root,
			DataRoot: filepath.Join(root, "data"),
		},
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func newTestManager(t *testing.T) (*Manager, *config.Config) {
	t.Helper()
	cfg := backupTestConfig(t)
	logger := zerolog.Nop()
	return NewManager(cfg, &logger), cfg
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBackupBinaryMissingSource(t *testing.T) {
	m, cfg := newTestManager(t)

	path, err := m.BackupBinary()
	if err != nil {
		t.Fatalf("BackupBinary() error = %v", err)
	}
	if path != "" {
		t.Errorf("BackupBinary() path = %q, want empty when nothing is installed", path)
	}
	if names := listDir(t, cfg.BackupDir()); len(names) != 0 {
		t.Errorf("backup dir not empty: %v", names)
	}
}

func TestBackupBinaryCreatesCopy(t *testing.T) {
	m, cfg := newTestManager(t)
	if err := os.WriteFile(cfg.ExecutablePath(), []byte("installed binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := m.BackupBinary()
	if err != nil {
		t.Fatalf("BackupBinary() error = %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "ZocoPOS_backup_") || !strings.HasSuffix(name, ".exe") {
		t.Errorf("backup name = %q, want ZocoPOS_backup_<epoch>.exe", name)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "installed binary" {
		t.Errorf("backup content = %q, want copy of the executable", got)
	}
}

func TestBackupBinaryPrunesOldest(t *testing.T) {
	m, cfg := newTestManager(t)
	if err := os.WriteFile(cfg.ExecutablePath(), []byte("installed binary"), 0o755); err != nil {
		t.Fatal(err)
	}

	seeded := []string{
		"ZocoPOS_backup_1700000001.exe",
		"ZocoPOS_backup_1700000002.exe",
		"ZocoPOS_backup_1700000003.exe",
		"ZocoPOS_backup_1700000004.exe",
	}
	for _, name := range seeded {
		if err := os.WriteFile(filepath.Join(cfg.BackupDir(), name), []byte("old"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := m.BackupBinary(); err != nil {
		t.Fatalf("BackupBinary() error = %v", err)
	}

	names := listDir(t, cfg.BackupDir())
	if len(names) != binaryKeepCount {
		t.Fatalf("backup dir holds %d files %v, want %d", len(names), names, binaryKeepCount)
	}
	for _, gone := range seeded[:2] {
		if _, err := os.Stat(filepath.Join(cfg.BackupDir(), gone)); !os.IsNotExist(err) {
			t.Errorf("oldest backup %s was not pruned", gone)
		}
	}
}

func TestBackupData(t *testing.T) {
	m, cfg := newTestManager(t)
	if err := os.WriteFile(cfg.DataFilePath(), []byte("sales data"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := m.BackupData()
	if err != nil {
		t.Fatalf("BackupData() error = %v", err)
	}
	if filepath.Dir(path) != cfg.Install.DataRoot {
		t.Errorf("data backup in %q, want it next to the data file in %q", filepath.Dir(path), cfg.Install.DataRoot)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "zocopos_local_backup_") || !strings.HasSuffix(name, ".db") {
		t.Errorf("backup name = %q, want zocopos_local_backup_<epoch>.db", name)
	}
}

func TestRestoreLatestBinaryNoBackups(t *testing.T) {
	m, _ := newTestManager(t)

	restored, err := m.RestoreLatestBinary()
	if err != nil {
		t.Fatalf("RestoreLatestBinary() error = %v", err)
	}
	if restored {
		t.Error("RestoreLatestBinary() = true with an empty backup dir")
	}
}

func TestRestoreLatestBinaryPicksNewest(t *testing.T) {
	m, cfg := newTestManager(t)
	older := filepath.Join(cfg.BackupDir(), "ZocoPOS_backup_1700000001.exe")
	newer := filepath.Join(cfg.BackupDir(), "ZocoPOS_backup_1700000002.exe")
	if err := os.WriteFile(older, []byte("older build"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newer, []byte("newer build"), 0o755); err != nil {
		t.Fatal(err)
	}

	restored, err := m.RestoreLatestBinary()
	if err != nil {
		t.Fatalf("RestoreLatestBinary() error = %v", err)
	}
	if !restored {
		t.Fatal("RestoreLatestBinary() = false with backups present")
	}

	got, err := os.ReadFile(cfg.ExecutablePath())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "newer build" {
		t.Errorf("restored content = %q, want the newest backup", got)
	}
}
