package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// resolveRoots fills empty filesystem roots with OS-appropriate defaults.
func resolveRoots(cfg *Config) {
	if cfg.Install.DataRoot == "" {
		cfg.Install.DataRoot = defaultDataRoot()
	}
	if cfg.Install.Root == "" {
		cfg.Install.Root = defaultInstallRoot(cfg.Mode, cfg.Install.DataRoot)
	}
}

func defaultDataRoot() string {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, "ZocoPOS")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "ZocoPOS")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "ZocoPOS")
	default:
		if base := os.Getenv("XDG_DATA_HOME"); base != "" {
			return filepath.Join(base, "zocopos")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "zocopos")
	}
}

// defaultInstallRoot places production installs under Program Files on
// Windows. Local mode and non-Windows platforms install under the data root
// so no elevation is needed.
func defaultInstallRoot(mode, dataRoot string) string {
	if mode == ModeGitHub && runtime.GOOS == "windows" {
		base := os.Getenv("ProgramFiles")
		if base == "" {
			base = `C:\Program Files`
		}
		return filepath.Join(base, "ZocoPOS")
	}
	return filepath.Join(dataRoot, "install")
}

// AppDir holds the live executable and its version record.
func (c *Config) AppDir() string {
	return filepath.Join(c.Install.Root, "app")
}

// ExecutablePath is the canonical path of the managed binary.
func (c *Config) ExecutablePath() string {
	return filepath.Join(c.AppDir(), c.App.Executable)
}

// VersionFilePath is the installed-version record sidecar.
func (c *Config) VersionFilePath() string {
	return filepath.Join(c.AppDir(), "version.json")
}

// BackupDir holds rotated binary backups.
func (c *Config) BackupDir() string {
	return filepath.Join(c.Install.Root, "backup")
}

// StagingDir holds in-flight downloads before verification.
func (c *Config) StagingDir() string {
	return filepath.Join(c.Install.Root, "update")
}

// DataFilePath is the managed application's own data file.
func (c *Config) DataFilePath() string {
	return filepath.Join(c.Install.DataRoot, c.App.DataFile)
}

// HistoryDBPath is the launcher's own state database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Install.DataRoot, "launcher.db")
}

// LogDir holds rotating launcher logs.
func (c *Config) LogDir() string {
	return filepath.Join(c.Install.DataRoot, "logs")
}

// EnsureDirs creates the full directory layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Install.DataRoot, c.AppDir(), c.BackupDir(), c.StagingDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
