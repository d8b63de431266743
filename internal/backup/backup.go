// Package backup keeps rolling copies of the installed executable and the
// point-of-sale data file so that a failed update can fall back to the
// previous binary without losing sales data.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
)

const (
	// binaryKeepCount bounds how many executable backups survive pruning.
	binaryKeepCount = 3
	// dataKeepCount bounds how many data file backups survive pruning.
	dataKeepCount = 5
)

// Manager creates, prunes and restores backups under the install root.
// All operations are best-effort from the caller's point of view: an
// install proceeds even when a backup could not be taken.
type Manager struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func NewManager(cfg *config.Config, logger *zerolog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		logger: logger.With().Str("component", "backup").Logger(),
	}
}

// BackupBinary copies the currently installed executable into the backup
// directory. A missing executable is not an error, there is simply nothing
// to keep. Returns the path of the backup it created, if any.
func (m *Manager) BackupBinary() (string, error) {
	return m.backup(m.cfg.ExecutablePath(), m.cfg.BackupDir(), m.cfg.App.Executable, binaryKeepCount)
}

// BackupData copies the point-of-sale data file. Data backups live next to
// the data file itself, they belong to the user's data, not the install.
func (m *Manager) BackupData() (string, error) {
	return m.backup(m.cfg.DataFilePath(), m.cfg.Install.DataRoot, m.cfg.App.DataFile, dataKeepCount)
}

func (m *Manager) backup(srcPath, destDir, fileName string, keep int) (string, error) {
	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			m.logger.Debug().Str("path", srcPath).Msg("Nothing to back up")
			return "", nil
		}
		return "", fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	backupPath := filepath.Join(destDir, backupName(fileName, time.Now()))
	if err := copyFile(srcPath, backupPath); err != nil {
		return "", fmt.Errorf("copy to backup: %w", err)
	}

	m.logger.Info().Str("path", backupPath).Msg("Backup created")
	m.prune(destDir, fileName, keep)
	return backupPath, nil
}

// RestoreLatestBinary copies the newest executable backup over the
// canonical install path. Returns false when no backup exists.
func (m *Manager) RestoreLatestBinary() (bool, error) {
	backups, err := m.list(m.cfg.BackupDir(), m.cfg.App.Executable)
	if err != nil {
		return false, fmt.Errorf("list backups: %w", err)
	}
	if len(backups) == 0 {
		return false, nil
	}

	newest := backups[len(backups)-1]
	if err := copyFile(newest, m.cfg.ExecutablePath()); err != nil {
		return false, fmt.Errorf("restore backup: %w", err)
	}

	m.logger.Info().Str("backup", newest).Msg("Restored executable from backup")
	return true, nil
}

// prune removes the oldest backups of fileName beyond the keep count.
// Failures are logged and swallowed, pruning never fails an install.
func (m *Manager) prune(dir, fileName string, keep int) {
	backups, err := m.list(dir, fileName)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to list backups for pruning")
		return
	}
	if len(backups) <= keep {
		return
	}

	for _, old := range backups[:len(backups)-keep] {
		if err := os.Remove(old); err != nil {
			m.logger.Warn().Err(err).Str("path", old).Msg("Failed to remove old backup")
			continue
		}
		m.logger.Debug().Str("path", old).Msg("Removed old backup")
	}
}

// list returns the backups of fileName in dir sorted oldest to newest.
// Backup names embed a Unix timestamp, so a lexical sort orders them by age.
func (m *Manager) list(dir, fileName string) ([]string, error) {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	pattern := filepath.Join(dir, base+"_backup_*"+ext)

	backups, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(backups)
	return backups, nil
}

func backupName(fileName string, ts time.Time) string {
	ext := filepath.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	return fmt.Sprintf("%s_backup_%d%s", base, ts.Unix(), ext)
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("copy data: %w", err)
	}

	// Preserve executable permissions
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	return os.Chmod(dst, sourceInfo.Mode())
}
