//go:build windows

package shortcut

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
)

const scriptTimeout = 10 * time.Second

type creator struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) Creator {
	return &creator{
		cfg:    cfg,
		logger: logger.With().Str("component", "shortcut").Logger(),
	}
}

// Create writes a temporary PowerShell script that builds the .lnk through
// WScript.Shell and runs it. A script file avoids quoting problems with
// paths that contain spaces.
func (c *creator) Create(ctx context.Context) error {
	// The shortcut targets the launcher itself, so every desktop start goes
	// through the update check. Fall back to the installed app when the
	// launcher path cannot be resolved.
	target, err := os.Executable()
	if err != nil || target == "" {
		target = c.cfg.ExecutablePath()
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("shortcut target missing: %w", err)
	}

	home := os.Getenv("USERPROFILE")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	shortcutPath := filepath.Join(home, "Desktop", c.cfg.App.DisplayName+".lnk")

	if err := os.MkdirAll(c.cfg.StagingDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	scriptPath := filepath.Join(c.cfg.StagingDir(), "_create_shortcut.ps1")

	script := strings.Join([]string{
		`$ws = New-Object -ComObject WScript.Shell`,
		fmt.Sprintf(`$s = $ws.CreateShortcut("%s")`, shortcutPath),
		fmt.Sprintf(`$s.TargetPath = "%s"`, target),
		fmt.Sprintf(`$s.WorkingDirectory = "%s"`, filepath.Dir(target)),
		fmt.Sprintf(`$s.IconLocation = "%s, 0"`, target),
		fmt.Sprintf(`$s.Description = "%s - Point of Sale System"`, c.cfg.App.DisplayName),
		`$s.Save()`,
	}, "\r\n")
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return fmt.Errorf("failed to write shortcut script: %w", err)
	}
	defer os.Remove(scriptPath)

	runCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, powershellPath(),
		"-NoProfile", "-ExecutionPolicy", "Bypass", "-File", scriptPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("shortcut script failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}

	c.logger.Info().Str("path", shortcutPath).Msg("Desktop shortcut created")
	return nil
}

// powershellPath prefers the absolute System32 path, PATH lookup is not
// reliable for processes started from services or installers.
func powershellPath() string {
	systemRoot := os.Getenv("SYSTEMROOT")
	if systemRoot == "" {
		systemRoot = `C:\WINDOWS`
	}
	ps := filepath.Join(systemRoot, "System32", "WindowsPowerShell", "v1.0", "powershell.exe")
	if _, err := os.Stat(ps); err == nil {
		return ps
	}
	return "powershell"
}
