// Package process watches and launches the managed application. The
// launcher never kills the app, it only detects it, starts it detached and
// waits for it to exit on its own before touching the binary.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/zocopos/launcher/internal/config"
)

// ErrExecutableMissing is returned by Launch when the canonical executable
// does not exist yet.
var ErrExecutableMissing = errors.New("managed executable not found")

// Supervisor inspects and launches the managed executable.
type Supervisor struct {
	cfg    *config.Config
	logger zerolog.Logger

	// probe reports whether the managed app is running. Tests replace it.
	probe func(ctx context.Context) (bool, error)
}

func NewSupervisor(cfg *config.Config, logger *zerolog.Logger) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		logger: logger.With().Str("component", "process").Logger(),
	}
	s.probe = s.enumerate
	return s
}

// ExecutablePresent reports whether the managed binary exists at its
// canonical path. Presence of the binary, not the version record, is what
// decides between first install and update.
func (s *Supervisor) ExecutablePresent() bool {
	_, err := os.Stat(s.cfg.ExecutablePath())
	return err == nil
}

// Running reports whether a process with the managed executable's name is
// currently alive.
func (s *Supervisor) Running(ctx context.Context) (bool, error) {
	return s.probe(ctx)
}

func (s *Supervisor) enumerate(ctx context.Context) (bool, error) {
	processes, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list processes: %w", err)
	}

	target := strings.ToLower(s.cfg.App.Executable)
	for _, p := range processes {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Processes can exit mid-enumeration or deny access.
			continue
		}
		if strings.ToLower(name) == target {
			return true, nil
		}
	}
	return false, nil
}

// Launch starts the managed executable detached from the launcher, with the
// app directory as working directory, so it survives a launcher exit.
func (s *Supervisor) Launch() error {
	exePath := s.cfg.ExecutablePath()
	if _, err := os.Stat(exePath); err != nil {
		if os.IsNotExist(err) {
			return ErrExecutableMissing
		}
		return fmt.Errorf("failed to stat executable: %w", err)
	}

	cmd := exec.Command(exePath)
	cmd.Dir = s.cfg.AppDir()
	setDetachedProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.cfg.App.Executable, err)
	}
	s.logger.Info().Int("pid", cmd.Process.Pid).Str("path", exePath).Msg("Application launched")

	// Reap the child when it exits. Without this an exited app lingers as a
	// zombie that still enumerates under its name, and WaitForExit would
	// never see it stop.
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

// WaitForExit polls until the managed app is no longer running. It returns
// true as soon as the app is gone, and false once maxWait elapses with the
// app still alive, in which case the caller skips its pending work for this
// cycle. Probe failures while waiting count as "still running": the binary
// is never replaced unless the app is provably stopped.
func (s *Supervisor) WaitForExit(ctx context.Context, pollInterval, maxWait time.Duration) (bool, error) {
	running, err := s.Running(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Process check failed")
	} else if !running {
		return true, nil
	}

	s.logger.Info().Dur("max_wait", maxWait).Msg("Waiting for application to exit")

	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			s.logger.Warn().Dur("max_wait", maxWait).Msg("Application still running after wait bound")
			return false, nil
		case <-ticker.C:
			running, err := s.Running(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Process check failed")
				continue
			}
			if !running {
				return true, nil
			}
		}
	}
}
