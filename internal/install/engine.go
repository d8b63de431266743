// Package install implements the launcher's core decision flow: first-time
// install, foreground update on startup, and the silent background cycle.
// All three share one staged install procedure, and whatever happens to an
// update attempt, launching the installed executable always comes first.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/backup"
	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/history"
	"github.com/zocopos/launcher/internal/integrity"
	"github.com/zocopos/launcher/internal/process"
	"github.com/zocopos/launcher/internal/release"
	"github.com/zocopos/launcher/internal/retry"
	"github.com/zocopos/launcher/internal/shell"
	"github.com/zocopos/launcher/internal/shortcut"
)

// removeRetryDelay is how long to wait before retrying removal of the
// current executable. Windows keeps the file locked briefly after the
// process exits.
const removeRetryDelay = 2 * time.Second

var (
	// ErrInstallInFlight is returned when an install is requested while
	// another one is still running. The second caller fails fast instead of
	// queueing.
	ErrInstallInFlight = errors.New("an install is already in progress")

	// ErrIntegrityMismatch is returned when a staged artifact does not match
	// its published digest. The staged file is already deleted by then.
	ErrIntegrityMismatch = errors.New("downloaded file failed integrity check")
)

type State string

const (
	StateStarting       State = "starting"
	StateNotInstalled   State = "not-installed"
	StateChecking       State = "checking"
	StateReadyToInstall State = "ready-to-install"
	StateDownloading    State = "downloading"
	StateVerifying      State = "verifying"
	StateReplacing      State = "replacing"
	StateUpToDate       State = "up-to-date"
	StateOffline        State = "offline"
	StateLaunched       State = "launched"
	StateFailed         State = "failed"
)

// Status is the engine's externally visible state, served over the REST API
// and snapshotted under the engine mutex.
type Status struct {
	State            State      `json:"state"`
	Mode             string     `json:"mode"`
	InstalledVersion string     `json:"installedVersion"`
	AvailableVersion string     `json:"availableVersion,omitempty"`
	Progress         int        `json:"progress"`
	Error            string     `json:"error,omitempty"`
	LastChecked      *time.Time `json:"lastChecked,omitempty"`
}

// Engine owns the install state machine. It is safe for concurrent use:
// the shell's action handlers, the REST API and the background monitor all
// call into it.
type Engine struct {
	cfg        *config.Config
	source     release.Source
	backups    *backup.Manager
	supervisor *process.Supervisor
	shortcuts  shortcut.Creator
	attempts   *history.Service
	notifier   shell.Notifier
	logger     zerolog.Logger

	mu      sync.RWMutex
	status  Status
	pending *release.Descriptor

	// installMu serializes the install procedure itself. TryLock, never
	// Lock: concurrent triggers are refused, not queued.
	installMu sync.Mutex

	retryMu     sync.Mutex
	retryAction func(ctx context.Context)

	startupBegun atomic.Bool

	launchHook     func()
	launchHookOnce sync.Once
}

// NewEngine wires the install engine. attempts may be nil, in which case no
// audit rows are written.
func NewEngine(cfg *config.Config, source release.Source, backups *backup.Manager, supervisor *process.Supervisor, shortcuts shortcut.Creator, attempts *history.Service, notifier shell.Notifier, logger *zerolog.Logger) *Engine {
	rec := ReadRecord(cfg.VersionFilePath())
	return &Engine{
		cfg:        cfg,
		source:     source,
		backups:    backups,
		supervisor: supervisor,
		shortcuts:  shortcuts,
		attempts:   attempts,
		notifier:   notifier,
		logger:     logger.With().Str("component", "install").Logger(),
		status: Status{
			State:            StateStarting,
			Mode:             cfg.Mode,
			InstalledVersion: rec.Version,
		},
	}
}

// SetLaunchHook registers fn to run once, after the first successful launch.
// main uses it to start the background monitor only when there is a running
// app to monitor.
func (e *Engine) SetLaunchHook(fn func()) {
	e.launchHook = fn
}

func (e *Engine) GetStatus() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

func (e *Engine) setState(state State, err error) {
	e.mu.Lock()
	e.status.State = state
	if err != nil {
		e.status.Error = err.Error()
	} else {
		e.status.Error = ""
	}
	e.mu.Unlock()
}

func (e *Engine) setProgress(n shell.Notifier, percent int) {
	e.mu.Lock()
	e.status.Progress = percent
	e.mu.Unlock()
	n.Progress(percent)
}

func (e *Engine) setAvailable(version string) {
	e.mu.Lock()
	e.status.AvailableVersion = version
	e.mu.Unlock()
}

func (e *Engine) setInstalled(version string) {
	e.mu.Lock()
	e.status.InstalledVersion = version
	e.status.AvailableVersion = ""
	e.mu.Unlock()
}

func (e *Engine) touchChecked() {
	now := time.Now()
	e.mu.Lock()
	e.status.LastChecked = &now
	e.mu.Unlock()
}

// Startup runs the boot flow once the shell reports ready. The flow runs
// exactly once; a reconnecting shell only gets the current version
// re-published so a reopened window has something to show.
func (e *Engine) Startup(ctx context.Context) {
	if !e.startupBegun.CompareAndSwap(false, true) {
		e.notifier.Version(ReadRecord(e.cfg.VersionFilePath()).Version)
		e.logger.Debug().Msg("Shell reconnected")
		return
	}
	e.startupFlow(ctx)
}

func (e *Engine) startupFlow(ctx context.Context) {
	rec := ReadRecord(e.cfg.VersionFilePath())
	e.notifier.Version(rec.Version)
	e.logger.Info().
		Str("mode", e.cfg.Mode).
		Str("install_root", e.cfg.Install.Root).
		Str("data_root", e.cfg.Install.DataRoot).
		Str("installed_version", rec.Version).
		Msg("Launcher starting")

	if e.supervisor.ExecutablePresent() {
		e.RunUpdate(ctx)
		return
	}
	e.RunFirstInstall(ctx)
}

// RunFirstInstall checks the release source and, when a release is
// available, asks the user to confirm before anything is written. It never
// installs on its own.
func (e *Engine) RunFirstInstall(ctx context.Context) {
	e.setState(StateNotInstalled, nil)
	e.notifier.Status(fmt.Sprintf("Welcome to %s", e.cfg.App.DisplayName), "First time setup required")
	e.setProgress(e.notifier, 0)
	e.notifier.ProgressLabel("", "")

	e.setState(StateChecking, nil)
	e.notifier.Status("Checking source...", "")

	desc, found, err := e.source.FetchLatest(ctx)
	e.touchChecked()
	if err != nil || !found {
		e.failFirstInstallFetch(err)
		return
	}

	e.stashPending(desc)
	e.setState(StateReadyToInstall, nil)
	e.notifier.Status(
		fmt.Sprintf("Ready to install v%s", desc.Version),
		fmt.Sprintf("Source: %s | Size: %s MB", sourceLabel(desc.SourceKind), sizeMB(desc.SizeBytes)),
	)
	e.setProgress(e.notifier, 0)
	e.notifier.ProgressLabel("", "")
	e.notifier.ShowInstallButton()
}

func (e *Engine) failFirstInstallFetch(err error) {
	if err == nil {
		err = errors.New("source has no release to offer")
	}
	e.logger.Warn().Err(err).Msg("First install cannot proceed")
	e.setState(StateFailed, err)

	if e.cfg.Mode == config.ModeLocal {
		e.notifier.Status("Source not found",
			fmt.Sprintf("%s not found in %s", e.cfg.App.Executable, filepath.ToSlash(e.cfg.Source.Local.Dir)))
		e.notifier.Error("Source not found")
	} else {
		e.notifier.Status("Server unavailable", "Check internet connection or GitHub")
		e.notifier.Error("Server unavailable")
	}
	e.setRetry(e.RunFirstInstall)
	e.notifier.ShowRetryButton()
}

// ConfirmInstall performs the first-time install after the user clicks
// Install in the shell.
func (e *Engine) ConfirmInstall(ctx context.Context) {
	desc, ok := e.peekPending()
	if !ok {
		e.logger.Error().Msg("Install confirmed with no pending release")
		return
	}

	e.notifier.HideInstallButton()
	e.notifier.HideRetryButton()

	err := e.apply(ctx, desc, true, history.TriggerInstall, e.notifier)
	if errors.Is(err, ErrInstallInFlight) {
		e.logger.Warn().Msg("Install already in progress")
		return
	}
	if err != nil {
		e.logger.Error().Err(err).Str("version", desc.Version).Msg("First install failed")
		e.setState(StateFailed, err)
		e.notifier.Status("Installation failed", "Check source and try again")
		e.notifier.Error("Installation failed")
		e.setRetry(e.ConfirmInstall)
		e.notifier.ShowRetryButton()
		return
	}
	e.clearPending()

	e.notifier.Status("Creating shortcut...", "Adding to desktop")
	if err := e.shortcuts.Create(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("Shortcut creation failed, continuing")
	}

	e.notifier.Status("Installation complete!", "Launching app...")
	e.notifier.Version(desc.Version)
	e.setProgress(e.notifier, 100)
	e.launch(ctx)
}

// RunUpdate is the foreground update path for an installed app. A different
// available version is applied without confirmation, and launching the
// installed executable is the final step no matter how the update went.
func (e *Engine) RunUpdate(ctx context.Context) {
	rec := ReadRecord(e.cfg.VersionFilePath())

	e.setState(StateChecking, nil)
	e.notifier.Status("Checking for updates...", fmt.Sprintf("Current version: %s", rec.Version))
	e.notifier.ProgressIndeterminate()

	desc, found, err := e.source.FetchLatest(ctx)
	e.touchChecked()

	switch {
	case err != nil:
		e.logger.Warn().Err(err).Msg("Release check failed, continuing offline")
		e.setState(StateOffline, nil)
		e.notifier.Status("Offline mode", fmt.Sprintf("Using v%s", rec.Version))
	case !found:
		e.logger.Info().Msg("Source has no release to offer, continuing offline")
		e.setState(StateOffline, nil)
		e.notifier.Status("Offline mode", fmt.Sprintf("Using v%s", rec.Version))
	case desc.Version == rec.Version:
		e.setState(StateUpToDate, nil)
		e.notifier.Status("App is up to date", "v"+rec.Version)
	default:
		e.applyForegroundUpdate(ctx, rec, desc)
		return
	}

	e.setProgress(e.notifier, 100)
	e.notifier.ProgressLabel("", "")
	e.launch(ctx)
}

func (e *Engine) applyForegroundUpdate(ctx context.Context, rec Record, desc release.Descriptor) {
	e.logVersionChange(rec.Version, desc.Version)
	e.setAvailable(desc.Version)
	e.notifier.Status(fmt.Sprintf("Updating to v%s...", desc.Version), fmt.Sprintf("From v%s", rec.Version))

	err := e.apply(ctx, desc, false, history.TriggerUpdate, e.notifier)
	switch {
	case err == nil:
		e.notifier.Status(fmt.Sprintf("Updated to v%s", desc.Version), "")
		e.notifier.Version(desc.Version)
		e.setProgress(e.notifier, 100)
	case errors.Is(err, ErrInstallInFlight):
		e.logger.Warn().Msg("Install already in progress, launching current version")
	default:
		e.logger.Error().Err(err).Str("version", desc.Version).Msg("Update failed, launching current version")
		e.setState(StateFailed, err)
		e.notifier.Status("Update failed, using current version", "")
	}
	e.launch(ctx)
}

// logVersionChange records whether a pending change is an upgrade or a
// downgrade. The trigger itself is plain version inequality, so a published
// rollback applies just like an upgrade.
func (e *Engine) logVersionChange(from, to string) {
	cmp, ok := release.CompareVersions(from, to)
	msg := "Applying version change"
	switch {
	case ok && cmp < 0:
		msg = "Applying upgrade"
	case ok && cmp > 0:
		msg = "Applying downgrade"
	}
	e.logger.Info().Str("from", from).Str("to", to).Msg(msg)
}

// CheckAndApply is one background monitor cycle: check quietly, and when a
// different version is published, wait for the app to close and swap the
// binary in place. Nothing here reaches the shell; failures surface at the
// next cycle or the next launch.
func (e *Engine) CheckAndApply(ctx context.Context) error {
	if !e.supervisor.ExecutablePresent() {
		e.logger.Debug().Msg("No installation present, skipping background check")
		return nil
	}

	rec := ReadRecord(e.cfg.VersionFilePath())

	var (
		desc  release.Descriptor
		found bool
	)
	err := retry.Do(ctx, "background release check", retry.Default(), func() error {
		var ferr error
		desc, found, ferr = e.source.FetchLatest(ctx)
		return ferr
	}, &e.logger)
	e.touchChecked()
	if err != nil {
		return fmt.Errorf("failed to check release source: %w", err)
	}
	if !found {
		e.logger.Debug().Msg("Background check found no release")
		return nil
	}
	if desc.Version == rec.Version {
		e.logger.Debug().Str("version", rec.Version).Msg("Background check found app up to date")
		return nil
	}

	e.logVersionChange(rec.Version, desc.Version)
	e.setAvailable(desc.Version)

	stopped, err := e.supervisor.WaitForExit(ctx, e.cfg.Monitor.ExitPollInterval, e.cfg.Monitor.ExitMaxWait)
	if err != nil {
		return fmt.Errorf("failed waiting for application exit: %w", err)
	}
	if !stopped {
		e.logger.Info().Str("version", desc.Version).Msg("Application still running, deferring update to next cycle")
		return nil
	}

	err = e.apply(ctx, desc, false, history.TriggerBackground, shell.NopNotifier{})
	if errors.Is(err, ErrInstallInFlight) {
		e.logger.Info().Msg("Skipping background update, install already in progress")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply background update to v%s: %w", desc.Version, err)
	}

	e.logger.Info().Str("version", desc.Version).Msg("Background update complete")
	return nil
}

// Retry re-runs whatever step last failed. Wired to the shell's Retry
// button.
func (e *Engine) Retry(ctx context.Context) {
	e.retryMu.Lock()
	fn := e.retryAction
	e.retryMu.Unlock()

	if fn == nil {
		e.logger.Warn().Msg("Retry requested with nothing to retry")
		return
	}
	e.notifier.HideRetryButton()
	fn(ctx)
}

func (e *Engine) setRetry(fn func(ctx context.Context)) {
	e.retryMu.Lock()
	e.retryAction = fn
	e.retryMu.Unlock()
}

func (e *Engine) stashPending(desc release.Descriptor) {
	e.mu.Lock()
	e.pending = &desc
	e.status.AvailableVersion = desc.Version
	e.mu.Unlock()
}

// peekPending returns the stashed descriptor without clearing it, so a
// failed confirm can be retried against the same release.
func (e *Engine) peekPending() (release.Descriptor, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.pending == nil {
		return release.Descriptor{}, false
	}
	return *e.pending, true
}

func (e *Engine) clearPending() {
	e.mu.Lock()
	e.pending = nil
	e.mu.Unlock()
}

// apply is the install procedure shared by first install, foreground update
// and the background cycle. It serializes on installMu and writes one audit
// row per attempt, success or not.
func (e *Engine) apply(ctx context.Context, desc release.Descriptor, firstTime bool, trigger history.Trigger, n shell.Notifier) error {
	if !e.installMu.TryLock() {
		return ErrInstallInFlight
	}
	defer e.installMu.Unlock()

	fromVersion := ReadRecord(e.cfg.VersionFilePath()).Version
	started := time.Now().UTC()

	err := e.install(ctx, desc, firstTime, n)
	e.recordAttempt(ctx, trigger, fromVersion, desc, started, err)
	return err
}

func (e *Engine) install(ctx context.Context, desc release.Descriptor, firstTime bool, n shell.Notifier) (err error) {
	defer func() {
		if err != nil {
			e.restoreIfMissing()
		}
	}()

	if !firstTime && e.supervisor.ExecutablePresent() {
		n.Status("Backing up current version...", "")
		if _, berr := e.backups.BackupBinary(); berr != nil {
			e.logger.Warn().Err(berr).Msg("Binary backup failed, continuing")
		}
		if _, berr := e.backups.BackupData(); berr != nil {
			e.logger.Warn().Err(berr).Msg("Data backup failed, continuing")
		}
	}

	staged := filepath.Join(e.cfg.StagingDir(), stagedName(e.cfg.App.Executable))
	e.setState(StateDownloading, nil)
	if err := e.acquire(ctx, desc, staged, firstTime, n); err != nil {
		return err
	}

	e.setState(StateVerifying, nil)
	digest, err := e.verifyStaged(staged, desc, n)
	if err != nil {
		return err
	}

	e.setState(StateReplacing, nil)
	n.Status("Installing...", "Almost done")
	e.setProgress(n, 95)
	if err := e.replaceExecutable(staged); err != nil {
		return err
	}

	rec := NewRecord(desc.Version, digest, desc.SourceKind)
	if err := WriteRecord(e.cfg.VersionFilePath(), rec); err != nil {
		return err
	}

	e.setInstalled(desc.Version)
	e.setProgress(n, 100)
	e.logger.Info().Str("version", desc.Version).Str("source", desc.SourceKind).Msg("Install complete")
	return nil
}

func (e *Engine) acquire(ctx context.Context, desc release.Descriptor, staged string, firstTime bool, n shell.Notifier) error {
	if err := os.MkdirAll(filepath.Dir(staged), 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	action := "Updating"
	if firstTime {
		action = "Installing"
	}
	if desc.SourceKind == release.KindLocal {
		return e.acquireLocal(ctx, desc, staged, action, n)
	}
	return e.acquireRemote(ctx, desc, staged, action, n)
}

// acquireLocal copies from the build directory. The copy is near
// instantaneous, so progress is three coarse steps instead of byte counts.
func (e *Engine) acquireLocal(ctx context.Context, desc release.Descriptor, staged, action string, n shell.Notifier) error {
	n.Status(fmt.Sprintf("%s v%s...", action, desc.Version), "Copying from local build...")
	mbTotal := float64(desc.SizeBytes) / (1024 * 1024)

	e.setProgress(n, 10)
	n.ProgressLabel(fmt.Sprintf("0.0 / %.1f MB", mbTotal), "10%")

	e.setProgress(n, 30)
	n.ProgressLabel(fmt.Sprintf("%.1f / %.1f MB", mbTotal*0.3, mbTotal), "30%")

	if err := e.source.Download(ctx, desc, staged, nil); err != nil {
		return err
	}

	e.setProgress(n, 80)
	n.ProgressLabel(fmt.Sprintf("%.1f / %.1f MB", mbTotal*0.8, mbTotal), "80%")
	return nil
}

func (e *Engine) acquireRemote(ctx context.Context, desc release.Descriptor, staged, action string, n shell.Notifier) error {
	n.Status(fmt.Sprintf("%s v%s...", action, desc.Version), "Downloading...")

	var lastUpdate, lastLog time.Time
	progress := func(written, total int64) {
		if total <= 0 {
			return
		}
		lastUpdate = e.maybeUpdateProgress(n, written, total, lastUpdate)
		lastLog = e.maybeLogProgress(written, total, lastLog)
	}

	return e.source.Download(ctx, desc, staged, progress)
}

// maybeUpdateProgress throttles shell progress events to one per 100ms. The
// final chunk always goes through so the bar lands on 100.
func (e *Engine) maybeUpdateProgress(n shell.Notifier, written, total int64, lastUpdate time.Time) time.Time {
	if time.Since(lastUpdate) <= 100*time.Millisecond && written != total {
		return lastUpdate
	}
	pct := int(float64(written) / float64(total) * 100)
	e.setProgress(n, pct)
	n.ProgressLabel(
		fmt.Sprintf("%.1f / %.1f MB", float64(written)/(1024*1024), float64(total)/(1024*1024)),
		fmt.Sprintf("%d%%", pct),
	)
	return time.Now()
}

// maybeLogProgress logs download progress at most every 5 seconds.
func (e *Engine) maybeLogProgress(written, total int64, lastLog time.Time) time.Time {
	if time.Since(lastLog) <= 5*time.Second {
		return lastLog
	}
	e.logger.Debug().Int64("written", written).Int64("total", total).Msg("Download progress")
	return time.Now()
}

// verifyStaged checks the staged artifact against the published digest and
// returns the actual digest for the version record. A source that publishes
// no digest installs unverified, with a log line to show for it.
func (e *Engine) verifyStaged(staged string, desc release.Descriptor, n shell.Notifier) (string, error) {
	n.Status("Verifying integrity...", "Checking SHA256")
	e.setProgress(n, 90)

	ok, actual, err := integrity.Verify(staged, desc.ExpectedSHA256)
	if err != nil {
		return "", fmt.Errorf("failed to verify staged file: %w", err)
	}
	if !ok {
		e.logger.Error().
			Str("expected", strings.ToUpper(desc.ExpectedSHA256)).
			Str("actual", actual).
			Msg("Integrity check failed, discarding staged file")
		if rmErr := os.Remove(staged); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn().Err(rmErr).Msg("Failed to remove corrupt staged file")
		}
		n.Status("Integrity check failed!", "Downloaded file is corrupted")
		n.Error("Integrity check failed!")
		return "", ErrIntegrityMismatch
	}

	if desc.ExpectedSHA256 == "" {
		e.logger.Warn().Str("version", desc.Version).Msg("Source published no digest, installing unverified")
		return actual, nil
	}
	n.ProgressLabel("Integrity verified", "")
	return actual, nil
}

// replaceExecutable swaps the staged binary into the canonical path. The
// managed app is stopped at this point, but on Windows the old file can
// stay locked briefly after exit, so removal gets one delayed retry and a
// rename aside as the final fallback.
func (e *Engine) replaceExecutable(staged string) error {
	if err := os.Chmod(staged, 0o755); err != nil {
		return fmt.Errorf("failed to make staged binary executable: %w", err)
	}

	exePath := e.cfg.ExecutablePath()
	if _, err := os.Stat(exePath); err == nil {
		if err := e.removeCurrent(exePath); err != nil {
			return err
		}
	}

	if err := os.Rename(staged, exePath); err != nil {
		return fmt.Errorf("failed to move staged executable into place: %w", err)
	}
	return nil
}

func (e *Engine) removeCurrent(exePath string) error {
	err := os.Remove(exePath)
	if err == nil {
		return nil
	}
	e.logger.Warn().Err(err).Msg("Executable still locked, retrying removal")
	time.Sleep(removeRetryDelay)

	if err := os.Remove(exePath); err == nil {
		return nil
	}

	// A rename within the same directory works even while the file is held
	// open, which removal does not.
	oldPath := exePath + ".old"
	_ = os.Remove(oldPath)
	if err := os.Rename(exePath, oldPath); err != nil {
		return fmt.Errorf("failed to clear current executable: %w", err)
	}
	e.logger.Warn().Str("path", oldPath).Msg("Renamed locked executable aside")
	return nil
}

// restoreIfMissing puts the newest binary backup back when a failed install
// left no executable behind. Launch must keep working even if an update
// dies halfway through the swap.
func (e *Engine) restoreIfMissing() {
	if e.supervisor.ExecutablePresent() {
		return
	}
	restored, err := e.backups.RestoreLatestBinary()
	switch {
	case err != nil:
		e.logger.Error().Err(err).Msg("Failed to restore executable from backup")
	case restored:
		e.logger.Info().Msg("Restored previous executable from backup")
	default:
		e.logger.Warn().Msg("No backup available to restore")
	}
}

// recordAttempt writes the audit row for one install attempt. Auditing
// never gates the install result; failures are logged and dropped.
func (e *Engine) recordAttempt(ctx context.Context, trigger history.Trigger, fromVersion string, desc release.Descriptor, started time.Time, installErr error) {
	if e.attempts == nil {
		return
	}

	attempt := history.Attempt{
		Trigger:     trigger,
		Source:      desc.SourceKind,
		FromVersion: fromVersion,
		ToVersion:   desc.Version,
		Outcome:     history.OutcomeSuccess,
		StartedAt:   started,
	}
	if installErr != nil {
		attempt.Outcome = history.OutcomeFailure
		attempt.Detail = installErr.Error()
	}
	if err := e.attempts.Record(ctx, attempt); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to record install attempt")
	}
}

// launch starts the managed app and sends the shell to the background. On
// failure the shell stays visible with Retry wired to the right recovery.
func (e *Engine) launch(ctx context.Context) {
	if err := e.supervisor.Launch(); err != nil {
		e.setState(StateFailed, err)
		if errors.Is(err, process.ErrExecutableMissing) {
			e.notifier.Error(fmt.Sprintf("%s not found!", e.cfg.App.Executable))
			e.setRetry(e.startupFlow)
		} else {
			e.logger.Error().Err(err).Msg("Launch failed")
			e.notifier.Error("Launch failed: " + truncate(err.Error(), 40))
			e.setRetry(e.launch)
		}
		e.notifier.ShowRetryButton()
		return
	}

	rec := ReadRecord(e.cfg.VersionFilePath())
	e.mu.Lock()
	e.status.State = StateLaunched
	e.status.InstalledVersion = rec.Version
	e.status.Error = ""
	e.mu.Unlock()

	e.notifier.HideWindow()
	e.logger.Info().Msg("Shell hidden, background monitor takes over")

	e.launchHookOnce.Do(func() {
		if e.launchHook != nil {
			e.launchHook()
		}
	})
}

// stagedName derives the staging file name, ZocoPOS.exe -> ZocoPOS_new.exe.
func stagedName(executable string) string {
	ext := filepath.Ext(executable)
	return strings.TrimSuffix(executable, ext) + "_new" + ext
}

func sourceLabel(kind string) string {
	if kind == release.KindLocal {
		return "Local"
	}
	return "GitHub"
}

func sizeMB(sizeBytes int64) string {
	if sizeBytes <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f", float64(sizeBytes)/(1024*1024))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
