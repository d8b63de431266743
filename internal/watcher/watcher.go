// Package watcher watches the local release directory so a freshly dropped
// build triggers an update check without waiting for the next monitor cycle.
package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
	"github.com/zocopos/launcher/internal/release"
)

// CheckFunc runs one release check cycle.
type CheckFunc func(ctx context.Context) error

// settleDelay is how long the release directory must stay quiet before a
// check fires. Copying a build emits a burst of create/write events, and
// firing on the first one would hash a half-copied file.
const settleDelay = 2 * time.Second

// ReleaseWatcher triggers an update check when the managed executable or its
// metadata sidecar changes in the local release directory. It only makes
// sense in local mode; GitHub releases have nothing to watch.
type ReleaseWatcher struct {
	dir    string
	check  CheckFunc
	logger zerolog.Logger

	fs     *fsnotify.Watcher
	settle time.Duration
	match  func(name string) bool

	mu    sync.Mutex
	timer *time.Timer
	burst int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReleaseWatcher creates a watcher over cfg's local release directory.
// Only the managed executable and its sidecar wake the check; anything else
// landing in the directory stays ignored.
func NewReleaseWatcher(cfg *config.Config, check CheckFunc, logger *zerolog.Logger) (*ReleaseWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exe := cfg.App.Executable
	ctx, cancel := context.WithCancel(context.Background())
	return &ReleaseWatcher{
		dir:    cfg.Source.Local.Dir,
		check:  check,
		logger: logger.With().Str("component", "release-watcher").Logger(),
		fs:     fs,
		settle: settleDelay,
		match: func(name string) bool {
			return name == exe || name == release.SidecarName
		},
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start begins watching. It fails when the release directory does not exist;
// the caller decides whether that is fatal.
func (rw *ReleaseWatcher) Start() error {
	dir, err := filepath.Abs(rw.dir)
	if err != nil {
		return err
	}
	if err := rw.fs.Add(dir); err != nil {
		return err
	}

	rw.wg.Add(1)
	go rw.loop()
	rw.logger.Info().Str("dir", dir).Msg("Watching release directory")
	return nil
}

// Stop stops watching and drains the event loop. A check already in flight
// sees the cancelled context and winds down on its own.
func (rw *ReleaseWatcher) Stop() error {
	rw.cancel()
	err := rw.fs.Close()
	rw.wg.Wait()

	rw.mu.Lock()
	if rw.timer != nil {
		rw.timer.Stop()
		rw.timer = nil
	}
	rw.mu.Unlock()
	return err
}

func (rw *ReleaseWatcher) loop() {
	defer rw.wg.Done()

	for {
		select {
		case <-rw.ctx.Done():
			return
		case ev, ok := <-rw.fs.Events:
			if !ok {
				return
			}
			rw.observe(ev)
		case err, ok := <-rw.fs.Errors:
			if !ok {
				return
			}
			rw.logger.Error().Err(err).Msg("Watch error")
		}
	}
}

// observe notes one event and pushes the settle timer back. Only create,
// write and rename count: a build being deleted is not something to install.
func (rw *ReleaseWatcher) observe(ev fsnotify.Event) {
	if !rw.match(filepath.Base(ev.Name)) {
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()
	rw.burst++
	if rw.timer == nil {
		rw.timer = time.AfterFunc(rw.settle, rw.fire)
		return
	}
	rw.timer.Reset(rw.settle)
}

// fire runs once the directory has stayed quiet for the settle delay. The
// check dedupes concurrent runs itself, so racing a monitor cycle is safe.
func (rw *ReleaseWatcher) fire() {
	rw.mu.Lock()
	events := rw.burst
	rw.burst = 0
	rw.timer = nil
	rw.mu.Unlock()

	if rw.ctx.Err() != nil {
		return
	}
	rw.logger.Info().Int("events", events).Msg("Release directory changed, checking for update")
	if err := rw.check(rw.ctx); err != nil {
		rw.logger.Warn().Err(err).Msg("Release check after directory change failed")
	}
}
