// Package tasks wires concrete launcher work into the scheduler.
package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/install"
	"github.com/zocopos/launcher/internal/scheduler"
)

const UpdateCheckJobName = "update-check"

// UpdateCheckTask runs one silent background update cycle: check the
// release source, and when a different version is published, wait for the
// managed app to close and swap the binary.
type UpdateCheckTask struct {
	engine *install.Engine
	logger zerolog.Logger
}

func NewUpdateCheckTask(engine *install.Engine, logger *zerolog.Logger) *UpdateCheckTask {
	return &UpdateCheckTask{
		engine: engine,
		logger: logger.With().Str("task", UpdateCheckJobName).Logger(),
	}
}

func (t *UpdateCheckTask) Run(ctx context.Context) error {
	t.logger.Debug().Msg("Starting background update check")

	if err := t.engine.CheckAndApply(ctx); err != nil {
		t.logger.Warn().Err(err).Msg("Background update check failed")
		return err
	}
	return nil
}

// RegisterUpdateCheckTask registers the background update monitor. The
// first check fires one interval after startup, not immediately: the
// foreground flow has just checked.
func RegisterUpdateCheckTask(sched *scheduler.Scheduler, engine *install.Engine, interval time.Duration, logger *zerolog.Logger) error {
	task := NewUpdateCheckTask(engine, logger)

	return sched.Add(scheduler.Job{
		Name:  UpdateCheckJobName,
		Every: interval,
		Run:   task.Run,
	})
}
