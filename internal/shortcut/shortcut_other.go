//go:build !windows

package shortcut

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/zocopos/launcher/internal/config"
)

type noopCreator struct {
	logger zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) Creator {
	return noopCreator{
		logger: logger.With().Str("component", "shortcut").Logger(),
	}
}

func (c noopCreator) Create(ctx context.Context) error {
	c.logger.Debug().Msg("Desktop shortcut not supported on this platform")
	return nil
}
