package log

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"memberflow/internal/pkg/config"
)

// Module provides the zap logger to the Fx graph.
var Module = fx.Module("log",
	fx.Provide(NewLogger),
)

// NewLogger builds the process logger. The development profile is
// opt-in through config; production JSON output is the default.
func NewLogger(lc fx.Lifecycle, cfg *config.Bootstrap) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Log != nil && cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync can fail on stderr; nothing actionable.
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}
