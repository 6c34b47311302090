package recency

import (
	"context"

	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	"go.uber.org/fx"
)

func New(lc fx.Lifecycle, cfg config.Config, clk clock.Clock) *Tracker {
	tracker := NewTracker(cfg.RecencyWindow, clk)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			tracker.Close()
			return nil
		},
	})
	return tracker
}

var Module = fx.Module("recency",
	fx.Provide(New),
)
