package qualification

import (
	"github.com/smallbiznis/loyara/internal/config"
	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideReconciler(directory directorydomain.Directory, log *zap.Logger, cfg config.Config) *Reconciler {
	return NewReconciler(directory, log, cfg.VIPGroupID)
}

var Module = fx.Module("qualification",
	fx.Provide(
		provideReconciler,
		New,
	),
)
