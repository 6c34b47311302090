package dedup

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func New(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, log *zap.Logger) (Deduplicator, error) {
	if cfg.DedupBackend == config.DedupBackendRedis {
		addr := strings.TrimSpace(cfg.RedisAddr)
		if addr == "" {
			return nil, errors.New("dedup redis addr is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return client.Close() },
		})
		log.Info("webhook dedup using redis backend", zap.String("addr", addr))
		store, err := NewRedisStore(client, cfg.DedupWindow)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store := NewMemoryStore(cfg.DedupWindow, clk)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			store.Close()
			return nil
		},
	})
	return store, nil
}

var Module = fx.Module("dedup",
	fx.Provide(New),
)
