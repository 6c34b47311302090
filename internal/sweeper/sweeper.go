package sweeper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
	obsmetrics "github.com/smallbiznis/loyara/internal/observability/metrics"
	"github.com/smallbiznis/loyara/internal/qualification"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Directory  directorydomain.Directory
	Reconciler *qualification.Reconciler
	Policy     *config.PolicyHolder
	GenID      *snowflake.Node
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Config     Config              `optional:"true"`
}

// Sweeper is the authoritative backstop for expiry: customers who place no
// further orders still lose VIP status once the discount window lapses.
type Sweeper struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	directory  directorydomain.Directory
	reconciler *qualification.Reconciler
	policy     *config.PolicyHolder
	genID      *snowflake.Node
	metrics    *obsmetrics.Metrics
}

// Stats summarizes one sweep pass.
type Stats struct {
	Scanned int
	Demoted int
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Clock == nil || p.Directory == nil || p.Reconciler == nil || p.Policy == nil || p.GenID == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:        p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		directory:  p.Directory,
		reconciler: p.Reconciler,
		policy:     p.Policy,
		genID:      p.GenID,
		metrics:    p.Metrics,
	}, nil
}

// Sweep fetches every qualification record and demotes the expired ones.
// Per-customer failures are logged and skipped; the pass continues.
func (s *Sweeper) Sweep(ctx context.Context) (Stats, error) {
	var stats Stats
	policy := s.policy.Get()
	now := s.clock.Now()
	log := s.log.With(zap.String("run_id", s.genID.Generate().String()))

	records, err := s.directory.FetchAllQualificationAttributes(ctx)
	if err != nil {
		return stats, err
	}

	for _, record := range records {
		if strings.TrimSpace(record.Value) == "" {
			continue
		}
		stats.Scanned++

		if !expired(now, record.Value, policy.DiscountDays) {
			continue
		}

		if err := s.reconciler.DemoteRecord(ctx, record); err != nil {
			log.Warn("sweep demotion failed",
				zap.Int64("customer_id", record.CustomerID),
				zap.Error(err),
			)
			continue
		}
		stats.Demoted++
		log.Info("sweep demoted expired customer",
			zap.Int64("customer_id", record.CustomerID),
			zap.String("qualified_date", record.Value),
		)
	}

	return stats, nil
}

// expired reports whether the recorded date is beyond the discount window.
// Unparseable dates count as expired, matching the evaluator's fail-safe.
func expired(now time.Time, date string, discountDays int) bool {
	qualified, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return true
	}
	return int(now.Sub(qualified).Hours()/24) > discountDays
}

func (s *Sweeper) RunOnce(parent context.Context) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.PassTimeout)
	defer cancel()

	stats, err := s.Sweep(ctx)
	if s.metrics != nil {
		s.metrics.ObserveSweep(time.Since(start), stats.Demoted)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.log.Warn("sweep pass timed out", zap.Duration("timeout", s.cfg.PassTimeout), zap.Error(err))
			return nil
		}
		return err
	}

	s.log.Info("sweep pass finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("demoted", stats.Demoted),
	)
	return nil
}

// RunForever sweeps once immediately, then on every tick until the context
// is canceled.
func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{RunInterval: cfg.SweepInterval}
}

var Module = fx.Module("sweeper",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(StartSweeper),
)

func StartSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sweeper.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
