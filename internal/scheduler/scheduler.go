package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stayhub/partneredge/internal/clock"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GateSvc gatedomain.Service
	Config  Config `optional:"true"`
}

// Scheduler periodically re-evaluates gates for live orders so time-derived
// gates (cooling-off) and mirrored gates (account health) converge without
// an explicit event.
type Scheduler struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	gateSvc gatedomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Clock == nil || p.GateSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:      p.DB,
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		gateSvc: p.GateSvc,
	}, nil
}

// RunGateSweep evaluates a bounded slice of live orders. A failing order is
// logged and skipped; it is retried on the next run.
func (s *Scheduler) RunGateSweep(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	start := s.clock.Now()
	ids, err := s.fetchLiveOrderIDs(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	evaluated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.gateSvc.Evaluate(ctx, id.String()); err != nil {
			s.log.Warn("gate sweep evaluation failed",
				zap.String("order_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		evaluated++
	}

	s.log.Debug("gate sweep complete",
		zap.Int("orders", len(ids)),
		zap.Int("evaluated", evaluated),
		zap.Duration("took", s.clock.Now().Sub(start)),
	)
	return nil
}

func (s *Scheduler) fetchLiveOrderIDs(ctx context.Context, limit int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).Raw(
		`SELECT id FROM orders
		 WHERE settlement_status IN (?, ?)
		 ORDER BY id ASC
		 LIMIT ?`,
		orderdomain.SettlementStatusPending,
		orderdomain.SettlementStatusReady,
		limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func run(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(s.cfg.RunInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if err := s.RunGateSweep(ctx); err != nil && ctx.Err() == nil {
							s.log.Warn("gate sweep failed", zap.Error(err))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(run),
)
