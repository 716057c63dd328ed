// Package scheduler runs the periodic maintenance loop. Its only job today
// is sweeping receipt assets whose bill rows are gone, which can happen when
// a row delete succeeds after the storage delete failed.
package scheduler

import (
	"context"
	"time"

	"github.com/vtk-it/declaro/internal/config"
	"github.com/vtk-it/declaro/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Receipts storage.ReceiptStore
	Cfg      config.Config
}

type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	receipts storage.ReceiptStore
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:       p.DB,
		log:      p.Log.Named("scheduler"),
		receipts: p.Receipts,
		interval: p.Cfg.ReceiptSweepInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.loop()
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.SweepOrphanedReceipts(context.Background()); err != nil {
				s.log.Warn("receipt sweep failed", zap.Error(err))
			} else if n > 0 {
				s.log.Info("receipt sweep removed orphans", zap.Int("count", n))
			}
		case <-s.stop:
			return
		}
	}
}

// SweepOrphanedReceipts removes stored assets no bill references anymore and
// reports how many it deleted.
func (s *Scheduler) SweepOrphanedReceipts(ctx context.Context) (int, error) {
	keys, err := s.receipts.List()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var referenced []string
	err = s.db.WithContext(ctx).
		Table("bills").
		Where("image <> ''").
		Pluck("image", &referenced).Error
	if err != nil {
		return 0, err
	}

	inUse := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		inUse[key] = struct{}{}
	}

	removed := 0
	for _, key := range keys {
		if _, ok := inUse[key]; ok {
			continue
		}
		if err := s.receipts.Delete(key); err != nil {
			s.log.Warn("orphaned receipt not removed", zap.String("key", key), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				s.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				s.Stop()
				return nil
			},
		})
	}),
)
