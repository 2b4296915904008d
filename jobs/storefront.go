package jobs

import (
	"context"
	"time"

	"b4u/config"
	"b4u/services"

	"github.com/rs/zerolog/log"
)

type PriceRefresher interface {
	Refresh(ctx context.Context) services.Quote
}

type TransactionSweeper interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
	Reconcile(ctx context.Context, cutoff time.Time) (int, error)
}

// PriceRefresh keeps the price cache and history warm.
func PriceRefresh(oracle PriceRefresher, every time.Duration) Job {
	return Job{
		Name:     "price-refresh",
		Interval: every,
		Run: func(ctx context.Context) error {
			q := oracle.Refresh(ctx)
			log.Debug().Str("source", q.Source).Str("value", q.Value.String()).Msg("pi price refreshed")
			return nil
		},
	}
}

// ExpirePending cancels PENDING transactions that never got a payment id.
func ExpirePending(sweeper TransactionSweeper, cfg config.JobsConfig) Job {
	return Job{
		Name:     "expire-pending",
		Interval: cfg.SweepInterval,
		Run: func(ctx context.Context) error {
			n, err := sweeper.ExpireStale(ctx, time.Now().Add(-cfg.StalePendingAfter))
			if n > 0 {
				log.Info().Int("count", n).Msg("✅ expired stale pending transactions")
			}
			return err
		},
	}
}

// ReconcileProcessing settles PROCESSING transactions whose completion
// callback never arrived.
func ReconcileProcessing(sweeper TransactionSweeper, cfg config.JobsConfig) Job {
	return Job{
		Name:     "reconcile-processing",
		Interval: cfg.SweepInterval,
		Run: func(ctx context.Context) error {
			_, err := sweeper.Reconcile(ctx, time.Now().Add(-cfg.ReconcileAfter))
			return err
		},
	}
}
