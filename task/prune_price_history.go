package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type PricePruner interface {
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PrunePriceHistory drops Pi price samples older than keep. The newest
// sample is what the price fallback reads, so keep must stay well above the
// refresh interval.
func PrunePriceHistory(ctx context.Context, prices PricePruner, keep time.Duration) error {
	cutoff := time.Now().Add(-keep)
	n, err := prices.PruneBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to delete old price samples")
		return err
	}
	log.Info().Int64("deleted", n).Dur("older_than", keep).Msg("✅ Deleted old price samples")
	return nil
}
