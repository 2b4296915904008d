package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"b4u/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	SourceLive      = "live"
	SourceHistory   = "history-fallback"
	SourceHardcoded = "hardcoded-fallback"

	// PiPrecision is the number of decimals a Pi amount carries.
	PiPrecision = 7
)

var ErrInvalidPrice = errors.New("pi price must be positive")

type PriceFeed interface {
	FetchPiUSD(ctx context.Context) (decimal.Decimal, error)
}

type PriceHistory interface {
	Append(ctx context.Context, value decimal.Decimal, source string) error
	Latest(ctx context.Context) (*models.PiPrice, error)
}

type Quote struct {
	Value     decimal.Decimal `json:"value"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Cached    bool            `json:"cached"`
}

// PriceOracle serves the Pi/USD rate. A live price is cached for ttl; when the
// feed fails it falls back to the newest history row, then to a constant.
type PriceOracle struct {
	feed     PriceFeed
	history  PriceHistory
	ttl      time.Duration
	fallback decimal.Decimal
	now      func() time.Time

	mu     sync.Mutex
	cached *Quote
	group  singleflight.Group
}

func NewPriceOracle(feed PriceFeed, history PriceHistory, ttl time.Duration, fallback decimal.Decimal) *PriceOracle {
	return &PriceOracle{
		feed:     feed,
		history:  history,
		ttl:      ttl,
		fallback: fallback,
		now:      time.Now,
	}
}

// Current never fails.
func (o *PriceOracle) Current(ctx context.Context) Quote {
	o.mu.Lock()
	if c := o.cached; c != nil && o.now().Sub(c.Timestamp) < o.ttl {
		q := *c
		o.mu.Unlock()
		q.Cached = true
		return q
	}
	o.mu.Unlock()

	return o.Refresh(ctx)
}

// Refresh bypasses the cache. Concurrent callers share one upstream request.
func (o *PriceOracle) Refresh(ctx context.Context) Quote {
	v, _, _ := o.group.Do("pi-usd", func() (any, error) {
		return o.fetch(ctx), nil
	})
	return v.(Quote)
}

func (o *PriceOracle) fetch(ctx context.Context) Quote {
	value, err := o.feed.FetchPiUSD(ctx)
	if err == nil && value.IsPositive() {
		q := Quote{Value: value, Source: SourceLive, Timestamp: o.now()}

		o.mu.Lock()
		o.cached = &q
		o.mu.Unlock()

		if o.history != nil {
			if err := o.history.Append(ctx, value, SourceLive); err != nil {
				log.Warn().Err(err).Msg("failed to persist pi price sample")
			}
		}
		return q
	}
	if err == nil {
		err = ErrInvalidPrice
	}
	log.Warn().Err(err).Msg("live pi price unavailable, falling back")

	if o.history != nil {
		row, herr := o.history.Latest(ctx)
		if herr == nil && row.Value.IsPositive() {
			return Quote{Value: row.Value, Source: SourceHistory, Timestamp: row.CreatedAt}
		}
		if herr != nil {
			log.Warn().Err(herr).Msg("pi price history unavailable")
		}
	}

	return Quote{Value: o.fallback, Source: SourceHardcoded, Timestamp: o.now()}
}

// ConvertUSDToPi returns usd / price rounded to Pi precision.
func ConvertUSDToPi(usd decimal.Decimal, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return usd.DivRound(price, PiPrecision), nil
}
