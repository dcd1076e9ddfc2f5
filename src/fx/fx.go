package fx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/config"
	"github.com/username/labelfolio/backend/src/logger"
)

var one = decimal.NewFromInt(1)

const rateCacheKey = "fx_rate_%s_%s_%s" // from, to, date

// Provider supplies the exchange rate for a currency pair on a date.
type Provider interface {
	GetRate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error)
}

// Service converts amounts between currencies with pluggable rate providers,
// caching one rate per pair and day. Converting a currency to itself always
// returns rate 1 without touching the provider.
type Service interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, decimal.Decimal, error)
	GetRate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error)
}

type serviceImpl struct {
	provider  Provider
	rateCache *cache.Cache
}

// NewService creates the conversion service. A nil provider falls back to a
// static provider with no configured rates; a nil cache disables caching.
func NewService(provider Provider, rateCache *cache.Cache) Service {
	if provider == nil {
		provider = NewStaticProvider(nil)
	}
	return &serviceImpl{provider: provider, rateCache: rateCache}
}

// NewServiceFromConfig assembles the conversion service from the loaded
// application config: an HTTP provider when a rates API base URL is
// configured, the static fallback otherwise.
func NewServiceFromConfig() Service {
	if config.Cfg == nil {
		logger.L.Warn("Configuration (config.Cfg) is nil. FX service falls back to static rates.")
		return NewService(nil, nil)
	}

	rateCache := cache.New(config.Cfg.FXCacheTTL, config.Cfg.CacheCleanupInterval)
	if config.Cfg.FXProviderBaseURL == "" {
		logger.L.Info("No FX provider base URL configured, using static rates")
		return NewService(nil, rateCache)
	}

	logger.L.Info("Initializing HTTP FX provider",
		"baseURL", config.Cfg.FXProviderBaseURL, "timeout", config.Cfg.FXRequestTimeout.String())
	return NewService(NewHTTPProvider(config.Cfg.FXProviderBaseURL, config.Cfg.FXRequestTimeout), rateCache)
}

func (s *serviceImpl) GetRate(ctx context.Context, from, to string, on time.Time) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return one, nil
	}

	key := fmt.Sprintf(rateCacheKey, from, to, on.Format("2006-01-02"))
	if s.rateCache != nil {
		if cached, found := s.rateCache.Get(key); found {
			if rate, ok := cached.(decimal.Decimal); ok {
				return rate, nil
			}
		}
	}

	rate, err := s.provider.GetRate(ctx, from, to, on)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get FX rate for %s->%s: %w", from, to, err)
	}
	if s.rateCache != nil {
		s.rateCache.Set(key, rate, cache.DefaultExpiration)
	}
	return rate, nil
}

// Convert returns the amount expressed in the target currency and the rate
// used.
func (s *serviceImpl) Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, decimal.Decimal, error) {
	rate, err := s.GetRate(ctx, from, to, on)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return amount.Mul(rate), rate, nil
}
