package currency

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/logger"
)

// ErrUpstream wraps any failure to obtain a fresh rate.
var ErrUpstream = errors.New("exchange rate source unavailable")

// Rate is one observation of the USD exchange rate.
type Rate struct {
	Value     decimal.Decimal `json:"value"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Service returns the current rate, serving from cache while fresh. A miss
// makes exactly one outbound request; there is no retry and no fallback.
type Service struct {
	source Source
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// NewService creates a rate lookup. cache may be nil to disable caching.
func NewService(source Source, cache Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{source: source, cache: cache, ttl: ttl, now: time.Now, log: log}
}

// USD returns the rate and whether it came from cache.
func (s *Service) USD(ctx context.Context) (Rate, bool, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("Currency cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if cached != nil {
			return *cached, true, nil
		}
	}

	value, err := s.source.Fetch(ctx)
	if err != nil {
		s.log.Error("Failed to fetch exchange rate", err, map[string]interface{}{
			"source": s.source.Name(),
		})
		return Rate{}, false, errors.Join(ErrUpstream, err)
	}

	rate := Rate{Value: value, Source: s.source.Name(), FetchedAt: s.now().UTC()}
	if s.cache != nil {
		if err := s.cache.Set(ctx, rate, s.ttl); err != nil {
			s.log.Warn("Currency cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	s.log.Info("Fetched exchange rate", map[string]interface{}{
		"rate":   value.String(),
		"source": rate.Source,
	})
	return rate, false, nil
}
