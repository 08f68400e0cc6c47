package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"go.uber.org/zap"

	httpclient "github.com/veritix/veritix-api/internal/client/http"
	"github.com/veritix/veritix-api/internal/logger"
)

const (
	exchangeRatePath = "/api/v3/simple/price"
	exchangeRateTTL  = 5 * time.Minute
)

// ExchangeRateService prices gas costs in USD for the audit log. Quotes are
// cached; the log tolerates a slightly stale rate, not a missing one.
type ExchangeRateService struct {
	client *httpclient.Client
	logger *zap.Logger

	mu        sync.RWMutex
	ethUsd    float64
	fetchedAt time.Time
}

func NewExchangeRateService(baseURL string) *ExchangeRateService {
	return &ExchangeRateService{
		client: httpclient.NewClient(
			httpclient.WithBaseURL(baseURL),
			httpclient.WithTimeout(10*time.Second),
		),
		logger: logger.Log,
	}
}

// WeiToUsdCents converts a wei amount to USD cents at the current ETH quote.
func (s *ExchangeRateService) WeiToUsdCents(ctx context.Context, wei *big.Int) (int64, error) {
	if wei == nil || wei.Sign() == 0 {
		return 0, nil
	}

	rate, err := s.ethUsdRate(ctx)
	if err != nil {
		return 0, err
	}

	cents := new(big.Float).SetInt(wei)
	cents.Mul(cents, big.NewFloat(rate*100))
	cents.Quo(cents, big.NewFloat(1e18))
	out, _ := cents.Int64()
	return out, nil
}

func (s *ExchangeRateService) ethUsdRate(ctx context.Context) (float64, error) {
	s.mu.RLock()
	if s.ethUsd > 0 && time.Since(s.fetchedAt) < exchangeRateTTL {
		rate := s.ethUsd
		s.mu.RUnlock()
		return rate, nil
	}
	s.mu.RUnlock()

	resp, err := s.client.Get(ctx, exchangeRatePath,
		httpclient.WithQueryParam("ids", "ethereum"),
		httpclient.WithQueryParam("vs_currencies", "usd"),
	)
	if err != nil {
		return s.staleOrError(fmt.Errorf("failed to fetch ETH quote: %w", err))
	}

	var quotes map[string]map[string]float64
	if err := s.client.ProcessJSONResponse(resp, &quotes); err != nil {
		return s.staleOrError(fmt.Errorf("failed to decode ETH quote: %w", err))
	}

	rate := quotes["ethereum"]["usd"]
	if rate <= 0 {
		return s.staleOrError(fmt.Errorf("ETH quote missing from response"))
	}

	s.mu.Lock()
	s.ethUsd = rate
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("Refreshed ETH quote", zap.Float64("usd", rate))
	return rate, nil
}

// staleOrError falls back to the last known quote when a refresh fails.
func (s *ExchangeRateService) staleOrError(err error) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ethUsd > 0 {
		s.logger.Warn("ETH quote refresh failed, using stale rate",
			zap.Float64("usd", s.ethUsd),
			zap.Error(err),
		)
		return s.ethUsd, nil
	}
	return 0, err
}
