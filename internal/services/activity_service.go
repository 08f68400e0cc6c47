package services

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
)

// RateConverter prices a wei amount in USD cents. A zero result with no
// error means pricing was unavailable and the caller should store zero.
type RateConverter interface {
	WeiToUsdCents(ctx context.Context, wei *big.Int) (int64, error)
}

// RecordOutcomeParams describes one terminal execution for the audit log.
type RecordOutcomeParams struct {
	Request        db.DelegationRequest
	GasUsed        uint64
	GasCostWei     *big.Int
	TxHash         string
	AttestationUID string
}

// ActivityService maintains the append-only sponsorship audit log and raises
// cost alerts derived from it.
type ActivityService struct {
	queries          db.Querier
	rates            RateConverter
	alerts           *AlertService
	highCostUsdCents int64
	logger           *zap.Logger
}

func NewActivityService(queries db.Querier, rates RateConverter, alerts *AlertService, highCostUsdCents int64) *ActivityService {
	return &ActivityService{
		queries:          queries,
		rates:            rates,
		alerts:           alerts,
		highCostUsdCents: highCostUsdCents,
		logger:           logger.Log,
	}
}

// RecordOutcome appends one audit record for a terminal submission. Pricing
// failure degrades to zero cents; the wei cost is always exact.
func (s *ActivityService) RecordOutcome(ctx context.Context, params RecordOutcomeParams) error {
	costWei := params.GasCostWei
	if costWei == nil {
		costWei = big.NewInt(0)
	}

	var usdCents int64
	if s.rates != nil {
		cents, err := s.rates.WeiToUsdCents(ctx, costWei)
		if err != nil {
			s.logger.Warn("Failed to price gas cost, recording zero cents",
				zap.String("request_id", params.Request.ID.String()),
				zap.Error(err),
			)
		} else {
			usdCents = cents
		}
	}

	var attestationUID pgtype.Text
	if params.AttestationUID != "" {
		attestationUID = pgtype.Text{String: params.AttestationUID, Valid: true}
	}

	activity, err := s.queries.CreateSponsoredActivity(ctx, db.CreateSponsoredActivityParams{
		ID:              uuid.New(),
		RequestID:       params.Request.ID,
		UserID:          params.Request.UserID,
		SchemaUID:       params.Request.SchemaUID,
		ChainID:         params.Request.ChainID,
		ContextID:       params.Request.ContextID,
		GasUsed:         int64(params.GasUsed),
		GasCostWei:      costWei.String(),
		GasCostUsdCents: usdCents,
		TxHash:          params.TxHash,
		AttestationUID:  attestationUID,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Recorded sponsored execution",
		zap.String("request_id", params.Request.ID.String()),
		zap.String("tx_hash", params.TxHash),
		zap.Int64("gas_used", activity.GasUsed),
		zap.Int64("usd_cents", usdCents),
	)

	if s.highCostUsdCents > 0 && usdCents >= s.highCostUsdCents {
		s.alerts.NotifyHighCost(params.Request.UserID, params.TxHash, usdCents, s.highCostUsdCents)
	}
	return nil
}

// ListByUser pages a user's audit history, newest first.
func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]db.SponsoredActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.queries.ListSponsoredActivityByUser(ctx, db.ListSponsoredActivityByUserParams{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
}

// DailyUsage recomputes a user's executed count for a UTC day from the audit
// log. This is the reconciliation view; admission reads the live counters.
func (s *ActivityService) DailyUsage(ctx context.Context, userID, schemaUID string, day time.Time) (int64, error) {
	return s.queries.CountSponsoredActivityForDay(ctx, db.CountSponsoredActivityForDayParams{
		UserID:    userID,
		SchemaUID: schemaUID,
		Day:       pgtype.Date{Time: day.UTC().Truncate(24 * time.Hour), Valid: true},
	})
}
