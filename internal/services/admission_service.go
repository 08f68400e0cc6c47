package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/schemas"
)

// DenialReason distinguishes admission denials so callers can present an
// accurate message and decide whether to fall back to a user-paid path.
type DenialReason string

const (
	DenialSystemDisabled     DenialReason = "system_disabled"
	DenialChainNotSupported  DenialReason = "chain_not_supported"
	DenialSchemaNotSupported DenialReason = "schema_not_supported"
	DenialGlobalLimitReached DenialReason = "global_limit_reached"
	DenialSchemaLimitReached DenialReason = "schema_limit_reached"
)

// AdmissionDecision is the result of one admission check.
type AdmissionDecision struct {
	Allowed bool
	Reason  DenialReason
	Message string

	// GlobalUsed/SchemaUsed carry the counter values after an allow, for the
	// caller's remaining-quota display. Zero when the check did not apply.
	GlobalUsed  int32
	GlobalLimit int32
	SchemaUsed  int32
	SchemaLimit int32
}

// AdmissionService gates sponsored submissions: kill switch, chain and schema
// whitelists, then per-user daily quotas. It is the sole writer of quota
// counters; the allow path increments them in the same statement that checks
// the limit.
type AdmissionService struct {
	queries  db.Querier
	registry *schemas.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// NewAdmissionService creates an admission controller.
func NewAdmissionService(queries db.Querier, registry *schemas.Registry) *AdmissionService {
	return NewAdmissionServiceWithClock(queries, registry, time.Now)
}

// NewAdmissionServiceWithClock allows tests to pin the quota window boundary.
func NewAdmissionServiceWithClock(queries db.Querier, registry *schemas.Registry, now func() time.Time) *AdmissionService {
	return &AdmissionService{
		queries:  queries,
		registry: registry,
		logger:   logger.Log,
		now:      now,
	}
}

// CheckAdmission runs the ordered admission checks, short-circuiting on the
// first failure. On allow, the relevant counters have already been
// incremented; counters are never decremented afterwards, even if the
// submission later fails.
func (s *AdmissionService) CheckAdmission(ctx context.Context, userID, schemaUID string, chainID int64) (*AdmissionDecision, error) {
	cfg, err := s.queries.GetRelayerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relayer config: %w", err)
	}
	if !cfg.Enabled {
		return deny(DenialSystemDisabled, "Sponsored submissions are temporarily paused"), nil
	}

	chain, err := s.queries.GetSupportedChain(ctx, chainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deny(DenialChainNotSupported, fmt.Sprintf("Chain %d is not supported", chainID)), nil
		}
		return nil, fmt.Errorf("failed to load chain %d: %w", chainID, err)
	}
	if !chain.Enabled {
		return deny(DenialChainNotSupported, fmt.Sprintf("Chain %s is currently disabled", chain.Name)), nil
	}

	schema, err := s.registry.Get(ctx, schemaUID)
	if err != nil {
		if errors.Is(err, schemas.ErrSchemaNotFound) {
			return deny(DenialSchemaNotSupported, "This attestation schema is not supported"), nil
		}
		return nil, err
	}
	if !schema.Enabled {
		return deny(DenialSchemaNotSupported, "This attestation schema is currently disabled"), nil
	}

	day := s.windowDay()
	decision := &AdmissionDecision{Allowed: true}

	if !schema.ExemptGlobal {
		count, err := s.queries.IncrementQuotaIfUnder(ctx, db.IncrementQuotaIfUnderParams{
			UserID:    userID,
			SchemaUID: "",
			Day:       day,
			Limit:     cfg.GlobalDailyLimit,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return deny(DenialGlobalLimitReached, "You have reached today's sponsored submission limit"), nil
			}
			return nil, fmt.Errorf("failed to increment global quota: %w", err)
		}
		decision.GlobalUsed = count
		decision.GlobalLimit = cfg.GlobalDailyLimit
	}

	if schema.DailyLimit != nil {
		count, err := s.queries.IncrementQuotaIfUnder(ctx, db.IncrementQuotaIfUnderParams{
			UserID:    userID,
			SchemaUID: schemaUID,
			Day:       day,
			Limit:     *schema.DailyLimit,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// The global increment above stands; the window resets at the
				// next UTC midnight.
				return deny(DenialSchemaLimitReached, "You have reached today's limit for this attestation type"), nil
			}
			return nil, fmt.Errorf("failed to increment schema quota: %w", err)
		}
		decision.SchemaUsed = count
		decision.SchemaLimit = *schema.DailyLimit
	}

	s.logger.Debug("Admission allowed",
		zap.String("user_id", userID),
		zap.String("schema_uid", schemaUID),
		zap.Int64("chain_id", chainID),
		zap.Int32("global_used", decision.GlobalUsed),
	)
	return decision, nil
}

// CheckAllowance reports the caller's remaining quota without incrementing
// anything. Used by the allowance probe endpoint.
func (s *AdmissionService) CheckAllowance(ctx context.Context, userID, schemaUID string, chainID int64) (*AdmissionDecision, error) {
	cfg, err := s.queries.GetRelayerConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relayer config: %w", err)
	}
	if !cfg.Enabled {
		return deny(DenialSystemDisabled, "Sponsored submissions are temporarily paused"), nil
	}

	chain, err := s.queries.GetSupportedChain(ctx, chainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return deny(DenialChainNotSupported, fmt.Sprintf("Chain %d is not supported", chainID)), nil
		}
		return nil, fmt.Errorf("failed to load chain %d: %w", chainID, err)
	}
	if !chain.Enabled {
		return deny(DenialChainNotSupported, fmt.Sprintf("Chain %s is currently disabled", chain.Name)), nil
	}

	schema, err := s.registry.Get(ctx, schemaUID)
	if err != nil {
		if errors.Is(err, schemas.ErrSchemaNotFound) {
			return deny(DenialSchemaNotSupported, "This attestation schema is not supported"), nil
		}
		return nil, err
	}
	if !schema.Enabled {
		return deny(DenialSchemaNotSupported, "This attestation schema is currently disabled"), nil
	}

	day := s.windowDay()
	decision := &AdmissionDecision{Allowed: true}

	if !schema.ExemptGlobal {
		count, err := s.quotaCount(ctx, userID, "", day)
		if err != nil {
			return nil, err
		}
		decision.GlobalUsed = count
		decision.GlobalLimit = cfg.GlobalDailyLimit
		if count >= cfg.GlobalDailyLimit {
			d := deny(DenialGlobalLimitReached, "You have reached today's sponsored submission limit")
			d.GlobalUsed = count
			d.GlobalLimit = cfg.GlobalDailyLimit
			return d, nil
		}
	}

	if schema.DailyLimit != nil {
		count, err := s.quotaCount(ctx, userID, schemaUID, day)
		if err != nil {
			return nil, err
		}
		decision.SchemaUsed = count
		decision.SchemaLimit = *schema.DailyLimit
		if count >= *schema.DailyLimit {
			d := deny(DenialSchemaLimitReached, "You have reached today's limit for this attestation type")
			d.SchemaUsed = count
			d.SchemaLimit = *schema.DailyLimit
			return d, nil
		}
	}

	return decision, nil
}

func (s *AdmissionService) quotaCount(ctx context.Context, userID, schemaUID string, day pgtype.Date) (int32, error) {
	count, err := s.queries.GetQuotaCount(ctx, db.GetQuotaCountParams{
		UserID:    userID,
		SchemaUID: schemaUID,
		Day:       day,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	return count, nil
}

// windowDay returns the UTC calendar day. The window boundary is midnight
// UTC, never wall-clock elapsed time from first use.
func (s *AdmissionService) windowDay() pgtype.Date {
	now := s.now().UTC()
	return pgtype.Date{
		Time:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

func deny(reason DenialReason, message string) *AdmissionDecision {
	return &AdmissionDecision{Allowed: false, Reason: reason, Message: message}
}
