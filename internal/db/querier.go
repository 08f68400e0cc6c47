package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the interface services depend on; mocked in tests with gomock.
type Querier interface {
	// Delegation requests
	CreateDelegationRequest(ctx context.Context, arg CreateDelegationRequestParams) (DelegationRequest, error)
	GetDelegationRequest(ctx context.Context, id uuid.UUID) (DelegationRequest, error)
	GetDelegationRequestByContentHash(ctx context.Context, contentHash string) (DelegationRequest, error)
	ListPendingDelegationRequestsByContext(ctx context.Context, contextID pgtype.UUID) ([]DelegationRequest, error)
	MarkDelegationRequestSubmitted(ctx context.Context, arg MarkDelegationRequestSubmittedParams) (int64, error)
	MarkDelegationRequestConfirmed(ctx context.Context, arg MarkDelegationRequestConfirmedParams) (int64, error)
	MarkDelegationRequestFailed(ctx context.Context, arg MarkDelegationRequestFailedParams) (int64, error)
	ResetDelegationRequestToPending(ctx context.Context, id uuid.UUID) (int64, error)

	// Registry and system configuration
	GetRelayerConfig(ctx context.Context) (RelayerConfig, error)
	GetSupportedChain(ctx context.Context, chainID int64) (SupportedChain, error)
	GetAttestationSchema(ctx context.Context, uid string) (AttestationSchema, error)
	ListAttestationSchemas(ctx context.Context) ([]AttestationSchema, error)

	// Quota counters
	IncrementQuotaIfUnder(ctx context.Context, arg IncrementQuotaIfUnderParams) (int32, error)
	GetQuotaCount(ctx context.Context, arg GetQuotaCountParams) (int32, error)

	// Sponsored activity log
	CreateSponsoredActivity(ctx context.Context, arg CreateSponsoredActivityParams) (SponsoredActivity, error)
	ListSponsoredActivityByUser(ctx context.Context, arg ListSponsoredActivityByUserParams) ([]SponsoredActivity, error)
	CountSponsoredActivityForDay(ctx context.Context, arg CountSponsoredActivityForDayParams) (int64, error)
}

var _ Querier = (*Queries)(nil)
