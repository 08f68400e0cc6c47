package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// RequestStatus is the lifecycle state of a delegation request.
// Transitions: pending -> submitted -> {confirmed | failed}; submitted may
// return to pending when the whole call reverted before execution.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusSubmitted RequestStatus = "submitted"
	RequestStatusConfirmed RequestStatus = "confirmed"
	RequestStatusFailed    RequestStatus = "failed"
)

// DelegationRequest is a signed, user-authorized attestation awaiting (or past)
// sponsored submission. content_hash is the natural key: a byte-identical
// re-signing maps onto the existing row.
type DelegationRequest struct {
	ID             uuid.UUID
	ContentHash    string
	UserID         string
	SchemaUID      string
	Recipient      string
	Payload        []byte
	DeadlineUnix   int64
	Signer         string
	SignatureV     int16
	SignatureR     string
	SignatureS     string
	ValueWei       string
	ChainID        int64
	RefUID         pgtype.Text
	ContextID      pgtype.UUID
	Status         RequestStatus
	TxHash         pgtype.Text
	AttestationUID pgtype.Text
	FailureReason  pgtype.Text
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// AttestationSchema describes a registered attestation layout plus its
// admission metadata.
type AttestationSchema struct {
	UID          string
	Name         string
	Layout       string
	Enabled      bool
	ExemptGlobal bool
	DailyLimit   pgtype.Int4
	CreatedAt    pgtype.Timestamptz
}

// SupportedChain is a chain the relayer is allowed to submit to.
type SupportedChain struct {
	ChainID   int64
	Name      string
	Enabled   bool
	CreatedAt pgtype.Timestamptz
}

// RelayerConfig is the singleton system configuration row.
type RelayerConfig struct {
	ID               int32
	Enabled          bool
	GlobalDailyLimit int32
	UpdatedAt        pgtype.Timestamptz
}

// QuotaCounter tracks sponsored submissions for one (user, schema, UTC day).
// SchemaUID is empty for the user's global counter.
type QuotaCounter struct {
	ID        uuid.UUID
	UserID    string
	SchemaUID string
	Day       pgtype.Date
	Count     int32
	UpdatedAt pgtype.Timestamptz
}

// SponsoredActivity is the append-only audit record of one terminal
// sponsored submission. Never updated after insert.
type SponsoredActivity struct {
	ID              uuid.UUID
	RequestID       uuid.UUID
	UserID          string
	SchemaUID       string
	ChainID         int64
	ContextID       pgtype.UUID
	GasUsed         int64
	GasCostWei      string
	GasCostUsdCents int64
	TxHash          string
	AttestationUID  pgtype.Text
	CreatedAt       pgtype.Timestamptz
}
