package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/veritix/veritix-api/internal/db"
	"github.com/veritix/veritix-api/internal/eip712"
	"github.com/veritix/veritix-api/internal/logger"
	"github.com/veritix/veritix-api/internal/schemas"
)

// RequestService is the delegation request store. It validates a signed
// request once at intake and owns the request state machine thereafter.
type RequestService struct {
	queries           db.Querier
	registry          *schemas.Registry
	verifyingContract common.Address
	logger            *zap.Logger
}

// NewRequestService creates a request store bound to the verifying contract
// the signatures were produced against.
func NewRequestService(queries db.Querier, registry *schemas.Registry, verifyingContract common.Address) *RequestService {
	return &RequestService{
		queries:           queries,
		registry:          registry,
		verifyingContract: verifyingContract,
		logger:            logger.Log,
	}
}

// StoreRequestParams carries a client-signed delegation into the store.
type StoreRequestParams struct {
	UserID       string
	SchemaUID    common.Hash
	Recipient    common.Address
	Payload      []byte
	DeadlineUnix int64
	Signer       common.Address
	Signature    eip712.Signature
	ValueWei     *big.Int
	ChainID      int64
	RefUID       common.Hash
	ContextID    *uuid.UUID
}

// Upsert validates the signed request and persists it keyed by its content
// hash. A byte-identical re-submission returns the existing row instead of
// creating a second pending request, so flaky client retries cannot produce
// two on-chain submissions.
func (s *RequestService) Upsert(ctx context.Context, params StoreRequestParams) (db.DelegationRequest, error) {
	if params.DeadlineUnix <= time.Now().Unix() {
		return db.DelegationRequest{}, ErrExpiredDeadline
	}

	schema, err := s.registry.Get(ctx, params.SchemaUID.Hex())
	if err != nil {
		return db.DelegationRequest{}, err
	}
	if err := schema.ValidatePayload(params.Payload); err != nil {
		return db.DelegationRequest{}, err
	}

	digest, err := eip712.HashDelegatedAttestation(eip712.DelegatedAttestation{
		SchemaUID:         params.SchemaUID,
		Recipient:         params.Recipient,
		Payload:           params.Payload,
		RefUID:            params.RefUID,
		Deadline:          uint64(params.DeadlineUnix),
		Value:             params.ValueWei,
		ChainID:           params.ChainID,
		VerifyingContract: s.verifyingContract,
	})
	if err != nil {
		return db.DelegationRequest{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := eip712.VerifySigner(digest, params.Signature, params.Signer); err != nil {
		return db.DelegationRequest{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	contentHash := ContentHash(params.SchemaUID, params.Recipient, params.Payload,
		uint64(params.DeadlineUnix), params.Signer)

	value := params.ValueWei
	if value == nil {
		value = big.NewInt(0)
	}

	createParams := db.CreateDelegationRequestParams{
		ID:           uuid.New(),
		ContentHash:  contentHash,
		UserID:       params.UserID,
		SchemaUID:    params.SchemaUID.Hex(),
		Recipient:    params.Recipient.Hex(),
		Payload:      params.Payload,
		DeadlineUnix: params.DeadlineUnix,
		Signer:       params.Signer.Hex(),
		SignatureV:   int16(params.Signature.V),
		SignatureR:   hexutil.Encode(params.Signature.R[:]),
		SignatureS:   hexutil.Encode(params.Signature.S[:]),
		ValueWei:     value.String(),
		ChainID:      params.ChainID,
	}
	if params.RefUID != (common.Hash{}) {
		createParams.RefUID = pgtype.Text{String: params.RefUID.Hex(), Valid: true}
	}
	if params.ContextID != nil {
		createParams.ContextID = pgtype.UUID{Bytes: *params.ContextID, Valid: true}
	}

	request, err := s.queries.CreateDelegationRequest(ctx, createParams)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Content-hash conflict: the identical request already exists.
			existing, getErr := s.queries.GetDelegationRequestByContentHash(ctx, contentHash)
			if getErr != nil {
				return db.DelegationRequest{}, fmt.Errorf("failed to resolve duplicate request: %w", getErr)
			}
			s.logger.Info("Duplicate delegation request, returning existing row",
				zap.String("request_id", existing.ID.String()),
				zap.String("content_hash", contentHash),
			)
			return existing, nil
		}
		return db.DelegationRequest{}, fmt.Errorf("failed to store delegation request: %w", err)
	}

	s.logger.Info("Stored delegation request",
		zap.String("request_id", request.ID.String()),
		zap.String("schema_uid", request.SchemaUID),
		zap.String("signer", request.Signer),
		zap.Int64("deadline_unix", request.DeadlineUnix),
	)
	return request, nil
}

// Get returns a request by id.
func (s *RequestService) Get(ctx context.Context, id uuid.UUID) (db.DelegationRequest, error) {
	return s.queries.GetDelegationRequest(ctx, id)
}

// ListPendingForContext returns the pending requests tied to one business
// context (e.g. one event) in insertion order.
func (s *RequestService) ListPendingForContext(ctx context.Context, contextID uuid.UUID) ([]db.DelegationRequest, error) {
	return s.queries.ListPendingDelegationRequestsByContext(ctx,
		pgtype.UUID{Bytes: contextID, Valid: true})
}

// MarkSubmitted transitions pending -> submitted.
func (s *RequestService) MarkSubmitted(ctx context.Context, id uuid.UUID, txHash string) error {
	affected, err := s.queries.MarkDelegationRequestSubmitted(ctx, db.MarkDelegationRequestSubmittedParams{
		ID:     id,
		TxHash: pgtype.Text{String: txHash, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark request submitted: %w", err)
	}
	if affected == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// MarkConfirmed transitions submitted -> confirmed. attestationUID may be
// empty when event decoding failed; the on-chain effect still happened.
func (s *RequestService) MarkConfirmed(ctx context.Context, id uuid.UUID, attestationUID string) error {
	params := db.MarkDelegationRequestConfirmedParams{ID: id}
	if attestationUID != "" {
		params.AttestationUID = pgtype.Text{String: attestationUID, Valid: true}
	}
	affected, err := s.queries.MarkDelegationRequestConfirmed(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to mark request confirmed: %w", err)
	}
	if affected == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// MarkFailed transitions pending or submitted -> failed.
func (s *RequestService) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	affected, err := s.queries.MarkDelegationRequestFailed(ctx, db.MarkDelegationRequestFailedParams{
		ID:            id,
		FailureReason: pgtype.Text{String: reason, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to mark request failed: %w", err)
	}
	if affected == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// ResetToPending returns a submitted request to pending after a whole-call
// revert, making it eligible for inspection and resubmission.
func (s *RequestService) ResetToPending(ctx context.Context, id uuid.UUID) error {
	affected, err := s.queries.ResetDelegationRequestToPending(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to reset request: %w", err)
	}
	if affected == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// transitionError distinguishes "row missing" from "row in a state the guard
// rejected" after a zero-row conditional update.
func (s *RequestService) transitionError(ctx context.Context, id uuid.UUID) error {
	current, err := s.queries.GetDelegationRequest(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: request %s is %s", ErrInvalidTransition, id, current.Status)
}

// ContentHash derives the natural key of a delegation request from the fields
// that define its on-chain effect.
func ContentHash(schemaUID common.Hash, recipient common.Address, payload []byte, deadline uint64, signer common.Address) string {
	var deadlineBytes [8]byte
	binary.BigEndian.PutUint64(deadlineBytes[:], deadline)

	hash := crypto.Keccak256(
		schemaUID.Bytes(),
		recipient.Bytes(),
		payload,
		deadlineBytes[:],
		signer.Bytes(),
	)
	return hexutil.Encode(hash)
}
