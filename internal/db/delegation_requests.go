package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createDelegationRequest = `
INSERT INTO delegation_requests (
    id, content_hash, user_id, schema_uid, recipient, payload, deadline_unix,
    signer, signature_v, signature_r, signature_s, value_wei, chain_id,
    ref_uid, context_id, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 'pending'
)
ON CONFLICT (content_hash) DO NOTHING
RETURNING id, content_hash, user_id, schema_uid, recipient, payload, deadline_unix,
    signer, signature_v, signature_r, signature_s, value_wei, chain_id, ref_uid,
    context_id, status, tx_hash, attestation_uid, failure_reason, created_at, updated_at
`

type CreateDelegationRequestParams struct {
	ID           uuid.UUID
	ContentHash  string
	UserID       string
	SchemaUID    string
	Recipient    string
	Payload      []byte
	DeadlineUnix int64
	Signer       string
	SignatureV   int16
	SignatureR   string
	SignatureS   string
	ValueWei     string
	ChainID      int64
	RefUID       pgtype.Text
	ContextID    pgtype.UUID
}

// CreateDelegationRequest inserts a new pending request. On a content-hash
// conflict no row is inserted and pgx.ErrNoRows is returned; the caller
// resolves the existing row via GetDelegationRequestByContentHash.
func (q *Queries) CreateDelegationRequest(ctx context.Context, arg CreateDelegationRequestParams) (DelegationRequest, error) {
	row := q.db.QueryRow(ctx, createDelegationRequest,
		arg.ID, arg.ContentHash, arg.UserID, arg.SchemaUID, arg.Recipient,
		arg.Payload, arg.DeadlineUnix, arg.Signer, arg.SignatureV, arg.SignatureR,
		arg.SignatureS, arg.ValueWei, arg.ChainID, arg.RefUID, arg.ContextID,
	)
	return scanDelegationRequest(row)
}

const getDelegationRequest = `
SELECT id, content_hash, user_id, schema_uid, recipient, payload, deadline_unix,
    signer, signature_v, signature_r, signature_s, value_wei, chain_id, ref_uid,
    context_id, status, tx_hash, attestation_uid, failure_reason, created_at, updated_at
FROM delegation_requests WHERE id = $1
`

func (q *Queries) GetDelegationRequest(ctx context.Context, id uuid.UUID) (DelegationRequest, error) {
	return scanDelegationRequest(q.db.QueryRow(ctx, getDelegationRequest, id))
}

const getDelegationRequestByContentHash = `
SELECT id, content_hash, user_id, schema_uid, recipient, payload, deadline_unix,
    signer, signature_v, signature_r, signature_s, value_wei, chain_id, ref_uid,
    context_id, status, tx_hash, attestation_uid, failure_reason, created_at, updated_at
FROM delegation_requests WHERE content_hash = $1
`

func (q *Queries) GetDelegationRequestByContentHash(ctx context.Context, contentHash string) (DelegationRequest, error) {
	return scanDelegationRequest(q.db.QueryRow(ctx, getDelegationRequestByContentHash, contentHash))
}

const listPendingDelegationRequestsByContext = `
SELECT id, content_hash, user_id, schema_uid, recipient, payload, deadline_unix,
    signer, signature_v, signature_r, signature_s, value_wei, chain_id, ref_uid,
    context_id, status, tx_hash, attestation_uid, failure_reason, created_at, updated_at
FROM delegation_requests
WHERE context_id = $1 AND status = 'pending'
ORDER BY created_at ASC
`

// ListPendingDelegationRequestsByContext returns pending requests for one
// business context in insertion order. Batch assembly relies on this order.
func (q *Queries) ListPendingDelegationRequestsByContext(ctx context.Context, contextID pgtype.UUID) ([]DelegationRequest, error) {
	rows, err := q.db.Query(ctx, listPendingDelegationRequestsByContext, contextID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DelegationRequest
	for rows.Next() {
		item, err := scanDelegationRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const markDelegationRequestSubmitted = `
UPDATE delegation_requests
SET status = 'submitted', tx_hash = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'pending'
`

type MarkDelegationRequestSubmittedParams struct {
	ID     uuid.UUID
	TxHash pgtype.Text
}

// MarkDelegationRequestSubmitted transitions pending -> submitted. The status
// guard makes the returned row count the transition check: zero rows means the
// request was not pending.
func (q *Queries) MarkDelegationRequestSubmitted(ctx context.Context, arg MarkDelegationRequestSubmittedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markDelegationRequestSubmitted, arg.ID, arg.TxHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const markDelegationRequestConfirmed = `
UPDATE delegation_requests
SET status = 'confirmed', attestation_uid = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'submitted'
`

type MarkDelegationRequestConfirmedParams struct {
	ID             uuid.UUID
	AttestationUID pgtype.Text
}

func (q *Queries) MarkDelegationRequestConfirmed(ctx context.Context, arg MarkDelegationRequestConfirmedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markDelegationRequestConfirmed, arg.ID, arg.AttestationUID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const markDelegationRequestFailed = `
UPDATE delegation_requests
SET status = 'failed', failure_reason = $2, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status IN ('pending', 'submitted')
`

type MarkDelegationRequestFailedParams struct {
	ID            uuid.UUID
	FailureReason pgtype.Text
}

func (q *Queries) MarkDelegationRequestFailed(ctx context.Context, arg MarkDelegationRequestFailedParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markDelegationRequestFailed, arg.ID, arg.FailureReason)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const resetDelegationRequestToPending = `
UPDATE delegation_requests
SET status = 'pending', tx_hash = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'submitted'
`

// ResetDelegationRequestToPending returns a submitted request to pending after
// the ledger rejected the whole call before execution.
func (q *Queries) ResetDelegationRequestToPending(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, resetDelegationRequestToPending, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// rowScanner lets scanDelegationRequest work for both QueryRow and Query rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDelegationRequest(row rowScanner) (DelegationRequest, error) {
	var i DelegationRequest
	err := row.Scan(
		&i.ID, &i.ContentHash, &i.UserID, &i.SchemaUID, &i.Recipient, &i.Payload,
		&i.DeadlineUnix, &i.Signer, &i.SignatureV, &i.SignatureR, &i.SignatureS,
		&i.ValueWei, &i.ChainID, &i.RefUID, &i.ContextID, &i.Status, &i.TxHash,
		&i.AttestationUID, &i.FailureReason, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}
