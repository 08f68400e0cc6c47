package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createSponsoredActivity = `
INSERT INTO sponsored_activity (
    id, request_id, user_id, schema_uid, chain_id, context_id,
    gas_used, gas_cost_wei, gas_cost_usd_cents, tx_hash, attestation_uid
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id, request_id, user_id, schema_uid, chain_id, context_id,
    gas_used, gas_cost_wei, gas_cost_usd_cents, tx_hash, attestation_uid, created_at
`

type CreateSponsoredActivityParams struct {
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
}

// CreateSponsoredActivity appends one audit record. The table has no UPDATE
// path; outcomes are immutable once written.
func (q *Queries) CreateSponsoredActivity(ctx context.Context, arg CreateSponsoredActivityParams) (SponsoredActivity, error) {
	row := q.db.QueryRow(ctx, createSponsoredActivity,
		arg.ID, arg.RequestID, arg.UserID, arg.SchemaUID, arg.ChainID, arg.ContextID,
		arg.GasUsed, arg.GasCostWei, arg.GasCostUsdCents, arg.TxHash, arg.AttestationUID,
	)
	return scanSponsoredActivity(row)
}

const listSponsoredActivityByUser = `
SELECT id, request_id, user_id, schema_uid, chain_id, context_id,
    gas_used, gas_cost_wei, gas_cost_usd_cents, tx_hash, attestation_uid, created_at
FROM sponsored_activity
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListSponsoredActivityByUserParams struct {
	UserID string
	Limit  int32
	Offset int32
}

func (q *Queries) ListSponsoredActivityByUser(ctx context.Context, arg ListSponsoredActivityByUserParams) ([]SponsoredActivity, error) {
	rows, err := q.db.Query(ctx, listSponsoredActivityByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SponsoredActivity
	for rows.Next() {
		item, err := scanSponsoredActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const countSponsoredActivityForDay = `
SELECT COUNT(*) FROM sponsored_activity
WHERE user_id = $1
  AND ($2 = '' OR schema_uid = $2)
  AND created_at >= $3::date
  AND created_at < $3::date + INTERVAL '1 day'
`

type CountSponsoredActivityForDayParams struct {
	UserID    string
	SchemaUID string // empty counts across all schemas
	Day       pgtype.Date
}

// CountSponsoredActivityForDay recomputes a day's usage from the audit log.
// Used for reconciliation against the live counters, not for the admission
// gate itself.
func (q *Queries) CountSponsoredActivityForDay(ctx context.Context, arg CountSponsoredActivityForDayParams) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countSponsoredActivityForDay, arg.UserID, arg.SchemaUID, arg.Day).Scan(&count)
	return count, err
}

func scanSponsoredActivity(row rowScanner) (SponsoredActivity, error) {
	var i SponsoredActivity
	err := row.Scan(
		&i.ID, &i.RequestID, &i.UserID, &i.SchemaUID, &i.ChainID, &i.ContextID,
		&i.GasUsed, &i.GasCostWei, &i.GasCostUsdCents, &i.TxHash, &i.AttestationUID,
		&i.CreatedAt,
	)
	return i, err
}
