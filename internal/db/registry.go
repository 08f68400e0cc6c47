package db

import (
	"context"
)

const getRelayerConfig = `
SELECT id, enabled, global_daily_limit, updated_at
FROM relayer_config WHERE id = 1
`

// GetRelayerConfig returns the singleton system configuration row. The row is
// seeded by migration; ErrNoRows here means an unprovisioned database.
func (q *Queries) GetRelayerConfig(ctx context.Context) (RelayerConfig, error) {
	var i RelayerConfig
	err := q.db.QueryRow(ctx, getRelayerConfig).Scan(
		&i.ID, &i.Enabled, &i.GlobalDailyLimit, &i.UpdatedAt,
	)
	return i, err
}

const getSupportedChain = `
SELECT chain_id, name, enabled, created_at
FROM supported_chains WHERE chain_id = $1
`

func (q *Queries) GetSupportedChain(ctx context.Context, chainID int64) (SupportedChain, error) {
	var i SupportedChain
	err := q.db.QueryRow(ctx, getSupportedChain, chainID).Scan(
		&i.ChainID, &i.Name, &i.Enabled, &i.CreatedAt,
	)
	return i, err
}

const getAttestationSchema = `
SELECT uid, name, layout, enabled, exempt_global, daily_limit, created_at
FROM attestation_schemas WHERE uid = $1
`

func (q *Queries) GetAttestationSchema(ctx context.Context, uid string) (AttestationSchema, error) {
	var i AttestationSchema
	err := q.db.QueryRow(ctx, getAttestationSchema, uid).Scan(
		&i.UID, &i.Name, &i.Layout, &i.Enabled, &i.ExemptGlobal, &i.DailyLimit, &i.CreatedAt,
	)
	return i, err
}

const listAttestationSchemas = `
SELECT uid, name, layout, enabled, exempt_global, daily_limit, created_at
FROM attestation_schemas ORDER BY created_at ASC
`

func (q *Queries) ListAttestationSchemas(ctx context.Context) ([]AttestationSchema, error) {
	rows, err := q.db.Query(ctx, listAttestationSchemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AttestationSchema
	for rows.Next() {
		var i AttestationSchema
		if err := rows.Scan(&i.UID, &i.Name, &i.Layout, &i.Enabled, &i.ExemptGlobal, &i.DailyLimit, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
