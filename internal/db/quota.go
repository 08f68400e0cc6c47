package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const incrementQuotaIfUnder = `
INSERT INTO quota_counters (id, user_id, schema_uid, day, count)
SELECT gen_random_uuid(), $1, $2, $3, 1
WHERE $4::int4 > 0
ON CONFLICT (user_id, schema_uid, day)
DO UPDATE SET count = quota_counters.count + 1, updated_at = CURRENT_TIMESTAMP
WHERE quota_counters.count < $4
RETURNING count
`

type IncrementQuotaIfUnderParams struct {
	UserID    string
	SchemaUID string // empty string for the user's global counter
	Day       pgtype.Date
	Limit     int32
}

// IncrementQuotaIfUnder is the single admission check-and-increment statement.
// It increments the (user, schema, day) counter only while it is below the
// limit and returns the new count; pgx.ErrNoRows means the limit is reached
// and nothing was incremented. Both arms are guarded: the day's first
// request inserts only when the limit is positive, so a zero limit admits
// nothing. Two concurrent callers at limit-1 cannot both succeed: the row
// update is atomic at the storage layer.
func (q *Queries) IncrementQuotaIfUnder(ctx context.Context, arg IncrementQuotaIfUnderParams) (int32, error) {
	var count int32
	err := q.db.QueryRow(ctx, incrementQuotaIfUnder,
		arg.UserID, arg.SchemaUID, arg.Day, arg.Limit,
	).Scan(&count)
	return count, err
}

const getQuotaCount = `
SELECT count FROM quota_counters
WHERE user_id = $1 AND schema_uid = $2 AND day = $3
`

type GetQuotaCountParams struct {
	UserID    string
	SchemaUID string
	Day       pgtype.Date
}

// GetQuotaCount reads a counter without incrementing it (allowance probe).
func (q *Queries) GetQuotaCount(ctx context.Context, arg GetQuotaCountParams) (int32, error) {
	var count int32
	err := q.db.QueryRow(ctx, getQuotaCount, arg.UserID, arg.SchemaUID, arg.Day).Scan(&count)
	return count, err
}
