package database

import (
	"context"

	"github.com/google/uuid"
)

const getUsageCounters = `-- name: GetUsageCounters :many
SELECT action_type, count FROM usage_counters
WHERE user_id=$1 AND month=$2 AND year=$3
`

type GetUsageCountersParams struct {
	UserID uuid.UUID
	Month  int32
	Year   int32
}

type GetUsageCountersRow struct {
	ActionType string
	Count      int32
}

func (q *Queries) GetUsageCounters(ctx context.Context, arg GetUsageCountersParams) ([]GetUsageCountersRow, error) {
	rows, err := q.db.QueryContext(ctx, getUsageCounters, arg.UserID, arg.Month, arg.Year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetUsageCountersRow
	for rows.Next() {
		var i GetUsageCountersRow
		if err := rows.Scan(&i.ActionType, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const incrementUsageCounter = `-- name: IncrementUsageCounter :one
INSERT INTO usage_counters (
id, user_id, action_type, month, year, count)
VALUES (gen_random_uuid(), $1, $2, $3, $4, 1)
ON CONFLICT (user_id, action_type, month, year)
DO UPDATE SET
    count = usage_counters.count + 1,
    updated_at = CURRENT_TIMESTAMP
RETURNING count
`

type IncrementUsageCounterParams struct {
	UserID     uuid.UUID
	ActionType string
	Month      int32
	Year       int32
}

// IncrementUsageCounter bumps the per-user counter for one action in one
// calendar month. The upsert runs as a single statement so concurrent
// requests never lose an update.
func (q *Queries) IncrementUsageCounter(ctx context.Context, arg IncrementUsageCounterParams) (int32, error) {
	row := q.db.QueryRowContext(ctx, incrementUsageCounter, arg.UserID, arg.ActionType, arg.Month, arg.Year)
	var count int32
	err := row.Scan(&count)
	return count, err
}
