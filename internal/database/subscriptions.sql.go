package database

import (
	"context"

	"github.com/google/uuid"
)

const getActiveSubscription = `-- name: GetActiveSubscription :one
SELECT id, user_id, plan_name, status, current_period_end, created_at FROM subscriptions
WHERE user_id=$1 AND status='active'
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, getActiveSubscription, userID)
	var i Subscription
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.PlanName,
		&i.Status,
		&i.CurrentPeriodEnd,
		&i.CreatedAt,
	)
	return i, err
}
