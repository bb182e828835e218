package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/resumepilot/resumeworker/internal/database"
)

// PostgresStore backs the gate with the shared database query layer. The
// increment maps onto a single INSERT ... ON CONFLICT DO UPDATE statement,
// which is what makes it safe under concurrent requests.
type PostgresStore struct {
	q *database.Queries
}

func NewPostgresStore(q *database.Queries) *PostgresStore {
	return &PostgresStore{q: q}
}

func (s *PostgresStore) ActiveSubscription(ctx context.Context, userID string) (*SubscriptionRow, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	sub, err := s.q.GetActiveSubscription(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := &SubscriptionRow{
		PlanName: sub.PlanName,
		Status:   sub.Status,
	}
	if sub.CurrentPeriodEnd.Valid {
		row.CurrentPeriodEnd = sub.CurrentPeriodEnd.Time
	}
	return row, nil
}

func (s *PostgresStore) UsageCounts(ctx context.Context, userID string, month, year int) (map[Action]int, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	rows, err := s.q.GetUsageCounters(ctx, database.GetUsageCountersParams{
		UserID: id,
		Month:  int32(month),
		Year:   int32(year),
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[Action]int, len(rows))
	for _, row := range rows {
		counts[Action(row.ActionType)] = int(row.Count)
	}
	return counts, nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, userID string, action Action, month, year int) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	_, err = s.q.IncrementUsageCounter(ctx, database.IncrementUsageCounterParams{
		UserID:     id,
		ActionType: string(action),
		Month:      int32(month),
		Year:       int32(year),
	})
	return err
}
