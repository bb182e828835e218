package entitlement

import (
	"context"
	"time"
)

// SubscriptionRow is the raw subscription record as the datastore holds it.
// The gate turns it into a SubscriptionInfo, forcing lapsed plans to free.
type SubscriptionRow struct {
	PlanName         string
	Status           string
	CurrentPeriodEnd time.Time
}

// Store is the datastore the gate reads plans and usage from. Implementations
// must make IncrementUsage a single atomic operation on the
// (user, action, month, year) key; a read-then-write increment races under
// concurrent requests.
type Store interface {
	// ActiveSubscription returns the most recent subscription row with
	// status "active" for the user, or nil when the user has none.
	ActiveSubscription(ctx context.Context, userID string) (*SubscriptionRow, error)

	// UsageCounts returns the per-action counts for one user in one
	// calendar month. Actions with no row are simply absent.
	UsageCounts(ctx context.Context, userID string, month, year int) (map[Action]int, error)

	// IncrementUsage atomically adds one to the counter for
	// (user, action, month, year), creating it at 1 if absent.
	IncrementUsage(ctx context.Context, userID string, action Action, month, year int) error
}
