// Package entitlement decides whether a user may perform a metered action
// under their subscription plan, and records usage once the action has
// actually happened.
package entitlement

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// SubscriptionInfo is the resolved view of a user's subscription at the
// moment of a check. It is recomputed on every call and never cached.
type SubscriptionInfo struct {
	PlanName         Plan
	Status           string
	IsActive         bool
	CurrentPeriodEnd *time.Time
	Limits           PlanLimits
}

// Decision is the outcome of a permission check.
type Decision struct {
	CanPerform bool
	Reason     string
	Usage      Usage
	Limits     PlanLimits
}

// DeniedError is returned by WithSubscriptionCheck when the gate refuses an
// action. Its message is the user-facing denial reason.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

// Config carries the injectable plan table.
type Config struct {
	PlanLimits map[Plan]PlanLimits
}

type Gate struct {
	store  Store
	limits map[Plan]PlanLimits
	now    func() time.Time
}

func New(store Store, cfg Config) *Gate {
	limits := cfg.PlanLimits
	if limits == nil {
		limits = DefaultPlanLimits()
	}
	return &Gate{store: store, limits: limits, now: time.Now}
}

// limitsFor resolves a plan name from the store to a limits row, treating
// anything unknown as free.
func (g *Gate) limitsFor(plan Plan) (Plan, PlanLimits) {
	if l, ok := g.limits[plan]; ok {
		return plan, l
	}
	return PlanFree, g.limits[PlanFree]
}

// UserSubscription resolves the user's effective plan. A missing row, a
// lapsed paid period or a store error all degrade to the free plan: the
// fallback is the most conservative non-unlimited state, never "allow
// everything".
func (g *Gate) UserSubscription(ctx context.Context, userID string) SubscriptionInfo {
	free := SubscriptionInfo{
		PlanName: PlanFree,
		Status:   "none",
		Limits:   g.limits[PlanFree],
	}

	row, err := g.store.ActiveSubscription(ctx, userID)
	if err != nil {
		log.Printf("entitlement: subscription lookup failed for user %s, falling back to free plan: %v", userID, err)
		return free
	}
	if row == nil {
		return free
	}

	if !row.CurrentPeriodEnd.IsZero() && row.CurrentPeriodEnd.Before(g.now()) {
		// A lapsed paid plan must never keep granting paid limits.
		end := row.CurrentPeriodEnd
		return SubscriptionInfo{
			PlanName:         PlanFree,
			Status:           "expired",
			CurrentPeriodEnd: &end,
			Limits:           g.limits[PlanFree],
		}
	}

	plan, limits := g.limitsFor(Plan(row.PlanName))
	info := SubscriptionInfo{
		PlanName: plan,
		Status:   row.Status,
		IsActive: true,
		Limits:   limits,
	}
	if !row.CurrentPeriodEnd.IsZero() {
		end := row.CurrentPeriodEnd
		info.CurrentPeriodEnd = &end
	}
	return info
}

// UserUsage reads the user's counters for the current calendar month. On a
// store error it returns zero usage, which combined with the subscription
// fallback means "free plan, nothing used yet" when the backend is down.
func (g *Gate) UserUsage(ctx context.Context, userID string) Usage {
	now := g.now()
	counts, err := g.store.UsageCounts(ctx, userID, int(now.Month()), now.Year())
	if err != nil {
		log.Printf("entitlement: usage lookup failed for user %s, assuming zero usage: %v", userID, err)
		return Usage{}
	}

	var usage Usage
	for action, n := range counts {
		usage.set(action, n)
	}
	return usage
}

// CanPerformAction answers whether the user may perform the action right
// now. Subscription and usage are resolved concurrently; the plan table is
// consulted with the unlimited sentinel short-circuiting any comparison.
func (g *Gate) CanPerformAction(ctx context.Context, userID string, action Action) Decision {
	if !action.Valid() {
		return Decision{
			CanPerform: false,
			Reason:     fmt.Sprintf("invalid action type %q", action),
		}
	}

	var (
		sub   SubscriptionInfo
		usage Usage
		wg    sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sub = g.UserSubscription(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		usage = g.UserUsage(ctx, userID)
	}()
	wg.Wait()

	limit := sub.Limits.Limit(action)
	used := usage.Count(action)

	if limit == Unlimited {
		return Decision{CanPerform: true, Usage: usage, Limits: sub.Limits}
	}
	if used < limit {
		return Decision{CanPerform: true, Usage: usage, Limits: sub.Limits}
	}
	return Decision{
		CanPerform: false,
		Reason: fmt.Sprintf("you have used all %d %s included in the %s plan this month; upgrade your plan to continue",
			limit, action.label(), sub.PlanName),
		Usage:  usage,
		Limits: sub.Limits,
	}
}

// IncrementUsage records one unit of usage for the current month. Failures
// propagate: losing quota accounting silently is worse than surfacing the
// write error.
func (g *Gate) IncrementUsage(ctx context.Context, userID string, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("invalid action type %q", action)
	}
	now := g.now()
	if err := g.store.IncrementUsage(ctx, userID, action, int(now.Month()), now.Year()); err != nil {
		return fmt.Errorf("incrementing %s usage for user %s: %w", action, userID, err)
	}
	return nil
}

// WithSubscriptionCheck gates fn behind a permission check and records one
// unit of usage only after fn has succeeded. A denied check returns a
// *DeniedError and never runs fn; a failed fn never consumes quota.
func (g *Gate) WithSubscriptionCheck(ctx context.Context, userID string, action Action, fn func(ctx context.Context) error) error {
	decision := g.CanPerformAction(ctx, userID, action)
	if !decision.CanPerform {
		return &DeniedError{Action: action, Reason: decision.Reason}
	}

	if err := fn(ctx); err != nil {
		return err
	}

	return g.IncrementUsage(ctx, userID, action)
}
