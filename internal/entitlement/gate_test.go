package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type counterKey struct {
	userID string
	action Action
	month  int
	year   int
}

// fakeStore is an in-memory Store. The mutex around counters is what makes
// its increment atomic, mirroring the single-statement upsert the Postgres
// store relies on.
type fakeStore struct {
	mu       sync.Mutex
	sub      *SubscriptionRow
	subErr   error
	usageErr error
	counters map[counterKey]int

	subCalls       int
	usageCalls     int
	incrementCalls int
	incrementErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{counters: make(map[counterKey]int)}
}

func (s *fakeStore) ActiveSubscription(ctx context.Context, userID string) (*SubscriptionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subCalls++
	if s.subErr != nil {
		return nil, s.subErr
	}
	return s.sub, nil
}

func (s *fakeStore) UsageCounts(ctx context.Context, userID string, month, year int) (map[Action]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usageCalls++
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	counts := make(map[Action]int)
	for key, n := range s.counters {
		if key.userID == userID && key.month == month && key.year == year {
			counts[key.action] = n
		}
	}
	return counts, nil
}

func (s *fakeStore) IncrementUsage(ctx context.Context, userID string, action Action, month, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incrementCalls++
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.counters[counterKey{userID, action, month, year}]++
	return nil
}

func (s *fakeStore) count(userID string, action Action, month, year int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counterKey{userID, action, month, year}]
}

var testNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func newTestGate(store Store) *Gate {
	g := New(store, Config{})
	g.now = func() time.Time { return testNow }
	return g
}

func activeSub(plan string) *SubscriptionRow {
	return &SubscriptionRow{
		PlanName:         plan,
		Status:           "active",
		CurrentPeriodEnd: testNow.AddDate(0, 1, 0),
	}
}

func TestUserSubscriptionNoRow(t *testing.T) {
	g := newTestGate(newFakeStore())

	sub := g.UserSubscription(context.Background(), "user-1")
	if sub.PlanName != PlanFree {
		t.Fatalf("plan = %s, want free", sub.PlanName)
	}
	if sub.IsActive {
		t.Fatal("subscription should not be active")
	}
	if sub.Limits.ResumeAnalyses != 3 {
		t.Fatalf("ResumeAnalyses limit = %d, want 3", sub.Limits.ResumeAnalyses)
	}
}

func TestUserSubscriptionLapsedPaidPlan(t *testing.T) {
	store := newFakeStore()
	store.sub = &SubscriptionRow{
		PlanName:         string(PlanUnlimited),
		Status:           "active",
		CurrentPeriodEnd: testNow.AddDate(0, -1, 0),
	}
	g := newTestGate(store)

	sub := g.UserSubscription(context.Background(), "user-1")
	if sub.PlanName != PlanFree {
		t.Fatalf("lapsed plan = %s, want free", sub.PlanName)
	}
	if sub.IsActive {
		t.Fatal("lapsed subscription should not be active")
	}
	if sub.Limits.ResumeAnalyses == Unlimited {
		t.Fatal("lapsed plan must not keep unlimited limits")
	}
}

func TestUserSubscriptionStoreErrorFailsOpenToFree(t *testing.T) {
	store := newFakeStore()
	store.subErr = errors.New("connection refused")
	g := newTestGate(store)

	sub := g.UserSubscription(context.Background(), "user-1")
	if sub.PlanName != PlanFree {
		t.Fatalf("plan on store error = %s, want free", sub.PlanName)
	}
}

func TestUserSubscriptionUnknownPlanName(t *testing.T) {
	store := newFakeStore()
	store.sub = activeSub("enterprise-gold")
	g := newTestGate(store)

	sub := g.UserSubscription(context.Background(), "user-1")
	if sub.PlanName != PlanFree {
		t.Fatalf("unknown plan resolved to %s, want free", sub.PlanName)
	}
}

func TestUserUsageStoreErrorFailsOpenToZero(t *testing.T) {
	store := newFakeStore()
	store.usageErr = errors.New("connection refused")
	g := newTestGate(store)

	usage := g.UserUsage(context.Background(), "user-1")
	if usage != (Usage{}) {
		t.Fatalf("usage on store error = %+v, want all zero", usage)
	}
}

func TestUserUsageMapsCounters(t *testing.T) {
	store := newFakeStore()
	store.counters[counterKey{"user-1", ActionResumeAnalysis, 3, 2026}] = 2
	store.counters[counterKey{"user-1", ActionResumeDownload, 3, 2026}] = 1
	// A different month must not leak into the current period.
	store.counters[counterKey{"user-1", ActionResumeAnalysis, 2, 2026}] = 9
	g := newTestGate(store)

	usage := g.UserUsage(context.Background(), "user-1")
	if usage.ResumeAnalyses != 2 {
		t.Fatalf("ResumeAnalyses = %d, want 2", usage.ResumeAnalyses)
	}
	if usage.ResumeDownloads != 1 {
		t.Fatalf("ResumeDownloads = %d, want 1", usage.ResumeDownloads)
	}
	if usage.ResumeCreations != 0 {
		t.Fatalf("ResumeCreations = %d, want 0", usage.ResumeCreations)
	}
}

func TestCanPerformActionFreePlanBoundary(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	store.counters[counterKey{"user-1", ActionResumeAnalysis, 3, 2026}] = 2
	decision := g.CanPerformAction(context.Background(), "user-1", ActionResumeAnalysis)
	if !decision.CanPerform {
		t.Fatalf("usage 2 of 3 should be allowed, reason: %s", decision.Reason)
	}

	store.counters[counterKey{"user-1", ActionResumeAnalysis, 3, 2026}] = 3
	decision = g.CanPerformAction(context.Background(), "user-1", ActionResumeAnalysis)
	if decision.CanPerform {
		t.Fatal("usage 3 of 3 should be denied")
	}
	if !strings.Contains(decision.Reason, "3") {
		t.Fatalf("reason should name the limit, got: %s", decision.Reason)
	}
	if !strings.Contains(strings.ToLower(decision.Reason), "upgrade") {
		t.Fatalf("reason should point at an upgrade, got: %s", decision.Reason)
	}
}

func TestCanPerformActionZeroLimit(t *testing.T) {
	g := newTestGate(newFakeStore())

	// Free plan has no downloads at all.
	decision := g.CanPerformAction(context.Background(), "user-1", ActionResumeDownload)
	if decision.CanPerform {
		t.Fatal("download on free plan should be denied")
	}
}

func TestCanPerformActionUnlimitedPlan(t *testing.T) {
	store := newFakeStore()
	store.sub = activeSub(string(PlanUnlimited))
	for _, action := range Actions {
		store.counters[counterKey{"user-1", action, 3, 2026}] = 1_000_000
	}
	g := newTestGate(store)

	for _, action := range Actions {
		decision := g.CanPerformAction(context.Background(), "user-1", action)
		if !decision.CanPerform {
			t.Fatalf("unlimited plan denied %s: %s", action, decision.Reason)
		}
	}
}

func TestCanPerformActionBasicPlan(t *testing.T) {
	store := newFakeStore()
	store.sub = activeSub(string(PlanBasic))
	store.counters[counterKey{"user-1", ActionResumeDownload, 3, 2026}] = 9
	g := newTestGate(store)

	decision := g.CanPerformAction(context.Background(), "user-1", ActionResumeDownload)
	if !decision.CanPerform {
		t.Fatalf("9 of 10 downloads should be allowed, reason: %s", decision.Reason)
	}
	if decision.Limits.ResumeDownloads != 10 {
		t.Fatalf("Limits.ResumeDownloads = %d, want 10", decision.Limits.ResumeDownloads)
	}
}

func TestCanPerformActionUnknownAction(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	decision := g.CanPerformAction(context.Background(), "user-1", Action("mint_nft"))
	if decision.CanPerform {
		t.Fatal("unknown action should be denied")
	}
	if store.subCalls != 0 || store.usageCalls != 0 {
		t.Fatalf("unknown action touched the store: sub=%d usage=%d", store.subCalls, store.usageCalls)
	}
}

func TestWithSubscriptionCheckDeniedNeverRunsCallback(t *testing.T) {
	store := newFakeStore()
	store.counters[counterKey{"user-1", ActionResumeAnalysis, 3, 2026}] = 3
	g := newTestGate(store)

	calls := 0
	err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionResumeAnalysis, func(ctx context.Context) error {
		calls++
		return nil
	})

	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want *DeniedError", err)
	}
	if calls != 0 {
		t.Fatalf("callback ran %d times on denial", calls)
	}
	if store.incrementCalls != 0 {
		t.Fatalf("usage incremented %d times on denial", store.incrementCalls)
	}
}

func TestWithSubscriptionCheckCallbackFailureConsumesNoQuota(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	wantErr := errors.New("agent timeout")
	err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionResumeAnalysis, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if store.incrementCalls != 0 {
		t.Fatalf("usage incremented %d times after callback failure", store.incrementCalls)
	}
}

func TestWithSubscriptionCheckSuccessIncrementsOnce(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionResumeAnalysis, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if store.incrementCalls != 1 {
		t.Fatalf("incrementCalls = %d, want 1", store.incrementCalls)
	}
	if got := store.count("user-1", ActionResumeAnalysis, 3, 2026); got != 1 {
		t.Fatalf("counter = %d, want 1", got)
	}
}

func TestWithSubscriptionCheckIncrementErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.incrementErr = errors.New("write failed")
	g := newTestGate(store)

	err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionResumeAnalysis, func(ctx context.Context) error {
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "write failed") {
		t.Fatalf("err = %v, want wrapped write failure", err)
	}
}

func TestIncrementUsageConcurrent(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if err := g.IncrementUsage(context.Background(), "user-1", ActionResumeAnalysis); err != nil {
				t.Errorf("IncrementUsage error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.count("user-1", ActionResumeAnalysis, 3, 2026); got != n {
		t.Fatalf("counter = %d, want %d", got, n)
	}
}

func TestGateEnforcesLimitAcrossSequence(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	// Free plan allows exactly 2 AI section tailoring runs.
	allowed := 0
	for i := 0; i < 5; i++ {
		err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionAISectionTailoring, func(ctx context.Context) error {
			return nil
		})
		if err == nil {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed %d runs, want 2", allowed)
	}
}

func TestDefaultPlanLimitsTable(t *testing.T) {
	limits := DefaultPlanLimits()

	checks := []struct {
		plan   Plan
		action Action
		want   int
	}{
		{PlanFree, ActionResumeAnalysis, 3},
		{PlanFree, ActionResumeDownload, 0},
		{PlanFree, ActionAISectionTailoring, 2},
		{PlanBasic, ActionResumeAnalysis, 25},
		{PlanBasic, ActionAISectionTailoring, 12},
		{PlanBasic, ActionCoverLetterAnalysis, 0},
		{PlanUnlimited, ActionResumeAnalysis, Unlimited},
		{PlanUnlimited, ActionCoverLetterAnalysis, Unlimited},
	}
	for _, c := range checks {
		if got := limits[c.plan].Limit(c.action); got != c.want {
			t.Fatalf("%s/%s = %d, want %d", c.plan, c.action, got, c.want)
		}
	}
}

func TestIncrementUsageInvalidAction(t *testing.T) {
	store := newFakeStore()
	g := newTestGate(store)

	if err := g.IncrementUsage(context.Background(), "user-1", Action("bogus")); err == nil {
		t.Fatal("expected error for invalid action")
	}
	if store.incrementCalls != 0 {
		t.Fatal("store should not be touched for invalid action")
	}
}

func ExampleGate_WithSubscriptionCheck() {
	g := newTestGate(newFakeStore())

	err := g.WithSubscriptionCheck(context.Background(), "user-1", ActionResumeAnalysis, func(ctx context.Context) error {
		// run the AI analysis here
		return nil
	})
	fmt.Println(err)
	// Output: <nil>
}
