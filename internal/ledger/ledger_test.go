package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/postforge/postforge/internal/db"
	"github.com/postforge/postforge/internal/models"
)

// fakeClock is an adjustable time source for ledger tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func openTestLedger(t *testing.T, adminChatIDs []int64, opts ...Option) *Ledger {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "ledger-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return New(conn, adminChatIDs, opts...)
}

func mustReserve(t *testing.T, l *Ledger, chatID int64) {
	t.Helper()
	res, err := l.TryReserve(context.Background(), chatID)
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if !res.Reserved {
		t.Fatalf("expected Reserved, got denial %q", res.Reason)
	}
}

func mustDeny(t *testing.T, l *Ledger, chatID int64, reason DenyReason) {
	t.Helper()
	res, err := l.TryReserve(context.Background(), chatID)
	if err != nil {
		t.Fatalf("TryReserve: %v", err)
	}
	if res.Reserved {
		t.Fatalf("expected denial %q, got Reserved", reason)
	}
	if res.Reason != reason {
		t.Fatalf("expected denial %q, got %q", reason, res.Reason)
	}
}

func TestFreePlanDailyCap(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1001)

	for i := 0; i < 3; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit cycle %d: %v", i, errCommit)
		}
	}

	mustDeny(t, l, chatID, DenyLimitReached)

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 3 || snap.Remaining != 0 {
		t.Fatalf("expected used=3 remaining=0, got used=%d remaining=%d", snap.UsedToday, snap.Remaining)
	}
}

func TestDailyReset(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC))
	l := openTestLedger(t, nil, WithClock(clock.Now))
	ctx := context.Background()
	const chatID = int64(1002)

	for i := 0; i < 3; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit: %v", errCommit)
		}
	}
	mustDeny(t, l, chatID, DenyLimitReached)

	clock.Advance(24 * time.Hour)

	mustReserve(t, l, chatID)
	if errCommit := l.Commit(ctx, chatID); errCommit != nil {
		t.Fatalf("commit after reset: %v", errCommit)
	}

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 1 {
		t.Fatalf("expected used=1 after reset, got %d", snap.UsedToday)
	}
	if snap.Remaining != 2 {
		t.Fatalf("expected remaining=2 after reset, got %d", snap.Remaining)
	}
}

func TestOverlappingReserveDenied(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1003)

	// Two commits leave usedToday=2 against a cap of 3.
	for i := 0; i < 2; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit: %v", errCommit)
		}
	}

	mustReserve(t, l, chatID)
	// The first reservation is still uncommitted.
	mustDeny(t, l, chatID, DenyInProgress)

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 3 {
		t.Fatalf("denial must not double-charge: expected used=3, got %d", snap.UsedToday)
	}

	if errCommit := l.Commit(ctx, chatID); errCommit != nil {
		t.Fatalf("commit: %v", errCommit)
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	l := openTestLedger(t, nil)
	const chatID = int64(1004)

	const attempts = 8
	results := make([]Result, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = l.TryReserve(context.Background(), chatID)
		}(i)
	}
	wg.Wait()

	reserved := 0
	for i := 0; i < attempts; i++ {
		if errs[i] != nil {
			t.Fatalf("TryReserve %d: %v", i, errs[i])
		}
		if results[i].Reserved {
			reserved++
		}
	}
	if reserved != 1 {
		t.Fatalf("expected exactly one Reserved among concurrent attempts, got %d", reserved)
	}
}

func TestRollbackRestoresCredit(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1005)

	for i := 0; i < 2; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit: %v", errCommit)
		}
	}

	before, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}

	mustReserve(t, l, chatID)
	// Simulated upstream failure.
	if errRollback := l.Rollback(ctx, chatID); errRollback != nil {
		t.Fatalf("Rollback: %v", errRollback)
	}

	after, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if after.UsedToday != before.UsedToday {
		t.Fatalf("expected used=%d after rollback, got %d", before.UsedToday, after.UsedToday)
	}
	if after.Remaining != before.Remaining {
		t.Fatalf("expected remaining=%d after rollback, got %d", before.Remaining, after.Remaining)
	}

	mustReserve(t, l, chatID)
}

func TestCommitKeepsCharge(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1006)

	mustReserve(t, l, chatID)
	if errCommit := l.Commit(ctx, chatID); errCommit != nil {
		t.Fatalf("Commit: %v", errCommit)
	}

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 1 {
		t.Fatalf("expected used=1 after commit, got %d", snap.UsedToday)
	}

	// A committed account is no longer locked.
	mustReserve(t, l, chatID)
}

func TestPlanUpgradeLiftsCap(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1007)

	for i := 0; i < 3; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit: %v", errCommit)
		}
	}
	mustDeny(t, l, chatID, DenyLimitReached)

	if errSetPlan := l.SetPlan(ctx, chatID, models.PlanLifetime); errSetPlan != nil {
		t.Fatalf("SetPlan: %v", errSetPlan)
	}

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.Plan != models.PlanLifetime || !snap.Unlimited {
		t.Fatalf("expected lifetime unlimited snapshot, got %+v", snap)
	}
	// Consumed free-tier usage is kept, but no longer gates anything.
	if snap.UsedToday != 3 {
		t.Fatalf("expected used=3 kept across upgrade, got %d", snap.UsedToday)
	}

	mustReserve(t, l, chatID)
	if errCommit := l.Commit(ctx, chatID); errCommit != nil {
		t.Fatalf("commit after upgrade: %v", errCommit)
	}
}

func TestMonthlyPlanCap(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1008)

	if errSetPlan := l.SetPlan(ctx, chatID, models.PlanMonthly); errSetPlan != nil {
		t.Fatalf("SetPlan: %v", errSetPlan)
	}
	for i := 0; i < 20; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit %d: %v", i, errCommit)
		}
	}
	mustDeny(t, l, chatID, DenyLimitReached)
}

func TestAdminBypassesQuota(t *testing.T) {
	const adminChatID = int64(42)
	l := openTestLedger(t, []int64{adminChatID})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		mustReserve(t, l, adminChatID)
		if errCommit := l.Commit(ctx, adminChatID); errCommit != nil {
			t.Fatalf("commit %d: %v", i, errCommit)
		}
	}

	snap, err := l.Peek(ctx, adminChatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if !snap.Unlimited {
		t.Fatalf("expected unlimited snapshot for admin, got %+v", snap)
	}
}

func TestLockExpiryReadmits(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	l := openTestLedger(t, nil, WithClock(clock.Now), WithLockTTL(30*time.Second))
	const chatID = int64(1009)

	mustReserve(t, l, chatID)
	// Caller crashed: neither Commit nor Rollback ever runs.
	mustDeny(t, l, chatID, DenyInProgress)

	clock.Advance(time.Minute)
	mustReserve(t, l, chatID)
}

func TestDenialNeverCharges(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1010)

	for i := 0; i < 3; i++ {
		mustReserve(t, l, chatID)
		if errCommit := l.Commit(ctx, chatID); errCommit != nil {
			t.Fatalf("commit: %v", errCommit)
		}
	}

	for i := 0; i < 5; i++ {
		mustDeny(t, l, chatID, DenyLimitReached)
	}

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 3 {
		t.Fatalf("denials must not charge: expected used=3, got %d", snap.UsedToday)
	}
}

func TestPeekCreatesAccountLazily(t *testing.T) {
	l := openTestLedger(t, nil)
	ctx := context.Background()
	const chatID = int64(1011)

	snap, err := l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.Plan != models.PlanFree || snap.UsedToday != 0 || snap.Remaining != 3 {
		t.Fatalf("expected fresh free account, got %+v", snap)
	}

	// Peek right after a reserve on the same day must not reset the counter.
	mustReserve(t, l, chatID)
	snap, err = l.Peek(ctx, chatID)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if snap.UsedToday != 1 {
		t.Fatalf("expected used=1, got %d", snap.UsedToday)
	}
	if errCommit := l.Commit(ctx, chatID); errCommit != nil {
		t.Fatalf("commit: %v", errCommit)
	}
}

func TestAllowanceFor(t *testing.T) {
	cases := []struct {
		plan      models.PlanTier
		isAdmin   bool
		daily     int
		unlimited bool
	}{
		{models.PlanFree, false, 3, false},
		{models.PlanMonthly, false, 20, false},
		{models.PlanLifetime, false, 0, true},
		{models.PlanFree, true, 0, true},
		{models.PlanTier("bogus"), false, 3, false},
	}
	for _, tc := range cases {
		got := AllowanceFor(tc.plan, tc.isAdmin)
		if got.Unlimited != tc.unlimited {
			t.Fatalf("AllowanceFor(%s, admin=%v): unlimited=%v", tc.plan, tc.isAdmin, got.Unlimited)
		}
		if !tc.unlimited && got.Daily != tc.daily {
			t.Fatalf("AllowanceFor(%s, admin=%v): daily=%d, want %d", tc.plan, tc.isAdmin, got.Daily, tc.daily)
		}
	}
}
