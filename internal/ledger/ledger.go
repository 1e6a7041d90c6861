package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbutil "github.com/postforge/postforge/internal/db"
	"github.com/postforge/postforge/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// DenyReason explains why a reservation was refused.
type DenyReason string

// Denial reasons returned by TryReserve.
const (
	// DenyLimitReached means the daily allowance is exhausted.
	DenyLimitReached DenyReason = "limit_reached"
	// DenyInProgress means another generation is still in flight for the account.
	DenyInProgress DenyReason = "in_progress"
)

// Result is the outcome of a reservation attempt. Denials are normal
// control flow, not errors.
type Result struct {
	Reserved bool       // Whether one unit of allowance was claimed.
	Reason   DenyReason // Set when Reserved is false.
}

// Snapshot is a read-only view of an account's quota state.
type Snapshot struct {
	Plan      models.PlanTier // Active plan tier.
	Unlimited bool            // No daily cap applies.
	UsedToday int             // Generations consumed today.
	Remaining int             // Generations left today; 0 when Unlimited.
}

// DefaultLockTTL bounds how long a reservation lock can strand an
// account if the caller never commits or rolls back.
const DefaultLockTTL = 120 * time.Second

// Ledger owns per-account plan tiers, daily usage counters, and the
// reservation lock that prevents double submission. All mutations run
// under a per-account mutex; on PostgreSQL the account row is
// additionally locked inside the transaction so multiple processes can
// share one store.
type Ledger struct {
	db      *gorm.DB
	admins  map[int64]struct{}
	locks   *keyedMutex
	now     func() time.Time
	lockTTL time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLockTTL overrides the reservation lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.lockTTL = ttl
		}
	}
}

// New constructs a Ledger. Accounts listed in adminChatIDs bypass quota
// enforcement; authorization of who may call SetPlan is the caller's
// concern.
func New(db *gorm.DB, adminChatIDs []int64, opts ...Option) *Ledger {
	admins := make(map[int64]struct{}, len(adminChatIDs))
	for _, id := range adminChatIDs {
		admins[id] = struct{}{}
	}
	l := &Ledger{
		db:      db,
		admins:  admins,
		locks:   newKeyedMutex(),
		now:     time.Now,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsAdmin reports whether the chat ID has the admin override.
func (l *Ledger) IsAdmin(chatID int64) bool {
	_, ok := l.admins[chatID]
	return ok
}

// TryReserve claims one unit of today's allowance for the account,
// creating the account on first touch. The load-check-mutate-persist
// sequence is atomic per account. The reservation must be finalized
// with Commit or Rollback on every exit path.
func (l *Ledger) TryReserve(ctx context.Context, chatID int64) (Result, error) {
	if l == nil || l.db == nil {
		return Result{}, fmt.Errorf("ledger: not initialized")
	}

	unlock := l.locks.lock(chatID)
	defer unlock()

	now := l.now().UTC()
	var result Result

	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, errLoad := l.loadOrCreate(tx, chatID, now)
		if errLoad != nil {
			return errLoad
		}

		// The reset must happen before the allowance check.
		applyDailyReset(acct, now)

		if acct.LockedAt != nil && now.Sub(*acct.LockedAt) < l.lockTTL {
			result = Result{Reason: DenyInProgress}
			// Persist the reset even when denying.
			return saveAccount(tx, acct)
		}

		allowance := AllowanceFor(acct.Plan, l.IsAdmin(chatID))
		if !allowance.Unlimited && acct.UsedToday >= allowance.Daily {
			result = Result{Reason: DenyLimitReached}
			acct.LockedAt = nil
			return saveAccount(tx, acct)
		}

		acct.UsedToday++
		acct.LockedAt = &now
		if errSave := saveAccount(tx, acct); errSave != nil {
			return errSave
		}
		result = Result{Reserved: true}
		return nil
	})
	if errTx != nil {
		return Result{}, fmt.Errorf("ledger: reserve %d: %w", chatID, errTx)
	}
	return result, nil
}

// Commit finalizes a reservation after successful work. The usage
// charge stands; only the lock is released.
func (l *Ledger) Commit(ctx context.Context, chatID int64) error {
	return l.release(ctx, chatID, false)
}

// Rollback undoes a reservation after failed work. The lock is
// released and the usage charge is refunded.
func (l *Ledger) Rollback(ctx context.Context, chatID int64) error {
	return l.release(ctx, chatID, true)
}

func (l *Ledger) release(ctx context.Context, chatID int64, refund bool) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger: not initialized")
	}

	unlock := l.locks.lock(chatID)
	defer unlock()

	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct models.Account
		errFind := dbutil.WithRowLock(tx).Where("chat_id = ?", chatID).First(&acct).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return fmt.Errorf("unknown account")
			}
			return errFind
		}

		acct.LockedAt = nil
		if refund && acct.UsedToday > 0 {
			acct.UsedToday--
		}
		return saveAccount(tx, &acct)
	})
	if errTx != nil {
		verb := "commit"
		if refund {
			verb = "rollback"
		}
		return fmt.Errorf("ledger: %s %d: %w", verb, chatID, errTx)
	}
	return nil
}

// Peek returns the account's plan and remaining allowance without
// reserving. The lazy daily reset is applied and persisted, same as in
// TryReserve.
func (l *Ledger) Peek(ctx context.Context, chatID int64) (Snapshot, error) {
	if l == nil || l.db == nil {
		return Snapshot{}, fmt.Errorf("ledger: not initialized")
	}

	unlock := l.locks.lock(chatID)
	defer unlock()

	now := l.now().UTC()
	var snapshot Snapshot

	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, errLoad := l.loadOrCreate(tx, chatID, now)
		if errLoad != nil {
			return errLoad
		}

		if applyDailyReset(acct, now) {
			if errSave := saveAccount(tx, acct); errSave != nil {
				return errSave
			}
		}

		allowance := AllowanceFor(acct.Plan, l.IsAdmin(chatID))
		snapshot = Snapshot{
			Plan:      acct.Plan,
			Unlimited: allowance.Unlimited,
			UsedToday: acct.UsedToday,
		}
		if !allowance.Unlimited {
			remaining := allowance.Daily - acct.UsedToday
			if remaining < 0 {
				remaining = 0
			}
			snapshot.Remaining = remaining
		}
		return nil
	})
	if errTx != nil {
		return Snapshot{}, fmt.Errorf("ledger: peek %d: %w", chatID, errTx)
	}
	return snapshot, nil
}

// SetPlan changes the account's plan tier, creating the account if
// needed. Usage already consumed today is kept; the new cap applies
// from the next TryReserve or Peek.
func (l *Ledger) SetPlan(ctx context.Context, chatID int64, plan models.PlanTier) error {
	if l == nil || l.db == nil {
		return fmt.Errorf("ledger: not initialized")
	}
	if _, ok := models.ParsePlanTier(string(plan)); !ok {
		return fmt.Errorf("ledger: invalid plan %q", plan)
	}

	unlock := l.locks.lock(chatID)
	defer unlock()

	now := l.now().UTC()
	errTx := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, errLoad := l.loadOrCreate(tx, chatID, now)
		if errLoad != nil {
			return errLoad
		}
		acct.Plan = plan
		return saveAccount(tx, acct)
	})
	if errTx != nil {
		return fmt.Errorf("ledger: set plan %d: %w", chatID, errTx)
	}
	return nil
}

// loadOrCreate fetches the account row under a row lock, creating it
// lazily on first touch.
func (l *Ledger) loadOrCreate(tx *gorm.DB, chatID int64, now time.Time) (*models.Account, error) {
	var acct models.Account
	errFind := dbutil.WithRowLock(tx).Where("chat_id = ?", chatID).First(&acct).Error
	if errFind == nil {
		return &acct, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	acct = models.Account{
		ChatID:        chatID,
		Plan:          models.PlanFree,
		UsedToday:     0,
		LastResetDate: dateOf(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	errCreate := tx.Create(&acct).Error
	if errCreate == nil {
		return &acct, nil
	}
	if !isUniqueViolation(errCreate) {
		return nil, errCreate
	}

	// Lost the create race to another process; load the winner's row.
	if errRetry := dbutil.WithRowLock(tx).Where("chat_id = ?", chatID).First(&acct).Error; errRetry != nil {
		return nil, errRetry
	}
	return &acct, nil
}

// applyDailyReset zeroes the counter on the first touch of a new UTC
// day. Returns whether a reset happened.
func applyDailyReset(acct *models.Account, now time.Time) bool {
	today := dateOf(now)
	if acct.LastResetDate == today {
		return false
	}
	acct.UsedToday = 0
	acct.LastResetDate = today
	return true
}

func saveAccount(tx *gorm.DB, acct *models.Account) error {
	acct.UpdatedAt = time.Now().UTC()
	return tx.Save(acct).Error
}

// dateOf formats the UTC calendar day of t.
func dateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// isUniqueViolation detects a duplicate-key insert on either dialect.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
