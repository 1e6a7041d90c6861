package models

import (
	"strings"
	"time"
)

// PlanTier identifies the subscription tier of an account.
type PlanTier string

// PlanTier values.
const (
	// PlanFree is the default tier for new accounts.
	PlanFree PlanTier = "free"
	// PlanMonthly is the paid monthly tier.
	PlanMonthly PlanTier = "monthly"
	// PlanLifetime is the paid lifetime tier with no daily cap.
	PlanLifetime PlanTier = "lifetime"
)

// ParsePlanTier normalizes and validates a plan tier string.
func ParsePlanTier(raw string) (PlanTier, bool) {
	switch PlanTier(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanFree:
		return PlanFree, true
	case PlanMonthly:
		return PlanMonthly, true
	case PlanLifetime:
		return PlanLifetime, true
	default:
		return "", false
	}
}

// Account represents a bot end-user keyed by Telegram chat ID.
type Account struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ChatID int64 `gorm:"not null;uniqueIndex"` // Telegram chat ID.

	Plan          PlanTier `gorm:"type:varchar(32);not null;default:'free'"` // Active plan tier.
	UsedToday     int      `gorm:"not null;default:0"`                       // Generations consumed on LastResetDate.
	LastResetDate string   `gorm:"type:varchar(10);not null"`               // UTC calendar day of the last counter reset (YYYY-MM-DD).

	LockedAt *time.Time // Set while a generation is in flight; nil once released.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
