package models

import "time"

// PaymentStatus represents the review state of a payment proof.
type PaymentStatus int

// PaymentStatus constants define the payment review lifecycle.
const (
	// PaymentStatusPending marks a proof awaiting admin review.
	PaymentStatusPending PaymentStatus = 1
	// PaymentStatusApproved marks an accepted proof.
	PaymentStatusApproved PaymentStatus = 2
	// PaymentStatusRejected marks a rejected proof.
	PaymentStatusRejected PaymentStatus = 3
)

// Payment records a manual payment proof submitted through the bot.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Reference string `gorm:"type:varchar(64);not null;uniqueIndex"` // Opaque reference shown to the user.

	ChatID int64 `gorm:"not null;index"` // Submitting Telegram chat ID.

	FileID string `gorm:"type:text"` // Telegram file ID of the screenshot, if any.
	Note   string `gorm:"type:text"` // Free-form note (TXN ID etc).

	Status      PaymentStatus `gorm:"not null;default:1"` // Current review state.
	PlanGranted PlanTier      `gorm:"type:varchar(32)"`   // Plan applied on approval.

	ReviewedBy *uint64    // Admin ID that reviewed the proof.
	ReviewedAt *time.Time // When the proof was reviewed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
