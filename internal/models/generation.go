package models

import "time"

// Generation records a single generation attempt for reporting.
type Generation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ChatID int64 `gorm:"not null;index"` // Requesting Telegram chat ID.

	Platform    string `gorm:"type:varchar(32);not null"` // Target platform (telegram, whatsapp, ...).
	ContentType string `gorm:"type:varchar(32);not null"` // Content type (motivation, quote, hooks).
	Language    string `gorm:"type:varchar(32);not null"` // Output language variant.
	Model       string `gorm:"type:varchar(128)"`         // Upstream model identifier.

	PromptChars int  `gorm:"not null;default:0"` // Prompt length in characters.
	OutputChars int  `gorm:"not null;default:0"` // Output length in characters.
	Failed      bool `gorm:"not null;default:false"` // Whether the upstream call failed.

	DurationMillis int64 `gorm:"not null;default:0"` // Upstream call duration.

	RequestedAt time.Time `gorm:"not null;index"`          // When the generation was requested.
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
