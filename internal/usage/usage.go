package usage

import (
	"context"
	"time"

	"github.com/postforge/postforge/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Record describes one generation attempt.
type Record struct {
	ChatID      int64
	Platform    string
	ContentType string
	Language    string
	Model       string
	PromptChars int
	OutputChars int
	Failed      bool
	Duration    time.Duration
	RequestedAt time.Time
}

// Recorder persists generation records for reporting.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder { return &Recorder{db: db} }

// Record inserts a generation row. Failures are logged, not returned:
// reporting must never break the user-facing flow. The write uses its
// own timeout so a cancelled chat context cannot drop the record.
func (r *Recorder) Record(rec Record) {
	if r == nil || r.db == nil {
		return
	}

	dbCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row := models.Generation{
		ChatID:         rec.ChatID,
		Platform:       rec.Platform,
		ContentType:    rec.ContentType,
		Language:       rec.Language,
		Model:          rec.Model,
		PromptChars:    rec.PromptChars,
		OutputChars:    rec.OutputChars,
		Failed:         rec.Failed,
		DurationMillis: rec.Duration.Milliseconds(),
		RequestedAt:    normalizeTime(rec.RequestedAt),
		CreatedAt:      time.Now().UTC(),
	}

	if errCreate := r.db.WithContext(dbCtx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Warn("usage: failed to persist generation record")
	}
}

// normalizeTime returns a UTC timestamp, defaulting to now if zero.
func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
