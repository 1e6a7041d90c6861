package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// KeyForChat builds a limiter key for a Telegram chat.
func KeyForChat(chatID int64) string {
	if chatID == 0 {
		return ""
	}
	return fmt.Sprintf("c:%d", chatID)
}
