package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryBucket struct {
	window int64
	count  int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*memoryBucket)}
}

// Allow checks whether the request should be allowed in the current second.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	sec := now.Unix()
	reset := time.Unix(sec+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.buckets[key]
	if bucket == nil {
		bucket = &memoryBucket{window: sec}
		l.buckets[key] = bucket
	}
	if bucket.window != sec {
		bucket.window = sec
		bucket.count = 0
	}
	if bucket.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	bucket.count++
	return Result{Allowed: true, Remaining: limit - bucket.count, Reset: reset}, nil
}
