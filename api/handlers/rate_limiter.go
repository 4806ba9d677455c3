package handlers

import (
	"sync"
	"time"
)

// RateLimiter enforces the free-plan daily submission cap per website.
// Premium websites are uncapped.
type RateLimiter struct {
	mu       sync.Mutex
	limits   map[string]*websiteLimit
	freePlan struct {
		dailyLimit int
	}
}

type websiteLimit struct {
	dailyCount int
	lastReset  time.Time
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		limits: make(map[string]*websiteLimit),
	}
	rl.freePlan.dailyLimit = 10000 // 10k submissions per day
	return rl
}

func (rl *RateLimiter) AllowSubmission(websiteID string, premium bool) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.limits[websiteID]
	if !exists {
		limit = &websiteLimit{
			lastReset: time.Now().UTC(),
		}
		rl.limits[websiteID] = limit
	}

	// Reset daily count if it's a new day
	now := time.Now().UTC()
	if now.Sub(limit.lastReset) >= 24*time.Hour {
		limit.dailyCount = 0
		limit.lastReset = now
	}

	if premium {
		limit.dailyCount++
		return true
	}

	if limit.dailyCount >= rl.freePlan.dailyLimit {
		return false
	}

	limit.dailyCount++
	return true
}
