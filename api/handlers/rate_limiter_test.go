package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterFreePlanDailyCap(t *testing.T) {
	rl := NewRateLimiter()
	rl.freePlan.dailyLimit = 3

	for i := 0; i < 3; i++ {
		assert.True(t, rl.AllowSubmission("site-1", false))
	}
	assert.False(t, rl.AllowSubmission("site-1", false))

	// Other websites are tracked independently.
	assert.True(t, rl.AllowSubmission("site-2", false))
}

func TestRateLimiterPremiumUncapped(t *testing.T) {
	rl := NewRateLimiter()
	rl.freePlan.dailyLimit = 1

	assert.True(t, rl.AllowSubmission("site-1", true))
	assert.True(t, rl.AllowSubmission("site-1", true))
	assert.True(t, rl.AllowSubmission("site-1", true))
}
