package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWebsitePlanServiceLoadFromEnvironment(t *testing.T) {
	t.Setenv("WEBSITE_PLANS", "site-a:premium,site-b:free,broken-entry")
	t.Setenv("PREMIUM_WEBSITE_IDS", "site-c, site-d")

	s := NewWebsitePlanService(zap.NewNop())
	s.LoadFromEnvironment()

	assert.True(t, s.IsPremium("site-a"))
	assert.False(t, s.IsPremium("site-b"))
	assert.True(t, s.IsPremium("site-c"))
	assert.True(t, s.IsPremium("site-d"))

	// Unknown websites default to the free plan.
	assert.Equal(t, PlanFree, s.PlanFor("site-unknown"))
}

func TestWebsitePlanServiceEmptyEnvironment(t *testing.T) {
	t.Setenv("WEBSITE_PLANS", "")
	t.Setenv("PREMIUM_WEBSITE_IDS", "")

	s := NewWebsitePlanService(zap.NewNop())
	s.LoadFromEnvironment()

	assert.Equal(t, PlanFree, s.PlanFor("anything"))
}
