package mapping

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// WebsitePlanService maps website ids to billing plans. The map is loaded
// from environment on startup; websites not listed default to the free plan.
type WebsitePlanService struct {
	mu          sync.RWMutex
	plans       map[string]string
	lastUpdated time.Time
	logger      *zap.Logger
}

func NewWebsitePlanService(logger *zap.Logger) *WebsitePlanService {
	return &WebsitePlanService{
		plans:  make(map[string]string),
		logger: logger,
	}
}

// LoadFromEnvironment reads plan assignments from two variables:
// WEBSITE_PLANS as "websiteID:plan,websiteID:plan" pairs, and
// PREMIUM_WEBSITE_IDS as a comma-separated premium shortlist.
func (s *WebsitePlanService) LoadFromEnvironment() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range strings.Split(os.Getenv("WEBSITE_PLANS"), ",") {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			s.logger.Warn("Invalid website plan entry", zap.String("entry", entry))
			continue
		}
		s.plans[parts[0]] = parts[1]
	}

	for _, id := range strings.Split(os.Getenv("PREMIUM_WEBSITE_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			s.plans[id] = PlanPremium
		}
	}

	s.lastUpdated = time.Now()
	s.logger.Info("Loaded website plan mapping",
		zap.Int("total_websites", len(s.plans)))
}

// PlanFor returns the plan for a website, defaulting to free.
func (s *WebsitePlanService) PlanFor(websiteID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if plan, ok := s.plans[websiteID]; ok {
		return plan
	}
	return PlanFree
}

func (s *WebsitePlanService) IsPremium(websiteID string) bool {
	return s.PlanFor(websiteID) == PlanPremium
}
