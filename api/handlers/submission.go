package handlers

import (
	"context"
	"net/http"
	"time"

	"submission-processor/internal/mapping"
	"submission-processor/internal/models"
	"submission-processor/internal/queue"
	"submission-processor/internal/rules"
	"submission-processor/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SubmissionStore is the persistence surface of the orchestrator.
type SubmissionStore interface {
	InsertSubmission(ctx context.Context, submission *models.FormSubmission) error
	GetActiveRules(ctx context.Context, campaignID, templateID string) ([]models.SubmissionRule, error)
	SetProcessedRules(ctx context.Context, submissionID string, ruleIDs []string) error
}

// ActionDispatcher executes one webhook action of a matched rule. It must
// not return; all delivery failures are captured into the audit trail.
type ActionDispatcher interface {
	ExecuteWebhookAction(ctx context.Context, action models.WebhookAction, formData, userInfo map[string]any, submissionID, ruleID string)
}

type SubmissionRequest struct {
	CampaignID    string         `json:"campaignId"`
	TemplateID    string         `json:"templateId"`
	FormData      map[string]any `json:"formData" binding:"required"`
	UserInfo      map[string]any `json:"userInfo"`
	WebsiteID     string         `json:"websiteId"`
	TrackedUserID string         `json:"trackedUserId"`
}

type SubmissionHandler struct {
	logger      *zap.Logger
	store       SubmissionStore
	dispatcher  ActionDispatcher
	publisher   queue.Publisher
	rateLimiter *RateLimiter
	planMapper  *mapping.WebsitePlanService
	debug       bool
}

func NewSubmissionHandler(logger *zap.Logger, store SubmissionStore, dispatcher ActionDispatcher, publisher queue.Publisher, planMapper *mapping.WebsitePlanService, debug bool) *SubmissionHandler {
	return &SubmissionHandler{
		logger:      logger,
		store:       store,
		dispatcher:  dispatcher,
		publisher:   publisher,
		rateLimiter: NewRateLimiter(),
		planMapper:  planMapper,
		debug:       debug,
	}
}

// HandleSubmission records the submission, runs matching rules in priority
// order, and fires their webhook actions. Only the initial insert can fail
// the request; everything after it is best-effort and observable through
// stored state rather than the response.
func (h *SubmissionHandler) HandleSubmission(c *gin.Context) {
	start := time.Now()

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to parse submission payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if h.debug {
		h.logger.Info("Received submission",
			zap.String("campaign_id", req.CampaignID),
			zap.String("template_id", req.TemplateID),
			zap.String("website_id", req.WebsiteID),
			zap.Any("form_data", req.FormData))
	}

	if req.WebsiteID != "" {
		premium := h.planMapper != nil && h.planMapper.IsPremium(req.WebsiteID)
		if !h.rateLimiter.AllowSubmission(req.WebsiteID, premium) {
			metrics.RateLimitExceeded.WithLabelValues(req.WebsiteID).Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Submission limit exceeded"})
			return
		}
	}

	scope := scopeLabel(req.CampaignID, req.TemplateID)
	metrics.SubmissionsReceived.WithLabelValues(scope).Inc()

	submission := &models.FormSubmission{
		ID:            primitive.NewObjectID().Hex(),
		CampaignID:    req.CampaignID,
		TemplateID:    req.TemplateID,
		FormData:      req.FormData,
		UserInfo:      req.UserInfo,
		WebsiteID:     req.WebsiteID,
		TrackedUserID: req.TrackedUserID,
		CreatedAt:     time.Now().UTC(),
	}

	// The one fatal failure: the submission must exist before any rule runs.
	if err := h.store.InsertSubmission(c.Request.Context(), submission); err != nil {
		metrics.SubmissionsProcessed.WithLabelValues(scope, "failed").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	matched, hadRules := h.processRules(c.Request.Context(), submission)

	h.publishEvent(submission, len(matched))

	metrics.SubmissionsProcessed.WithLabelValues(scope, "success").Inc()
	metrics.SubmissionProcessingTime.WithLabelValues(scope).Observe(time.Since(start).Seconds())

	if !hadRules {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Form submission stored, no rules to process",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"submission_id":   submission.ID,
		"processed_rules": len(matched),
		"message":         "Form submission processed",
	})
}

// processRules evaluates rules in priority order and dispatches the actions
// of every match. One rule's failure never blocks the rest. hadRules reports
// whether the scope had any candidate rules at all.
func (h *SubmissionHandler) processRules(ctx context.Context, submission *models.FormSubmission) (matched []string, hadRules bool) {
	if submission.CampaignID == "" && submission.TemplateID == "" {
		return nil, false
	}

	ruleSet, err := h.store.GetActiveRules(ctx, submission.CampaignID, submission.TemplateID)
	if err != nil {
		h.logger.Error("Failed to load rules",
			zap.Error(err),
			zap.String("submission_id", submission.ID))
		return nil, false
	}
	if len(ruleSet) == 0 {
		return nil, false
	}

	scope := scopeLabel(submission.CampaignID, submission.TemplateID)
	matched = make([]string, 0, len(ruleSet))

	for _, rule := range ruleSet {
		if !rules.Evaluate(rule.Conditions, submission.FormData, submission.UserInfo) {
			continue
		}
		matched = append(matched, rule.ID)
		metrics.RulesMatched.WithLabelValues(scope).Inc()

		for _, action := range rule.Actions.Webhooks {
			h.dispatcher.ExecuteWebhookAction(ctx, action, submission.FormData, submission.UserInfo, submission.ID, rule.ID)
		}
	}

	if len(matched) > 0 {
		if err := h.store.SetProcessedRules(ctx, submission.ID, matched); err != nil {
			h.logger.Error("Failed to record processed rules",
				zap.Error(err),
				zap.String("submission_id", submission.ID))
		}
	}

	return matched, true
}

func (h *SubmissionHandler) publishEvent(submission *models.FormSubmission, matchedRules int) {
	if h.publisher == nil {
		return
	}
	event := models.SubmissionEvent{
		SubmissionID: submission.ID,
		CampaignID:   submission.CampaignID,
		TemplateID:   submission.TemplateID,
		WebsiteID:    submission.WebsiteID,
		MatchedRules: matchedRules,
		ProcessedAt:  time.Now().UTC(),
	}
	if err := h.publisher.Publish(event); err != nil {
		h.logger.Error("Failed to publish submission event",
			zap.Error(err),
			zap.String("submission_id", submission.ID))
	}
}

func scopeLabel(campaignID, templateID string) string {
	switch {
	case campaignID != "":
		return "campaign"
	case templateID != "":
		return "template"
	default:
		return "none"
	}
}
