package handlers

import (
	"context"
	"net/http"

	"submission-processor/internal/dispatch"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookTester runs a synchronous endpoint test; the configuration UI gates
// webhook creation on the result.
type WebhookTester interface {
	TestWebhook(ctx context.Context, webhookID string) (*dispatch.TestResult, error)
}

type TestWebhookRequest struct {
	WebhookID string `json:"webhookId" binding:"required"`
}

type WebhookHandler struct {
	logger *zap.Logger
	tester WebhookTester
}

func NewWebhookHandler(logger *zap.Logger, tester WebhookTester) *WebhookHandler {
	return &WebhookHandler{
		logger: logger,
		tester: tester,
	}
}

func (h *WebhookHandler) HandleTest(c *gin.Context) {
	var req TestWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhookId is required"})
		return
	}

	result, err := h.tester.TestWebhook(c.Request.Context(), req.WebhookID)
	if err != nil {
		h.logger.Error("Webhook test failed to run",
			zap.Error(err),
			zap.String("webhook_id", req.WebhookID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message := "Webhook test failed"
	if result.Success {
		message = "Webhook test succeeded"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  result.Success,
		"status":   result.Status,
		"response": result.Response,
		"duration": result.Duration,
		"message":  message,
	})
}
