package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"submission-processor/internal/models"
	"submission-processor/internal/rules"
	"submission-processor/pkg/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the persistence surface the dispatcher and tester need. The Mongo
// implementation lives in internal/storage; tests substitute a mock.
type Store interface {
	// GetWebhook returns (nil, nil) when the id does not resolve.
	GetWebhook(ctx context.Context, id string) (*models.Webhook, error)
	InsertDelivery(ctx context.Context, delivery *models.WebhookDelivery) error
	MarkDeliveryResult(ctx context.Context, deliveryID string, status models.DeliveryStatus, responseStatus *int, responseBody string) error
	UpdateWebhookTestResult(ctx context.Context, webhookID string, status string, response string) error
}

// Dispatcher executes the webhook actions of matched rules and runs
// synchronous endpoint tests. All collaborators are injected.
type Dispatcher struct {
	store  Store
	client *http.Client
	logger *zap.Logger
}

func NewDispatcher(store Store, client *http.Client, logger *zap.Logger) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Dispatcher{
		store:  store,
		client: client,
		logger: logger,
	}
}

// ExecuteWebhookAction performs one delivery for a matched rule. It never
// returns an error: an unresolvable or inactive webhook is a logged no-op,
// and every failure after the pending row is written ends up captured in
// that row instead of surfacing to the submission handler.
func (d *Dispatcher) ExecuteWebhookAction(ctx context.Context, action models.WebhookAction, formData, userInfo map[string]any, submissionID, ruleID string) {
	webhook, err := d.store.GetWebhook(ctx, action.WebhookID)
	if err != nil {
		d.logger.Error("Failed to look up webhook",
			zap.Error(err),
			zap.String("webhook_id", action.WebhookID),
			zap.String("rule_id", ruleID))
		return
	}
	if webhook == nil || !webhook.IsActive {
		d.logger.Info("Skipping inactive or missing webhook",
			zap.String("webhook_id", action.WebhookID),
			zap.String("rule_id", ruleID))
		metrics.WebhookDeliveries.WithLabelValues("skipped").Inc()
		return
	}

	payload := map[string]any{
		"form_data":     buildFormData(formData, action.IncludeFields),
		"user_info":     userInfo,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"submission_id": submissionID,
		"rule_id":       ruleID,
	}

	delivery := &models.WebhookDelivery{
		ID:             primitive.NewObjectID().Hex(),
		WebhookID:      webhook.ID,
		SubmissionID:   submissionID,
		RuleID:         ruleID,
		Payload:        payload,
		DeliveryStatus: models.DeliveryStatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	// The pending row is the commitment point: once it exists, a crashed
	// send remains auditable as stuck-pending.
	if err := d.store.InsertDelivery(ctx, delivery); err != nil {
		d.logger.Error("Failed to record pending delivery",
			zap.Error(err),
			zap.String("webhook_id", webhook.ID),
			zap.String("submission_id", submissionID))
		return
	}

	// The delay is a single-shot in-process wait; a restart during it loses
	// the send and leaves the row pending.
	if action.DelaySeconds > 0 {
		select {
		case <-time.After(time.Duration(action.DelaySeconds) * time.Second):
		case <-ctx.Done():
			d.recordFailure(delivery.ID, webhook.ID, ctx.Err().Error())
			return
		}
	}

	start := time.Now()
	status, body, err := d.send(ctx, webhook, payload)
	metrics.WebhookDeliveryTime.WithLabelValues(requestMethod(webhook)).Observe(time.Since(start).Seconds())

	if err != nil {
		d.recordFailure(delivery.ID, webhook.ID, err.Error())
		return
	}

	result := models.DeliveryStatusFailed
	if status >= 200 && status < 300 {
		result = models.DeliveryStatusSuccess
	}
	if err := d.store.MarkDeliveryResult(context.WithoutCancel(ctx), delivery.ID, result, &status, body); err != nil {
		d.logger.Error("Failed to update delivery record",
			zap.Error(err),
			zap.String("delivery_id", delivery.ID))
	}
	metrics.WebhookDeliveries.WithLabelValues(string(result)).Inc()

	d.logger.Info("Webhook delivery completed",
		zap.String("webhook_id", webhook.ID),
		zap.String("rule_id", ruleID),
		zap.String("status", string(result)),
		zap.Int("response_status", status))
}

func (d *Dispatcher) send(ctx context.Context, webhook *models.Webhook, payload map[string]any) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, requestMethod(webhook), webhook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	for k, v := range BuildHeaders(webhook) {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(respBody), nil
}

func (d *Dispatcher) recordFailure(deliveryID, webhookID, message string) {
	// Detached context so a cancelled request still gets its audit row.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.store.MarkDeliveryResult(ctx, deliveryID, models.DeliveryStatusFailed, nil, message); err != nil {
		d.logger.Error("Failed to update delivery record",
			zap.Error(err),
			zap.String("delivery_id", deliveryID))
	}
	metrics.WebhookDeliveries.WithLabelValues(string(models.DeliveryStatusFailed)).Inc()

	d.logger.Warn("Webhook delivery failed",
		zap.String("webhook_id", webhookID),
		zap.String("delivery_id", deliveryID),
		zap.String("error", message))
}

// buildFormData applies the include_fields allow-list. Paths that do not
// resolve are omitted entirely rather than forwarded as null.
func buildFormData(formData map[string]any, includeFields []string) map[string]any {
	if len(includeFields) == 0 {
		return formData
	}
	filtered := make(map[string]any, len(includeFields))
	for _, path := range includeFields {
		if value, ok := rules.Resolve(formData, path); ok {
			filtered[path] = value
		}
	}
	return filtered
}

func requestMethod(webhook *models.Webhook) string {
	if webhook.Method == "" {
		return http.MethodPost
	}
	return webhook.Method
}
