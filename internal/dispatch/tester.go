package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"submission-processor/pkg/metrics"

	"go.uber.org/zap"
)

const maxTestResponseLen = 500

// TestResult is returned synchronously to the configuration UI so it can
// gate webhook creation on a passing test.
type TestResult struct {
	Success  bool   `json:"success"`
	Status   int    `json:"status"`
	Response string `json:"response"`
	Duration int64  `json:"duration"` // milliseconds
}

// TestWebhook sends a synthetic payload to the webhook's endpoint, times the
// round trip, and writes the outcome onto the webhook's last_test_* fields.
// The only error it returns is an unresolvable webhook id; transport and
// HTTP failures come back as an unsuccessful result.
func (d *Dispatcher) TestWebhook(ctx context.Context, webhookID string) (*TestResult, error) {
	webhook, err := d.store.GetWebhook(ctx, webhookID)
	if err != nil {
		return nil, err
	}
	if webhook == nil {
		return nil, fmt.Errorf("webhook %s not found", webhookID)
	}

	payload := map[string]any{
		"test":      true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"message":   "This is a test webhook delivery",
		"form_data": map[string]any{
			"email":   "test@example.com",
			"name":    "Test User",
			"message": "Sample form submission",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, requestMethod(webhook), webhook.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range BuildHeaders(webhook) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	duration := time.Since(start).Milliseconds()

	result := &TestResult{Duration: duration}
	if err != nil {
		result.Response = err.Error()
		d.recordTest(webhook.ID, "failed", truncate(err.Error(), maxTestResponseLen))
		return result, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	result.Status = resp.StatusCode
	result.Response = string(respBody)
	result.Success = resp.StatusCode >= 200 && resp.StatusCode < 300

	status := "failed"
	if result.Success {
		status = "success"
	}
	d.recordTest(webhook.ID, status, truncate(fmt.Sprintf("%d %s", resp.StatusCode, respBody), maxTestResponseLen))

	return result, nil
}

func (d *Dispatcher) recordTest(webhookID, status, response string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.store.UpdateWebhookTestResult(ctx, webhookID, status, response); err != nil {
		d.logger.Error("Failed to record webhook test result",
			zap.Error(err),
			zap.String("webhook_id", webhookID))
	}
	metrics.WebhookTests.WithLabelValues(status).Inc()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
