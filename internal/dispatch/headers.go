package dispatch

import (
	"encoding/base64"

	"submission-processor/internal/models"
)

// BuildHeaders composes the outbound request headers for a webhook: the JSON
// content type, the webhook's static headers (which may override it), then
// the auth header derived from the configured auth type. Used by both the
// dispatcher and the tester so the two can never drift apart.
func BuildHeaders(webhook *models.Webhook) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	for k, v := range webhook.Headers {
		headers[k] = v
	}

	switch webhook.AuthType {
	case models.AuthTypeBearer:
		headers["Authorization"] = "Bearer " + webhook.AuthConfig.Token
	case models.AuthTypeBasic:
		credentials := webhook.AuthConfig.Username + ":" + webhook.AuthConfig.Password
		headers["Authorization"] = "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	case models.AuthTypeAPIKey:
		if webhook.AuthConfig.Header != "" {
			headers[webhook.AuthConfig.Header] = webhook.AuthConfig.Key
		}
	}

	return headers
}
