package models

import (
	"time"
)

// DeliveryStatus represents the possible states of a webhook delivery
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// WebhookDelivery is the audit record for one outbound send. It is inserted
// in pending state before the network call and updated exactly once after
// the call resolves; a row stuck in pending marks a send lost to a crash.
type WebhookDelivery struct {
	ID           string         `json:"id" bson:"_id"`
	WebhookID    string         `json:"webhook_id" bson:"webhook_id"`
	SubmissionID string         `json:"submission_id" bson:"submission_id"`
	RuleID       string         `json:"rule_id" bson:"rule_id"`
	Payload      map[string]any `json:"payload" bson:"payload"`

	DeliveryStatus DeliveryStatus `json:"delivery_status" bson:"delivery_status"`
	// ResponseStatus stays nil when the request never produced an HTTP
	// response (transport error, timeout).
	ResponseStatus *int       `json:"response_status,omitempty" bson:"response_status,omitempty"`
	ResponseBody   string     `json:"response_body,omitempty" bson:"response_body,omitempty"`
	Attempts       int        `json:"attempts" bson:"attempts"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
}
