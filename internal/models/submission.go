package models

import (
	"time"
)

// FormSubmission is the durable record of one inbound form payload. It is
// inserted before any rule runs; rule-engine failures never undo it.
type FormSubmission struct {
	ID            string         `json:"id" bson:"_id"`
	CampaignID    string         `json:"campaign_id,omitempty" bson:"campaign_id,omitempty"`
	TemplateID    string         `json:"template_id,omitempty" bson:"template_id,omitempty"`
	FormData      map[string]any `json:"form_data" bson:"form_data"`
	UserInfo      map[string]any `json:"user_info,omitempty" bson:"user_info,omitempty"`
	WebsiteID     string         `json:"website_id,omitempty" bson:"website_id,omitempty"`
	TrackedUserID string         `json:"tracked_user_id,omitempty" bson:"tracked_user_id,omitempty"`

	// ProcessedRules holds the ids of the rules that matched, in the order
	// they were evaluated. Written once after processing, best-effort.
	ProcessedRules []string  `json:"processed_rules,omitempty" bson:"processed_rules,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
}

// SubmissionEvent is the message published after a submission has been
// processed, consumed by the rollup worker.
type SubmissionEvent struct {
	SubmissionID string    `json:"submission_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	TemplateID   string    `json:"template_id,omitempty"`
	WebsiteID    string    `json:"website_id,omitempty"`
	MatchedRules int       `json:"matched_rules"`
	ProcessedAt  time.Time `json:"processed_at"`
}
