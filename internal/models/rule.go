package models

import (
	"time"
)

type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorStartsWith  ConditionOperator = "starts_with"
	OperatorEndsWith    ConditionOperator = "ends_with"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
	OperatorIsEmpty     ConditionOperator = "is_empty"
	OperatorIsNotEmpty  ConditionOperator = "is_not_empty"
)

// FieldCondition is one predicate against a dotted path into the form data.
type FieldCondition struct {
	Operator ConditionOperator `json:"operator" bson:"operator"`
	Value    any               `json:"value,omitempty" bson:"value,omitempty"`
}

// RuleConditions groups the two predicate dimensions of a rule. A rule
// matches only when every field condition and every user condition passes;
// an absent dimension passes vacuously.
type RuleConditions struct {
	FieldConditions map[string]FieldCondition `json:"field_conditions,omitempty" bson:"field_conditions,omitempty"`
	UserConditions  map[string]any            `json:"user_conditions,omitempty" bson:"user_conditions,omitempty"`
}

// WebhookAction configures one outbound delivery fired by a matching rule.
type WebhookAction struct {
	WebhookID     string   `json:"webhook_id" bson:"webhook_id"`
	IncludeFields []string `json:"include_fields,omitempty" bson:"include_fields,omitempty"`
	DelaySeconds  int      `json:"delay_seconds,omitempty" bson:"delay_seconds,omitempty"`
}

type RuleActions struct {
	Webhooks []WebhookAction `json:"webhooks,omitempty" bson:"webhooks,omitempty"`
}

// SubmissionRule is a prioritized policy scoped to a campaign or template.
// Rules are configured out-of-band and read-only to the pipeline.
type SubmissionRule struct {
	ID         string         `json:"id" bson:"_id"`
	CampaignID string         `json:"campaign_id,omitempty" bson:"campaign_id,omitempty"`
	TemplateID string         `json:"template_id,omitempty" bson:"template_id,omitempty"`
	Priority   int            `json:"priority" bson:"priority"`
	IsActive   bool           `json:"is_active" bson:"is_active"`
	Conditions RuleConditions `json:"conditions" bson:"conditions"`
	Actions    RuleActions    `json:"actions" bson:"actions"`
	CreatedAt  time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" bson:"updated_at"`
}
