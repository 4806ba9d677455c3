package models

import (
	"time"
)

type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeAPIKey AuthType = "api_key"
)

// AuthConfig carries the credentials for a webhook's auth type. Which fields
// are meaningful depends on AuthType: Token for bearer, Username/Password for
// basic, Header/Key for api_key.
type AuthConfig struct {
	Token    string `json:"token,omitempty" bson:"token,omitempty"`
	Username string `json:"username,omitempty" bson:"username,omitempty"`
	Password string `json:"password,omitempty" bson:"password,omitempty"`
	Header   string `json:"header,omitempty" bson:"header,omitempty"`
	Key      string `json:"key,omitempty" bson:"key,omitempty"`
}

// Webhook is a configured outbound destination, reused across rules.
type Webhook struct {
	ID         string            `json:"id" bson:"_id"`
	URL        string            `json:"url" bson:"url"`
	Method     string            `json:"method" bson:"method"` // POST, PUT or PATCH
	Headers    map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
	AuthType   AuthType          `json:"auth_type" bson:"auth_type"`
	AuthConfig AuthConfig        `json:"auth_config,omitempty" bson:"auth_config,omitempty"`
	IsActive   bool              `json:"is_active" bson:"is_active"`

	// Bookkeeping written by the tester.
	LastTestedAt     *time.Time `json:"last_tested_at,omitempty" bson:"last_tested_at,omitempty"`
	LastTestStatus   string     `json:"last_test_status,omitempty" bson:"last_test_status,omitempty"`
	LastTestResponse string     `json:"last_test_response,omitempty" bson:"last_test_response,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
