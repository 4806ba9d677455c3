package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"submission-processor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetWebhook(ctx context.Context, id string) (*models.Webhook, error) {
	args := m.Called(ctx, id)
	webhook, _ := args.Get(0).(*models.Webhook)
	return webhook, args.Error(1)
}

func (m *MockStore) InsertDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

func (m *MockStore) MarkDeliveryResult(ctx context.Context, deliveryID string, status models.DeliveryStatus, responseStatus *int, responseBody string) error {
	args := m.Called(ctx, deliveryID, status, responseStatus, responseBody)
	return args.Error(0)
}

func (m *MockStore) UpdateWebhookTestResult(ctx context.Context, webhookID string, status string, response string) error {
	args := m.Called(ctx, webhookID, status, response)
	return args.Error(0)
}

func activeWebhook(url string) *models.Webhook {
	return &models.Webhook{
		ID:       "wh-1",
		URL:      url,
		Method:   http.MethodPost,
		AuthType: models.AuthTypeBearer,
		AuthConfig: models.AuthConfig{
			Token: "tok",
		},
		IsActive: true,
	}
}

func TestExecuteWebhookActionSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("InsertDelivery", mock.Anything, mock.MatchedBy(func(d *models.WebhookDelivery) bool {
		return d.DeliveryStatus == models.DeliveryStatusPending &&
			d.WebhookID == "wh-1" &&
			d.SubmissionID == "sub-1" &&
			d.RuleID == "rule-1"
	})).Return(nil)
	store.On("MarkDeliveryResult", mock.Anything, mock.Anything, models.DeliveryStatusSuccess,
		mock.MatchedBy(func(status *int) bool { return status != nil && *status == 200 }),
		`{"ok":true}`).Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	formData := map[string]any{"email": "a@b.com", "name": "X"}
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-1"}, formData, map[string]any{"country": "DE"}, "sub-1", "rule-1")

	store.AssertExpectations(t)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "sub-1", gotBody["submission_id"])
	assert.Equal(t, "rule-1", gotBody["rule_id"])
	assert.Equal(t, map[string]any{"email": "a@b.com", "name": "X"}, gotBody["form_data"])
	assert.NotEmpty(t, gotBody["timestamp"])
}

func TestExecuteWebhookActionIncludeFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("InsertDelivery", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkDeliveryResult", mock.Anything, mock.Anything, models.DeliveryStatusSuccess, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	action := models.WebhookAction{
		WebhookID:     "wh-1",
		IncludeFields: []string{"email", "missing"},
	}
	formData := map[string]any{"email": "a@b.com", "name": "X"}
	d.ExecuteWebhookAction(context.Background(), action, formData, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
	// Only the allow-listed field survives; unresolved paths are omitted,
	// not forwarded as null.
	assert.Equal(t, map[string]any{"email": "a@b.com"}, gotBody["form_data"])
}

func TestExecuteWebhookActionNon2xxIsFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broke"))
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("InsertDelivery", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkDeliveryResult", mock.Anything, mock.Anything, models.DeliveryStatusFailed,
		mock.MatchedBy(func(status *int) bool { return status != nil && *status == 502 }),
		"upstream broke").Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-1"}, nil, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
}

func TestExecuteWebhookActionNetworkErrorCaptured(t *testing.T) {
	// A server that is already closed produces a transport error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(url), nil)
	store.On("InsertDelivery", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkDeliveryResult", mock.Anything, mock.Anything, models.DeliveryStatusFailed,
		(*int)(nil),
		mock.MatchedBy(func(body string) bool { return body != "" })).Return(nil)

	d := NewDispatcher(store, &http.Client{Timeout: 2 * time.Second}, zap.NewNop())
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-1"}, nil, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
}

func TestExecuteWebhookActionInactiveWebhookSkips(t *testing.T) {
	webhook := activeWebhook("http://example.invalid")
	webhook.IsActive = false

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(webhook, nil)

	d := NewDispatcher(store, nil, zap.NewNop())
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-1"}, nil, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "InsertDelivery", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "MarkDeliveryResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteWebhookActionMissingWebhookSkips(t *testing.T) {
	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-gone").Return(nil, nil)

	d := NewDispatcher(store, nil, zap.NewNop())
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-gone"}, nil, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "InsertDelivery", mock.Anything, mock.Anything)
}

func TestExecuteWebhookActionDelayBeforeSend(t *testing.T) {
	var received time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = time.Now()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("InsertDelivery", mock.Anything, mock.Anything).Return(nil)
	store.On("MarkDeliveryResult", mock.Anything, mock.Anything, models.DeliveryStatusSuccess, mock.Anything, mock.Anything).Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	start := time.Now()
	d.ExecuteWebhookAction(context.Background(), models.WebhookAction{WebhookID: "wh-1", DelaySeconds: 1}, nil, nil, "sub-1", "rule-1")

	store.AssertExpectations(t)
	assert.GreaterOrEqual(t, received.Sub(start), time.Second)
}
