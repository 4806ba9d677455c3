package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"submission-processor/internal/dispatch"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockTester struct {
	mock.Mock
}

func (m *MockTester) TestWebhook(ctx context.Context, webhookID string) (*dispatch.TestResult, error) {
	args := m.Called(ctx, webhookID)
	result, _ := args.Get(0).(*dispatch.TestResult)
	return result, args.Error(1)
}

func performTest(t *testing.T, handler *WebhookHandler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body, err := json.Marshal(payload)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/test", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.HandleTest(c)
	return w
}

func TestHandleTestSuccess(t *testing.T) {
	tester := new(MockTester)
	tester.On("TestWebhook", mock.Anything, "wh-1").Return(&dispatch.TestResult{
		Success:  true,
		Status:   200,
		Response: "pong",
		Duration: 42,
	}, nil)

	handler := NewWebhookHandler(zap.NewNop(), tester)
	w := performTest(t, handler, gin.H{"webhookId": "wh-1"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(200), resp["status"])
	assert.Equal(t, "pong", resp["response"])
	assert.Equal(t, float64(42), resp["duration"])
}

func TestHandleTestUnknownWebhook(t *testing.T) {
	tester := new(MockTester)
	tester.On("TestWebhook", mock.Anything, "wh-gone").Return(nil, errors.New("webhook wh-gone not found"))

	handler := NewWebhookHandler(zap.NewNop(), tester)
	w := performTest(t, handler, gin.H{"webhookId": "wh-gone"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "not found")
}

func TestHandleTestMissingWebhookID(t *testing.T) {
	handler := NewWebhookHandler(zap.NewNop(), new(MockTester))
	w := performTest(t, handler, gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
