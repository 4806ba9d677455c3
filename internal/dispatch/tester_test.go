package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestTestWebhookSuccess(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("UpdateWebhookTestResult", mock.Anything, "wh-1", "success", "200 pong").Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	result, err := d.TestWebhook(context.Background(), "wh-1")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 200, result.Status)
	assert.Equal(t, "pong", result.Response)
	assert.GreaterOrEqual(t, result.Duration, int64(0))
	store.AssertExpectations(t)

	// The synthetic payload marks itself as a test and carries sample form data.
	assert.Equal(t, true, gotBody["test"])
	assert.NotEmpty(t, gotBody["timestamp"])
	formData, ok := gotBody["form_data"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, formData, "email")
}

func TestTestWebhookNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 600)))
	}))
	defer server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(server.URL), nil)
	store.On("UpdateWebhookTestResult", mock.Anything, "wh-1", "failed",
		mock.MatchedBy(func(response string) bool {
			return len(response) == maxTestResponseLen && strings.HasPrefix(response, "500 ")
		})).Return(nil)

	d := NewDispatcher(store, server.Client(), zap.NewNop())
	result, err := d.TestWebhook(context.Background(), "wh-1")

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 500, result.Status)
	store.AssertExpectations(t)
}

func TestTestWebhookTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-1").Return(activeWebhook(url), nil)
	store.On("UpdateWebhookTestResult", mock.Anything, "wh-1", "failed",
		mock.MatchedBy(func(response string) bool { return response != "" })).Return(nil)

	d := NewDispatcher(store, &http.Client{Timeout: 2 * time.Second}, zap.NewNop())
	result, err := d.TestWebhook(context.Background(), "wh-1")

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Status)
	assert.NotEmpty(t, result.Response)
	store.AssertExpectations(t)
}

func TestTestWebhookUnknownID(t *testing.T) {
	store := new(MockStore)
	store.On("GetWebhook", mock.Anything, "wh-gone").Return(nil, nil)

	d := NewDispatcher(store, nil, zap.NewNop())
	result, err := d.TestWebhook(context.Background(), "wh-gone")

	assert.Error(t, err)
	assert.Nil(t, result)
	store.AssertNotCalled(t, "UpdateWebhookTestResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
