package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "test-model",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "<think>plan</think># Title\n\nBody text."},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
}`

func newTestProvider(t *testing.T, url string) *Provider {
	cfg := providers.DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = url + "/v1/"
	cfg.Model = "test-model"
	cfg.Timeout = 5 * time.Second
	return New(cfg, zaptest.NewLogger(t))
}

func TestProviderComplete(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	resp, err := p.Complete(context.Background(), &providers.CompletionRequest{
		Purpose:     providers.PurposeGenerate,
		System:      "You are a document creator.",
		User:        "Write about Go.",
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nBody text.", resp.Text)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 7, resp.TokensOut)
	assert.Equal(t, "stop", resp.FinishReason)

	assert.Equal(t, "test-model", captured["model"])
	assert.InDelta(t, 0.7, captured["temperature"], 1e-9)
	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

func TestProviderDoesNotRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL)
	_, err := p.Complete(context.Background(), &providers.CompletionRequest{User: "hi"})
	require.Error(t, err)

	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeServer, perr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.True(t, perr.IsRetryable())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProviderAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestProvider(t, server.URL).Complete(context.Background(), &providers.CompletionRequest{User: "hi"})

	var perr *providers.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, providers.ErrCodeAuth, perr.Code)
	assert.False(t, perr.IsRetryable())
}

func TestProviderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestProvider(t, server.URL).Complete(ctx, &providers.CompletionRequest{User: "hi"})
	require.Error(t, err)

	var perr *providers.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, providers.ErrCodeTimeout, perr.Code)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGetModel(t *testing.T) {
	assert.Equal(t, "custom-model", string(getModel("custom-model")))
	assert.Equal(t, "gpt-4o", string(getModel("gpt-4o")))
}
