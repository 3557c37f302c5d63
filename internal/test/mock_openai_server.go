package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// MockRequest 记录收到的聊天补全请求
type MockRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
}

// MockOpenAIServer 是一个模拟的OpenAI API服务器
type MockOpenAIServer struct {
	Server          *httptest.Server
	URL             string
	Responses       map[string]string
	DefaultResponse string
	FailStatus      int
	Delay           time.Duration
	requests        []MockRequest
	mu              sync.Mutex
}

// NewMockOpenAIServer 创建一个新的模拟OpenAI服务器，测试结束时自动关闭
func NewMockOpenAIServer(t *testing.T) *MockOpenAIServer {
	t.Helper()

	mock := &MockOpenAIServer{
		Responses:       make(map[string]string),
		DefaultResponse: "# Generated\n\nThis is generated text. It has sentences.",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}

		var requestBody struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "invalid request body", "type": "invalid_request_error"}}`))
			return
		}

		recorded := MockRequest{Model: requestBody.Model, Temperature: requestBody.Temperature}
		for _, msg := range requestBody.Messages {
			switch msg.Role {
			case "system":
				recorded.System = msg.Content
			case "user":
				recorded.User = msg.Content
			}
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, recorded)
		delay := mock.Delay
		failStatus := mock.FailStatus
		response, ok := mock.Responses[recorded.User]
		if !ok {
			response = mock.DefaultResponse
		}
		mock.mu.Unlock()

		// 模拟延迟
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")

		// 模拟错误
		if failStatus != 0 {
			w.WriteHeader(failStatus)
			_, _ = w.Write([]byte(`{"error": {"message": "mock failure", "type": "server_error"}}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   requestBody.Model,
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": response,
					},
					"finish_reason": "stop",
					"index":         0,
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     100,
				"completion_tokens": 50,
				"total_tokens":      150,
			},
		})
	}))

	mock.Server = server
	mock.URL = server.URL
	t.Cleanup(server.Close)

	return mock
}

// BaseURL 返回可直接用作客户端 base_url 的地址
func (m *MockOpenAIServer) BaseURL() string {
	return m.URL + "/v1/"
}

// AddResponse 添加特定的用户文本-响应对
func (m *MockOpenAIServer) AddResponse(user, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[user] = response
}

// SetDefaultResponse 设置默认响应
func (m *MockOpenAIServer) SetDefaultResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DefaultResponse = response
}

// SetFailStatus 之后的请求都返回该状态码，0 表示恢复正常
func (m *MockOpenAIServer) SetFailStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailStatus = status
}

// SetDelay 设置响应延迟
func (m *MockOpenAIServer) SetDelay(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Delay = delay
}

// Requests 返回已收到的请求副本
func (m *MockOpenAIServer) Requests() []MockRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockRequest(nil), m.requests...)
}
