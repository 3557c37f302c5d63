// Package compat 面向 OpenAI 兼容端点（本地模型、网关等）的补全客户端
package compat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// Name 提供商名称
const Name = "compatible"

// headerRoundTripper 为每个请求附加自定义头部
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(h.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range h.headers {
			req.Header.Set(k, v)
		}
	}
	return h.base.RoundTrip(req)
}

// Client OpenAI 兼容端点的补全客户端
type Client struct {
	config providers.Config
	client *openai.Client
	logger *zap.Logger
}

var _ providers.Completer = (*Client)(nil)

// New 创建兼容客户端
func New(cfg providers.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &headerRoundTripper{base: http.DefaultTransport, headers: cfg.Headers},
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.HTTPClient = httpClient
	if cfg.BaseURL != "" {
		// go-openai 的路径后缀以斜杠开头，避免出现双斜杠
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	logger.Debug("compatible completion client configured",
		zap.String("base_url", clientConfig.BaseURL),
		zap.String("model", cfg.Model),
		zap.String("api_key", maskAuthToken(cfg.APIKey)),
		zap.Duration("timeout", cfg.Timeout))

	return &Client{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}
}

// NewCompleter 供注册表使用的构造函数
func NewCompleter(cfg providers.Config, logger *zap.Logger) (providers.Completer, error) {
	return New(cfg, logger), nil
}

// Name 获取提供商名称
func (c *Client) Name() string {
	return Name
}

// Complete 执行一次聊天补全
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   maxTokens,
	})
	if err != nil {
		status := statusOf(err)
		c.logger.Warn("completion failed",
			zap.String("provider", Name),
			zap.String("purpose", string(req.Purpose)),
			zap.Int("status", status),
			zap.Error(err))
		return nil, providers.WrapError(ctx, Name, status, err)
	}

	if len(resp.Choices) == 0 {
		return nil, providers.NewError(providers.ErrCodeEmptyResponse, "compatible endpoint returned no choices", nil)
	}

	content := resp.Choices[0].Message.Content
	if c.config.FilterReasoning {
		content = providers.FilterReasoning(content)
	}

	c.logger.Debug("completion succeeded",
		zap.String("provider", Name),
		zap.String("purpose", string(req.Purpose)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return &providers.CompletionResponse{
		Text:         content,
		Model:        resp.Model,
		TokensIn:     resp.Usage.PromptTokens,
		TokensOut:    resp.Usage.CompletionTokens,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// statusOf 从 go-openai 错误中取 HTTP 状态码
func statusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func maskAuthToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
