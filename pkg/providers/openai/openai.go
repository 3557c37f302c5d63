// Package openai 基于官方 SDK 的补全客户端
package openai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// Name 提供商名称
const Name = "openai"

// getModel 根据字符串获取模型常量
func getModel(model string) openai.ChatModel {
	switch model {
	case "gpt-4":
		return openai.ChatModelGPT4
	case "gpt-4-turbo", "gpt-4-turbo-preview":
		return openai.ChatModelGPT4Turbo
	case "gpt-4o":
		return openai.ChatModelGPT4o
	case "gpt-4o-mini":
		return openai.ChatModelGPT4oMini
	case "gpt-3.5-turbo":
		return openai.ChatModelGPT3_5Turbo
	default:
		// 对于新模型或自定义模型，使用字符串
		return openai.ChatModel(model)
	}
}

// Provider OpenAI 补全客户端（使用官方SDK）
type Provider struct {
	config providers.Config
	client openai.Client
	logger *zap.Logger
}

var _ providers.Completer = (*Provider)(nil)

// New 创建 OpenAI 补全客户端。SDK 自带的重试被关闭
func New(config providers.Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}

	// 添加自定义端点（如果有）
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	// 添加自定义头部
	for k, v := range config.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	// 设置超时
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &Provider{
		config: config,
		client: openai.NewClient(opts...),
		logger: logger,
	}
}

// NewCompleter 供注册表使用的构造函数
func NewCompleter(cfg providers.Config, logger *zap.Logger) (providers.Completer, error) {
	return New(cfg, logger), nil
}

// Name 获取提供商名称
func (p *Provider) Name() string {
	return Name
}

// Complete 执行一次聊天补全
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.User))

	params := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       getModel(p.config.Model),
		Temperature: openai.Float(req.Temperature),
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	p.logger.Debug("sending completion request",
		zap.String("provider", Name),
		zap.String("model", p.config.Model),
		zap.String("purpose", string(req.Purpose)),
		zap.Float64("temperature", req.Temperature),
		zap.Int("user_chars", len(req.User)))

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		p.logger.Warn("completion failed",
			zap.String("provider", Name),
			zap.Int("status", status),
			zap.Error(err))
		return nil, providers.WrapError(ctx, Name, status, err)
	}

	if len(completion.Choices) == 0 {
		return nil, providers.NewError(providers.ErrCodeEmptyResponse, "no choices returned from OpenAI", nil)
	}

	content := completion.Choices[0].Message.Content
	if p.config.FilterReasoning {
		content = providers.FilterReasoning(content)
	}

	return &providers.CompletionResponse{
		Text:         content,
		Model:        completion.Model,
		TokensIn:     int(completion.Usage.PromptTokens),
		TokensOut:    int(completion.Usage.CompletionTokens),
		FinishReason: string(completion.Choices[0].FinishReason),
	}, nil
}
