// Package raw 离线补全客户端：不调用任何模型，直接返回用户文本
package raw

import (
	"context"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
)

// Name 提供商名称
const Name = "raw"

// Provider Raw 提供商实现（跳过模型，直接返回原文）
type Provider struct{}

var _ providers.Completer = (*Provider)(nil)

// New 创建新的 Raw 提供商
func New() *Provider {
	return &Provider{}
}

// NewCompleter 供注册表使用的构造函数，Raw 提供商不需要配置
func NewCompleter(_ providers.Config, _ *zap.Logger) (providers.Completer, error) {
	return New(), nil
}

// Name 获取提供商名称
func (p *Provider) Name() string {
	return Name
}

// Complete 原样返回用户文本
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, providers.WrapError(ctx, Name, 0, err)
	}
	return &providers.CompletionResponse{
		Text:         req.User,
		Model:        Name,
		FinishReason: "stop",
	}, nil
}
