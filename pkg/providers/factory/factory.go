// Package factory 根据 api_type 创建补全客户端
package factory

import (
	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/compat"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/openai"
	"github.com/nerdneilsfield/doc-forge/pkg/providers/raw"
)

// NewRegistry 创建注册了内置提供商的注册表
func NewRegistry() *providers.Registry {
	registry := providers.NewRegistry()
	_ = registry.Register(openai.Name, openai.NewCompleter)
	_ = registry.Register(compat.Name, compat.NewCompleter)
	_ = registry.Register(raw.Name, raw.NewCompleter)
	return registry
}

// New 根据配置创建补全客户端
func New(cfg providers.Config, logger *zap.Logger) (providers.Completer, error) {
	return NewRegistry().New(cfg, logger)
}

// GetSupportedProviders 返回支持的 api_type
func GetSupportedProviders() []string {
	return NewRegistry().List()
}
