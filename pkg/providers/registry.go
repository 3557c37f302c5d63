package providers

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Constructor 根据配置创建补全客户端
type Constructor func(cfg Config, logger *zap.Logger) (Completer, error)

// Registry api_type 到构造函数的注册表
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// Register 注册构造函数
func (r *Registry) Register(apiType string, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[apiType]; exists {
		return fmt.Errorf("provider %s already registered", apiType)
	}

	r.constructors[apiType] = ctor
	return nil
}

// New 按 cfg.APIType 创建补全客户端
func (r *Registry) New(cfg Config, logger *zap.Logger) (Completer, error) {
	r.mu.RLock()
	ctor, exists := r.constructors[cfg.APIType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported api_type: %q (available: %v)", cfg.APIType, r.List())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return ctor(cfg, logger)
}

// List 列出所有已注册的 api_type，按名称排序
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
