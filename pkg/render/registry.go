package render

import (
	"fmt"
	"sort"
	"sync"
)

// Factory 渲染器工厂函数
type Factory func() Renderer

// Registry 格式到渲染器的注册表
type Registry struct {
	mu        sync.RWMutex
	factories map[Format]Factory
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Format]Factory),
	}
}

// DefaultRegistry 创建注册了三种内置渲染器的注册表
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(FormatWord, func() Renderer { return NewDocxRenderer() })
	_ = r.Register(FormatPDF, func() Renderer { return NewPDFRenderer() })
	_ = r.Register(FormatSlides, func() Renderer { return NewPPTXRenderer() })
	return r
}

// Register 注册渲染器
func (r *Registry) Register(format Format, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[format]; exists {
		return fmt.Errorf("format %s already registered", format)
	}

	r.factories[format] = factory
	return nil
}

// Get 获取指定格式的渲染器
func (r *Registry) Get(format Format) (Renderer, error) {
	r.mu.RLock()
	factory, exists := r.factories[format]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no renderer registered for format: %s", format)
	}

	return factory(), nil
}

// Formats 获取所有已注册的格式，按名称排序
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]Format, 0, len(r.factories))
	for format := range r.factories {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
