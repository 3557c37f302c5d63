package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/extract"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
)

// DefaultCompletionTimeout 补全调用的默认超时
const DefaultCompletionTimeout = 2 * time.Minute

// Option 流水线选项
type Option func(*pipelineOptions)

type pipelineOptions struct {
	logger    *zap.Logger
	prompts   *Prompts
	registry  *render.Registry
	extractor *extract.Extractor
	timeout   time.Duration
	now       func() time.Time
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(opts *pipelineOptions) {
		opts.logger = logger
	}
}

// WithPrompts 设置提示词
func WithPrompts(prompts *Prompts) Option {
	return func(opts *pipelineOptions) {
		opts.prompts = prompts
	}
}

// WithRegistry 设置渲染器注册表
func WithRegistry(registry *render.Registry) Option {
	return func(opts *pipelineOptions) {
		opts.registry = registry
	}
}

// WithExtractor 设置文本提取器
func WithExtractor(extractor *extract.Extractor) Option {
	return func(opts *pipelineOptions) {
		opts.extractor = extractor
	}
}

// WithCompletionTimeout 设置补全超时，0 表示只受调用方上下文约束
func WithCompletionTimeout(timeout time.Duration) Option {
	return func(opts *pipelineOptions) {
		opts.timeout = timeout
	}
}

// WithClock 设置时钟，用于生成文件名
func WithClock(now func() time.Time) Option {
	return func(opts *pipelineOptions) {
		opts.now = now
	}
}
