// Package pipeline 编排补全、分段、渲染、提取与存储，提供生成、改写、摄取等完整流程
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/doc-forge/pkg/extract"
	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// Storage 存储协作者
type Storage interface {
	// Write 写入文件并返回逻辑路径，失败时不得留下部分文件
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Pipeline 文档流水线
type Pipeline struct {
	completer providers.Completer
	storage   Storage
	prompts   *Prompts
	registry  *render.Registry
	extractor *extract.Extractor
	timeout   time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// New 创建流水线。storage 为 nil 时只能使用不落盘的操作
func New(completer providers.Completer, storage Storage, opts ...Option) *Pipeline {
	options := pipelineOptions{timeout: DefaultCompletionTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	if options.prompts == nil {
		options.prompts = DefaultPrompts()
	}
	if options.registry == nil {
		options.registry = render.DefaultRegistry()
	}
	if options.extractor == nil {
		options.extractor = extract.New(options.logger)
	}
	if options.now == nil {
		options.now = time.Now
	}

	return &Pipeline{
		completer: completer,
		storage:   storage,
		prompts:   options.prompts,
		registry:  options.registry,
		extractor: options.extractor,
		timeout:   options.timeout,
		now:       options.now,
		logger:    options.logger,
	}
}

// Prompts 返回当前使用的提示词
func (p *Pipeline) Prompts() *Prompts {
	return p.prompts
}

// GenerateRequest 生成请求
type GenerateRequest struct {
	Format  render.Format
	Prompt  string
	Title   string
	Context string
}

// FileResult 已渲染并存储的文件
type FileResult struct {
	Format   render.Format `json:"format"`
	FileName string        `json:"fileName"`
	FilePath string        `json:"filePath"`
	Size     int           `json:"size"`
	Blocks   int           `json:"blocks"`
}

// GenerateResult 生成结果
type GenerateResult struct {
	Text string `json:"text"`
	FileResult
}

// Generate 补全 → 分段 → 渲染 → 存储
func (p *Pipeline) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, invalidInput("prompt is required")
	}
	if _, err := p.registry.Get(req.Format); err != nil {
		return nil, NewError(ErrCodeInvalidInput, "unsupported document type", err)
	}

	text, err := p.complete(ctx, p.prompts.GenerateRequest(req.Format, req.Prompt, req.Context))
	if err != nil {
		return nil, err
	}

	file, err := p.RenderText(ctx, text, req.Format, req.Title)
	if err != nil {
		return nil, err
	}

	p.logger.Info("document generated",
		zap.String("format", string(req.Format)),
		zap.String("path", file.FilePath),
		zap.Int("blocks", file.Blocks))
	return &GenerateResult{Text: text, FileResult: *file}, nil
}

// Rewrite 按说明改写文本，不重新渲染
func (p *Pipeline) Rewrite(ctx context.Context, content, instructions string) (string, error) {
	if strings.TrimSpace(instructions) == "" {
		return "", invalidInput("instructions are required")
	}
	return p.complete(ctx, p.prompts.RewriteRequest(content, instructions))
}

// Translate 翻译文本
func (p *Pipeline) Translate(ctx context.Context, content, language string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", invalidInput("content is required")
	}
	if strings.TrimSpace(language) == "" {
		return "", invalidInput("target language is required")
	}
	return p.complete(ctx, p.prompts.TranslateRequest(content, language))
}

// Summarize 生成摘要或幻灯片大纲
func (p *Pipeline) Summarize(ctx context.Context, content string, format SummaryFormat) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", invalidInput("content is required")
	}
	if format != SummaryText && format != SummarySlides {
		return "", invalidInput("unknown summary format: %q", format)
	}
	return p.complete(ctx, p.prompts.SummarizeRequest(content, format))
}

// CheckGrammar 语法与风格检查，返回模型输出的 JSON 文本
func (p *Pipeline) CheckGrammar(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", invalidInput("content is required")
	}
	return p.complete(ctx, p.prompts.GrammarRequest(content))
}

// IngestRequest 摄取请求
type IngestRequest struct {
	Data     []byte
	MimeType string
	Title    string
	// ConvertTo 非空时把提取的文本重新渲染为该格式并存储
	ConvertTo render.Format
}

// IngestResult 摄取结果，File 仅在请求转换时非空
type IngestResult struct {
	Kind      extract.Kind `json:"kind"`
	Text      string       `json:"text"`
	PageCount int          `json:"pageCount,omitempty"`
	File      *FileResult  `json:"file,omitempty"`
}

// Ingest 提取文本，按需转换为目标格式
func (p *Pipeline) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if req == nil || len(req.Data) == 0 {
		return nil, invalidInput("file is empty")
	}

	extracted, err := p.extractor.Extract(ctx, req.Data, req.MimeType)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewError(ErrCodeExtraction, "extraction aborted", err)
		}
		return nil, extractionError(err)
	}

	result := &IngestResult{
		Kind:      extracted.Kind,
		Text:      extracted.Text,
		PageCount: extracted.PageCount,
	}
	if req.ConvertTo == "" {
		return result, nil
	}

	file, err := p.RenderText(ctx, extracted.Text, req.ConvertTo, req.Title)
	if err != nil {
		return nil, err
	}
	result.File = file
	return result, nil
}

// Render 分段并渲染为字节，不存储
func (p *Pipeline) Render(ctx context.Context, text string, format render.Format) ([]byte, []structure.Block, error) {
	renderer, err := p.registry.Get(format)
	if err != nil {
		return nil, nil, NewError(ErrCodeInvalidInput, "unsupported document type", err)
	}

	blocks := structure.Segment(text)
	data, err := render.ToBytes(ctx, renderer, blocks)
	if err != nil {
		return nil, nil, renderError(format, err)
	}
	return data, blocks, nil
}

// RenderText 分段、渲染并存储
func (p *Pipeline) RenderText(ctx context.Context, text string, format render.Format, title string) (*FileResult, error) {
	if p.storage == nil {
		return nil, storageError(fmt.Errorf("no storage configured"))
	}

	data, blocks, err := p.Render(ctx, text, format)
	if err != nil {
		return nil, err
	}

	name := FileName(p.now(), title, format.Extension())
	path, err := p.storage.Write(ctx, name, data)
	if err != nil {
		return nil, storageError(err)
	}

	p.logger.Debug("rendered file stored",
		zap.String("format", string(format)),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return &FileResult{
		Format:   format,
		FileName: name,
		FilePath: path,
		Size:     len(data),
		Blocks:   len(blocks),
	}, nil
}

// complete 在超时约束下调用补全协作者
func (p *Pipeline) complete(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	if p.completer == nil {
		return "", completionError(fmt.Errorf("no completion provider configured"))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := p.completer.Complete(ctx, req)
	if err != nil {
		p.logger.Warn("completion failed",
			zap.String("purpose", string(req.Purpose)),
			zap.String("provider", p.completer.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", completionError(err)
	}

	p.logger.Debug("completion finished",
		zap.String("purpose", string(req.Purpose)),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Duration("elapsed", time.Since(start)))
	return resp.Text, nil
}

var slugPattern = regexp.MustCompile(`(?i)[^a-z0-9]`)

// Slug 把非字母数字字符替换为 "-" 并转小写
func Slug(title string) string {
	return strings.ToLower(slugPattern.ReplaceAllString(title, "-"))
}

// FileName 生成 {毫秒时间戳}-{slug}.{ext}，空标题使用 document
func FileName(now time.Time, title, ext string) string {
	slug := Slug(title)
	if slug == "" {
		slug = "document"
	}
	return fmt.Sprintf("%d-%s.%s", now.UnixMilli(), slug, ext)
}
