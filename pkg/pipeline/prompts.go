package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nerdneilsfield/doc-forge/pkg/providers"
	"github.com/nerdneilsfield/doc-forge/pkg/render"
)

// SummaryFormat 摘要输出形式
type SummaryFormat string

const (
	// SummaryText 连续文本摘要
	SummaryText SummaryFormat = "text"
	// SummarySlides 幻灯片大纲
	SummarySlides SummaryFormat = "slides"
)

// ParseSummaryFormat 解析摘要形式，空串视为 text
func ParseSummaryFormat(name string) (SummaryFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return SummaryText, nil
	case "slides", "slide", "ppt":
		return SummarySlides, nil
	default:
		return "", fmt.Errorf("unknown summary format: %q", name)
	}
}

// Prompt 单个补全用途的提示词模板。
// 模板中的 {type} {context} {prompt} {content} {instructions} {language} 会被替换
type Prompt struct {
	System      string  `toml:"system"`
	User        string  `toml:"user"`
	Temperature float64 `toml:"temperature"`
}

// Prompts 所有补全用途的提示词
type Prompts struct {
	Generate            Prompt            `toml:"generate"`
	GenerateWithContext Prompt            `toml:"generate_with_context"`
	GenerateSuffix      map[string]string `toml:"generate_suffix"`
	Rewrite             Prompt            `toml:"rewrite"`
	SummarizeText       Prompt            `toml:"summarize_text"`
	SummarizeSlides     Prompt            `toml:"summarize_slides"`
	Translate           Prompt            `toml:"translate"`
	Grammar             Prompt            `toml:"grammar"`
}

// DefaultPrompts 返回内置提示词
func DefaultPrompts() *Prompts {
	return &Prompts{
		Generate: Prompt{
			System:      "You are a professional document creator. Create a well-structured {type} document based on the user's request.",
			User:        "{prompt}",
			Temperature: 0.7,
		},
		GenerateWithContext: Prompt{
			System:      "You are a professional document creator. Create a {type} document based on the user's request. Use this context: {context}",
			User:        "{prompt}",
			Temperature: 0.7,
		},
		GenerateSuffix: map[string]string{
			string(render.FormatWord):   " Format the content with proper headings, paragraphs, and structure suitable for a Word document.",
			string(render.FormatSlides): " Create slide content with titles and bullet points suitable for a PowerPoint presentation.",
			string(render.FormatPDF):    " Format the content with proper structure suitable for a PDF document.",
		},
		Rewrite: Prompt{
			System:      "You are a professional document editor. Rewrite and enhance documents based on user instructions while maintaining the original intent and key information.",
			User:        "Rewrite this document: {content}\n\nInstructions: {instructions}",
			Temperature: 0.7,
		},
		SummarizeText: Prompt{
			System:      "You are a professional summarizer. Create a concise summary of the document while preserving key information.",
			User:        "Summarize this document:\n\n{content}",
			Temperature: 0.5,
		},
		SummarizeSlides: Prompt{
			System:      "You are a professional presentation creator. Create a concise slide outline from the document content. Format as bullet points suitable for PowerPoint slides.",
			User:        "Summarize this document:\n\n{content}",
			Temperature: 0.5,
		},
		Translate: Prompt{
			System:      "You are a professional translator. Translate the document to {language} while maintaining the original format, style, and meaning.",
			User:        "Translate this document:\n\n{content}",
			Temperature: 0.3,
		},
		Grammar: Prompt{
			System:      "You are a professional grammar and style checker. Identify errors and suggest improvements. Format as JSON with errors array containing position, type, original, and suggestion.",
			User:        "Check grammar and style:\n\n{content}",
			Temperature: 0.2,
		},
	}
}

// LoadPrompts 从 TOML 文件加载提示词，文件中缺省的字段保留内置值
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var overlay Prompts
	if _, err := toml.Decode(string(data), &overlay); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	prompts.merge(&overlay)
	return prompts, nil
}

func (p *Prompts) merge(o *Prompts) {
	mergePrompt(&p.Generate, o.Generate)
	mergePrompt(&p.GenerateWithContext, o.GenerateWithContext)
	mergePrompt(&p.Rewrite, o.Rewrite)
	mergePrompt(&p.SummarizeText, o.SummarizeText)
	mergePrompt(&p.SummarizeSlides, o.SummarizeSlides)
	mergePrompt(&p.Translate, o.Translate)
	mergePrompt(&p.Grammar, o.Grammar)
	for k, v := range o.GenerateSuffix {
		if p.GenerateSuffix == nil {
			p.GenerateSuffix = make(map[string]string)
		}
		p.GenerateSuffix[k] = v
	}
}

func mergePrompt(dst *Prompt, src Prompt) {
	if src.System != "" {
		dst.System = src.System
	}
	if src.User != "" {
		dst.User = src.User
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
}

// fill 替换模板变量，单次扫描，变量值中的占位符不会被再次展开
func fill(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// GenerateRequest 构造生成请求
func (p *Prompts) GenerateRequest(format render.Format, prompt, context string) *providers.CompletionRequest {
	tmpl := p.Generate
	if strings.TrimSpace(context) != "" {
		tmpl = p.GenerateWithContext
	}
	vars := map[string]string{
		"type":    strings.ToUpper(string(format)),
		"context": context,
		"prompt":  prompt,
	}
	return &providers.CompletionRequest{
		Purpose:     providers.PurposeGenerate,
		System:      fill(tmpl.System, vars) + p.GenerateSuffix[string(format)],
		User:        fill(tmpl.User, vars),
		Temperature: tmpl.Temperature,
	}
}

// RewriteRequest 构造改写请求
func (p *Prompts) RewriteRequest(content, instructions string) *providers.CompletionRequest {
	vars := map[string]string{"content": content, "instructions": instructions}
	return &providers.CompletionRequest{
		Purpose:     providers.PurposeRewrite,
		System:      fill(p.Rewrite.System, vars),
		User:        fill(p.Rewrite.User, vars),
		Temperature: p.Rewrite.Temperature,
	}
}

// SummarizeRequest 构造摘要请求
func (p *Prompts) SummarizeRequest(content string, format SummaryFormat) *providers.CompletionRequest {
	tmpl := p.SummarizeText
	if format == SummarySlides {
		tmpl = p.SummarizeSlides
	}
	vars := map[string]string{"content": content}
	return &providers.CompletionRequest{
		Purpose:     providers.PurposeSummarize,
		System:      fill(tmpl.System, vars),
		User:        fill(tmpl.User, vars),
		Temperature: tmpl.Temperature,
	}
}

// TranslateRequest 构造翻译请求
func (p *Prompts) TranslateRequest(content, language string) *providers.CompletionRequest {
	vars := map[string]string{"content": content, "language": language}
	return &providers.CompletionRequest{
		Purpose:     providers.PurposeTranslate,
		System:      fill(p.Translate.System, vars),
		User:        fill(p.Translate.User, vars),
		Temperature: p.Translate.Temperature,
	}
}

// GrammarRequest 构造语法检查请求
func (p *Prompts) GrammarRequest(content string) *providers.CompletionRequest {
	vars := map[string]string{"content": content}
	return &providers.CompletionRequest{
		Purpose:     providers.PurposeGrammar,
		System:      fill(p.Grammar.System, vars),
		User:        fill(p.Grammar.User, vars),
		Temperature: p.Grammar.Temperature,
	}
}
