// Package preview 把文档内容（Markdown）渲染为经过清洗的 HTML 预览
package preview

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/PuerkitoBio/goquery"
	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Heading 预览中的一个标题
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id,omitempty"`
}

// Preview 渲染结果
type Preview struct {
	HTML    string                 `json:"html"`
	Outline []Heading              `json:"outline"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Renderer Markdown 预览渲染器，可并发使用
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer 创建预览渲染器
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,            // GitHub Flavored Markdown
			extension.Typographer,    // 排版优化
			extension.DefinitionList, // 定义列表
			extension.Footnote,       // 脚注
			mathjax.MathJax,          // 数学公式
			meta.Meta,                // 元数据
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // 自动生成标题ID
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^math( inline| display)?$`)).OnElements("span")

	return &Renderer{md: md, policy: policy}
}

// Render 渲染 Markdown：转换、清洗，然后提取标题大纲
func (r *Renderer) Render(content string) (*Preview, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := r.md.Convert([]byte(content), &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	html := r.policy.SanitizeBytes(buf.Bytes())
	outline, err := extractOutline(html)
	if err != nil {
		return nil, err
	}

	p := &Preview{HTML: string(html), Outline: outline}
	if m := meta.Get(ctx); len(m) > 0 {
		p.Meta = m
	}
	return p, nil
}

// extractOutline 从清洗后的 HTML 中按文档顺序收集 h1..h6
func extractOutline(html []byte) ([]Heading, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse preview html: %w", err)
	}

	outline := []Heading{}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
		id, _ := s.Attr("id")
		outline = append(outline, Heading{
			Level: level,
			Text:  strings.TrimSpace(s.Text()),
			ID:    id,
		})
	})
	return outline, nil
}

// Normalize 用 markdownfmt 统一 Markdown 排版
func Normalize(content string) (string, error) {
	formatted, err := markdownfmt.Process("", []byte(content))
	if err != nil {
		return "", fmt.Errorf("format markdown: %w", err)
	}
	return string(formatted), nil
}
