// Package render 将语义块序列渲染为三种输出格式：流式文档（DOCX）、固定页面文档（PDF）和幻灯片（PPTX）
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// Format 输出格式
type Format string

const (
	// FormatWord 流式文档
	FormatWord Format = "word"
	// FormatPDF 固定页面文档
	FormatPDF Format = "pdf"
	// FormatSlides 幻灯片
	FormatSlides Format = "ppt"
)

// Formats 返回所有支持的输出格式
func Formats() []Format {
	return []Format{FormatWord, FormatPDF, FormatSlides}
}

// ParseFormat 解析格式名称，接受常见别名
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "word", "docx", "doc":
		return FormatWord, nil
	case "pdf":
		return FormatPDF, nil
	case "ppt", "pptx", "slides", "powerpoint":
		return FormatSlides, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", name)
	}
}

// Extension 返回不带点的文件扩展名
func (f Format) Extension() string {
	switch f {
	case FormatWord:
		return "docx"
	case FormatPDF:
		return "pdf"
	case FormatSlides:
		return "pptx"
	default:
		return "bin"
	}
}

// ContentType 返回格式对应的 MIME 类型
func (f Format) ContentType() string {
	return ContentTypeForExtension(f.Extension())
}

// ContentTypeForExtension 根据扩展名返回 MIME 类型，未知扩展名返回 application/octet-stream
func ContentTypeForExtension(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case "pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case "txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Renderer 块序列的消费者，每种输出格式一个实现
type Renderer interface {
	// Render 将块序列编码写入 output，任何编码错误都是致命的
	Render(ctx context.Context, blocks []structure.Block, output io.Writer) error

	// Format 返回渲染器产出的格式
	Format() Format
}

// EncodeError 底层编码器或写入失败
type EncodeError struct {
	Format Format
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Cause)
}

// Unwrap 返回原因错误
func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// encodeError 包装错误，已经是 EncodeError 的直接返回
func encodeError(format Format, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*EncodeError); ok {
		return err
	}
	return &EncodeError{Format: format, Cause: err}
}

// ToBytes 将渲染结果收集到内存缓冲区，失败时不返回任何部分输出
func ToBytes(ctx context.Context, r Renderer, blocks []structure.Block) ([]byte, error) {
	if len(blocks) == 0 {
		blocks = structure.Segment("")
	}

	var buf bytes.Buffer
	if err := r.Render(ctx, blocks, &buf); err != nil {
		return nil, encodeError(r.Format(), err)
	}
	return buf.Bytes(), nil
}

// RenderFlowing 渲染流式文档
func RenderFlowing(blocks []structure.Block) ([]byte, error) {
	return ToBytes(context.Background(), NewDocxRenderer(), blocks)
}

// RenderFixedPage 渲染固定页面文档
func RenderFixedPage(blocks []structure.Block) ([]byte, error) {
	return ToBytes(context.Background(), NewPDFRenderer(), blocks)
}

// RenderSlides 渲染幻灯片
func RenderSlides(blocks []structure.Block) ([]byte, error) {
	return ToBytes(context.Background(), NewPPTXRenderer(), blocks)
}
