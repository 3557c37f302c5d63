package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFileType MIME 类型无法分派，不做兜底
var ErrUnsupportedFileType = errors.New("unsupported file type")

// UnsupportedTypeError 携带被拒绝的 MIME 类型
type UnsupportedTypeError struct {
	MimeType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %q", e.MimeType)
}

// Is 使 errors.Is(err, ErrUnsupportedFileType) 成立
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedFileType
}

// ExtractionError 二进制解析失败（文件损坏等）
type ExtractionError struct {
	Kind  Kind
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s text: %v", e.Kind, e.Cause)
}

// Unwrap 返回原因错误
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// Result 提取结果，文本不保留任何结构信息
type Result struct {
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	PageCount int    `json:"pageCount,omitempty"`
}

// Extractor 按策略分派的文本提取器
type Extractor struct {
	logger *zap.Logger
}

// New 创建提取器
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract 根据 MIME 类型提取文本
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	kind := ResolveKind(mimeType)
	if kind == KindUnsupported {
		return nil, &UnsupportedTypeError{MimeType: mimeType}
	}
	return e.ExtractKind(ctx, data, kind)
}

// ExtractKind 使用已解析的策略提取文本
func (e *Extractor) ExtractKind(ctx context.Context, data []byte, kind Kind) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *Result
		err    error
	)
	switch kind {
	case KindPDF:
		result, err = extractPDF(data)
	case KindWord:
		result, err = extractWord(data)
	case KindPlainText:
		result, err = decodeText(data)
	default:
		return nil, &UnsupportedTypeError{MimeType: kind.String()}
	}

	if err != nil {
		e.logger.Warn("text extraction failed",
			zap.String("kind", kind.String()),
			zap.Int("bytes", len(data)),
			zap.Error(err))
		return nil, &ExtractionError{Kind: kind, Cause: err}
	}

	e.logger.Debug("text extracted",
		zap.String("kind", kind.String()),
		zap.Int("bytes", len(data)),
		zap.Int("chars", len(result.Text)),
		zap.Int("pages", result.PageCount))
	return result, nil
}

// ExtractText 提取文本的便捷函数
func ExtractText(data []byte, mimeType string) (string, error) {
	result, err := New(nil).Extract(context.Background(), data, mimeType)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// decodeText 按 UTF-8 解码，非法字节替换为 U+FFFD
func decodeText(data []byte) (*Result, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), xunicode.UTF8.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode utf-8: %w", err)
	}
	return &Result{Kind: KindPlainText, Text: string(decoded)}, nil
}
