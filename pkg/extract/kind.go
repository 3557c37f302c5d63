// Package extract 从二进制文件中提取线性文本，按声明的 MIME 类型选择提取策略
package extract

import "strings"

// Kind 提取策略，在边界处由 MIME 类型解析一次
type Kind int

const (
	// KindUnsupported 无法分派的类型
	KindUnsupported Kind = iota
	// KindPDF 固定页面文档
	KindPDF
	// KindWord 流式文档
	KindWord
	// KindPlainText UTF-8 文本
	KindPlainText
)

// String 返回策略名称
func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindWord:
		return "word"
	case KindPlainText:
		return "text"
	default:
		return "unsupported"
	}
}

// ResolveKind 按子串匹配解析 MIME 类型，优先级依次为 pdf、word/docx、text
func ResolveKind(mimeType string) Kind {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "pdf"):
		return KindPDF
	case strings.Contains(m, "word"), strings.Contains(m, "docx"):
		return KindWord
	case strings.Contains(m, "text"):
		return KindPlainText
	default:
		return KindUnsupported
	}
}
