// Package structure 把非结构化文本映射为有序的语义块（标题、段落）以及幻灯片分组
package structure

import "strings"

// Kind 块类型
type Kind string

const (
	// KindHeading 标题块，Level 取值 1..3
	KindHeading Kind = "heading"
	// KindParagraph 段落块，Lines 保存块内换行
	KindParagraph Kind = "paragraph"
)

// MaxHeadingLevel 标题最大级别，更多的 # 仍然按 3 级处理
const MaxHeadingLevel = 3

// Block 一个已分类的语义文本单元
type Block struct {
	Kind  Kind     `json:"kind"`
	Level int      `json:"level,omitempty"`
	Text  string   `json:"text"`
	Lines []string `json:"lines,omitempty"`
}

// IsHeading 是否为标题块
func (b Block) IsHeading() bool {
	return b.Kind == KindHeading
}

// JoinedText 返回用给定分隔符连接的块文本，标题直接返回 Text
func (b Block) JoinedText(sep string) string {
	if b.Kind == KindHeading || len(b.Lines) == 0 {
		return b.Text
	}
	return strings.Join(b.Lines, sep)
}

// Heading 创建标题块，级别会被限制在 [1,3]
func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: clampLevel(level), Text: text}
}

// Paragraph 创建段落块
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text, Lines: strings.Split(text, "\n")}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}
