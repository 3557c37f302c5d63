package structure

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// HeadingLengthThreshold 短于该长度且不含完整句子的段会被当作一级标题
const HeadingLengthThreshold = 100

// sentenceMarker 句点加空格，粗略表示"包含完整句子"
const sentenceMarker = ". "

// blankLines 匹配一个或多个连续空行
var blankLines = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)*\n`)

// Segment 将原始文本切分为有序的块序列。
//
// 文本按空行切分，修剪后为空的段被丢弃。每段按以下优先级分类：
//  1. 以 # 开头为标题，级别等于前导 # 的个数（限制在 1..3）
//  2. 修剪后长度小于 100 且不含 ". " 为一级标题
//  3. 其余为段落，按单个换行拆为 Lines
//
// 没有任何非空段时返回一个文本为原始输入的段落块，结果永远不为空。
func Segment(text string) []Block {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []Block
	for _, raw := range blankLines.Split(normalized, -1) {
		seg := strings.TrimSpace(raw)
		if seg == "" {
			continue
		}
		blocks = append(blocks, classify(seg))
	}

	if len(blocks) == 0 {
		return []Block{Paragraph(text)}
	}
	return blocks
}

// classify 对单个非空段分类
func classify(seg string) Block {
	if strings.HasPrefix(seg, "#") {
		hashes := len(seg) - len(strings.TrimLeft(seg, "#"))
		return Heading(hashes, strings.TrimSpace(seg[hashes:]))
	}

	if utf8.RuneCountInString(seg) < HeadingLengthThreshold && !strings.Contains(seg, sentenceMarker) {
		return Heading(1, seg)
	}

	return Paragraph(seg)
}
