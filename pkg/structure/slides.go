package structure

import (
	"fmt"
	"strings"
)

// Slide 由块派生出的标题加要点分组
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// GroupSlides 将块序列分组为幻灯片。
//
// 每个标题块开启一张新幻灯片；段落块按行拆分，去掉前导 -/* 标记后追加到当前幻灯片。
// 序列以段落开头时先合成标题为 "Slide 1" 的幻灯片。标题文本为空时使用 "Slide N"，
// N 为从 1 开始的输出顺序。
func GroupSlides(blocks []Block) []Slide {
	var slides []Slide

	for _, block := range blocks {
		if block.IsHeading() {
			title := strings.TrimSpace(block.Text)
			if title == "" {
				title = syntheticTitle(len(slides) + 1)
			}
			slides = append(slides, Slide{Title: title, Bullets: []string{}})
			continue
		}

		if len(slides) == 0 {
			slides = append(slides, Slide{Title: syntheticTitle(1), Bullets: []string{}})
		}

		current := &slides[len(slides)-1]
		current.Bullets = append(current.Bullets, bulletLines(block)...)
	}

	return slides
}

// bulletLines 把段落块拆成要点，丢弃空行
func bulletLines(block Block) []string {
	lines := block.Lines
	if len(lines) == 0 {
		lines = strings.Split(block.Text, "\n")
	}

	bullets := make([]string, 0, len(lines))
	for _, line := range lines {
		if bullet := StripBulletMarker(line); bullet != "" {
			bullets = append(bullets, bullet)
		}
	}
	return bullets
}

// StripBulletMarker 去掉行首的 "-" 或 "*" 列表标记及其后的空白
func StripBulletMarker(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		line = strings.TrimSpace(line[1:])
	}
	return line
}

func syntheticTitle(n int) string {
	return fmt.Sprintf("Slide %d", n)
}
