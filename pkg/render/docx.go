package render

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// blockSpacingAfter 每个段落后的固定间距（单位：1/20 磅）
const blockSpacingAfter = "200"

// headingSizes 标题字号（半磅），下标为级别
var headingSizes = [...]string{"", "32", "28", "26"}

// DocxRenderer 流式文档渲染器
type DocxRenderer struct{}

// NewDocxRenderer 创建 DOCX 渲染器
func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

// Format 返回格式
func (r *DocxRenderer) Format() Format {
	return FormatWord
}

// Render 将块序列写为 DOCX 包
func (r *DocxRenderer) Render(ctx context.Context, blocks []structure.Block, output io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := WordDocument{
		Namespace: WordprocessingMLNamespace,
		Body: Body{
			Paragraphs: make([]Paragraph, 0, len(blocks)),
			Section:    letterSection(),
		},
	}
	for _, block := range blocks {
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, docxParagraph(block))
	}

	pkg := &packageWriter{}
	if err := pkg.addXML("[Content_Types].xml", newContentTypes(
		Override{PartName: "/word/document.xml", ContentType: docxDocumentContentType},
		Override{PartName: "/word/styles.xml", ContentType: docxStylesContentType},
	)); err != nil {
		return encodeError(FormatWord, err)
	}
	if err := pkg.addXML("_rels/.rels", newRelationships(
		Relationship{ID: "rId1", Type: officeDocumentRelType, Target: "word/document.xml"},
	)); err != nil {
		return encodeError(FormatWord, err)
	}
	if err := pkg.addXML("word/document.xml", doc); err != nil {
		return encodeError(FormatWord, err)
	}
	if err := pkg.addXML("word/styles.xml", docxStyles()); err != nil {
		return encodeError(FormatWord, err)
	}
	if err := pkg.addXML("word/_rels/document.xml.rels", newRelationships(
		Relationship{ID: "rId1", Type: relTypeBase + "styles", Target: "styles.xml"},
	)); err != nil {
		return encodeError(FormatWord, err)
	}

	if err := pkg.writeTo(output); err != nil {
		return encodeError(FormatWord, err)
	}
	return nil
}

// docxParagraph 将块映射为段落：标题使用 HeadingN 样式，正文各行之间用换行符而非段落分隔
func docxParagraph(block structure.Block) Paragraph {
	props := &ParagraphProps{Spacing: &ParagraphSpacing{After: blockSpacingAfter}}

	if block.IsHeading() {
		props.Style = &ValAttr{Val: fmt.Sprintf("Heading%d", block.Level)}
		return Paragraph{
			Properties: props,
			Runs:       []Run{{Text: textElement(block.Text)}},
		}
	}

	lines := block.Lines
	if len(lines) == 0 {
		lines = []string{block.Text}
	}

	runs := make([]Run, 0, len(lines))
	for i, line := range lines {
		run := Run{Text: textElement(line)}
		if i > 0 {
			run.Break = &Break{}
		}
		runs = append(runs, run)
	}
	return Paragraph{Properties: props, Runs: runs}
}

func textElement(s string) *Text {
	return &Text{Space: "preserve", Text: s}
}

func letterSection() SectionProps {
	return SectionProps{
		PageSize:   PageSize{W: "12240", H: "15840"},
		PageMargin: PageMargin{Top: "1440", Right: "1440", Bottom: "1440", Left: "1440"},
	}
}

// docxStyles 生成 Normal 与 Heading1..3 样式
func docxStyles() Styles {
	styles := Styles{
		Namespace: WordprocessingMLNamespace,
		Styles: []Style{{
			Type:    "paragraph",
			StyleID: "Normal",
			Default: "1",
			Name:    ValAttr{Val: "Normal"},
			QFormat: &struct{}{},
			Run:     &RunProps{Size: &ValAttr{Val: "24"}},
		}},
	}

	for level := 1; level <= structure.MaxHeadingLevel; level++ {
		id := "Heading" + strconv.Itoa(level)
		styles.Styles = append(styles.Styles, Style{
			Type:    "paragraph",
			StyleID: id,
			Name:    ValAttr{Val: "heading " + strconv.Itoa(level)},
			BasedOn: &ValAttr{Val: "Normal"},
			Next:    &ValAttr{Val: "Normal"},
			QFormat: &struct{}{},
			Paragraph: &ParagraphProps{
				Spacing: &ParagraphSpacing{Before: "240", After: "120"},
			},
			Run: &RunProps{Bold: &struct{}{}, Size: &ValAttr{Val: headingSizes[level]}},
		})
	}
	return styles
}
