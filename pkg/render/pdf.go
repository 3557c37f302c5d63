package render

import (
	"context"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// PDF 版面参数（单位：磅）
const (
	pdfFontSize     = 12.0
	pdfContentWidth = 500.0
	pdfMargin       = 72.0
	pdfLineHeight   = pdfFontSize * 1.2
	pdfFontFamily   = "Helvetica"
)

// pdfEpoch 写入文档信息字典的固定时间
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// PDFOption PDF 渲染器选项
type PDFOption func(*PDFRenderer)

// WithUTF8Font 使用内嵌的 TrueType 字体替代内置 Helvetica，以支持 cp1252 之外的字符
func WithUTF8Font(family string, ttf []byte) PDFOption {
	return func(r *PDFRenderer) {
		if family != "" && len(ttf) > 0 {
			r.fontFamily = family
			r.fontData = ttf
		}
	}
}

// PDFRenderer 固定页面文档渲染器，换行与分页交给 fpdf 完成
type PDFRenderer struct {
	fontFamily string
	fontData   []byte
}

// NewPDFRenderer 创建 PDF 渲染器
func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{fontFamily: pdfFontFamily}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Format 返回格式
func (r *PDFRenderer) Format() Format {
	return FormatPDF
}

// Render 逐块输出文本：除第一块外先下移一行，标题与段落使用相同字号
func (r *PDFRenderer) Render(ctx context.Context, blocks []structure.Block, output io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	translate := func(s string) string { return s }
	if len(r.fontData) > 0 {
		pdf.AddUTF8FontFromBytes(r.fontFamily, "", r.fontData)
	} else {
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetFont(r.fontFamily, "", pdfFontSize)
	pdf.AddPage()

	for i, block := range blocks {
		if i > 0 {
			pdf.Ln(pdfLineHeight)
		}
		pdf.MultiCell(pdfContentWidth, pdfLineHeight, translate(block.JoinedText(" ")), "", "L", false)

		if pdf.Err() {
			return encodeError(FormatPDF, pdf.Error())
		}
	}

	if err := pdf.Output(output); err != nil {
		return encodeError(FormatPDF, err)
	}
	return nil
}
