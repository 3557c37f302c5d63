package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF 先用 pdfcpu 校验结构并取页数，再按文档顺序逐页抽取纯文本
func extractPDF(data []byte) (result *Result, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf")
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	// ledongthuc/pdf 遇到畸形内容流会 panic
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pdf text extraction panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	// 页内段落只以单个换行分隔，只有页与页之间有空行，
	// 因此同一页的多个段落重新分段后会合并为一个段落
	return &Result{
		Kind:      KindPDF,
		Text:      strings.Join(pages, "\n\n"),
		PageCount: ctx.PageCount,
	}, nil
}
