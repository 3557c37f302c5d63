package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

func readZipParts(t *testing.T, data []byte) map[string]string {
	t.Helper()

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string]string)
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(content)
	}
	return parts
}

func sampleBlocks() []structure.Block {
	return structure.Segment("# Quarterly Report\n\nRevenue grew. Costs fell.\nMargins improved.\n\n## Outlook\n\n- hire two engineers. Soon\n- ship v2")
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"word": FormatWord, "DOCX": FormatWord,
		"pdf":  FormatPDF,
		"ppt":  FormatSlides, "pptx": FormatSlides, " slides ": FormatSlides,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("odt")
	assert.Error(t, err)
}

func TestFormatMetadata(t *testing.T) {
	assert.Equal(t, "docx", FormatWord.Extension())
	assert.Equal(t, "pptx", FormatSlides.Extension())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	assert.Equal(t, "application/octet-stream", ContentTypeForExtension(".zip"))
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []Format{FormatPDF, FormatSlides, FormatWord}, reg.Formats())

	for _, format := range Formats() {
		r, err := reg.Get(format)
		require.NoError(t, err)
		assert.Equal(t, format, r.Format())
	}

	err := reg.Register(FormatPDF, func() Renderer { return NewPDFRenderer() })
	assert.Error(t, err)

	_, err = NewRegistry().Get(FormatWord)
	assert.Error(t, err)
}

func TestDocxRenderer(t *testing.T) {
	data, err := RenderFlowing(sampleBlocks())
	require.NoError(t, err)

	parts := readZipParts(t, data)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels"} {
		assert.Contains(t, parts, name)
	}

	doc := parts["word/document.xml"]
	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, `<w:pStyle w:val="Heading1">`)
	assert.Contains(t, doc, `<w:pStyle w:val="Heading2">`)
	assert.Contains(t, doc, `<w:spacing w:after="200">`)
	assert.Contains(t, doc, "Quarterly Report")

	// 段落内换行是 w:br 而不是新段落
	idx := strings.Index(doc, "Revenue grew. Costs fell.")
	require.Greater(t, idx, 0)
	rest := doc[idx:]
	brIdx := strings.Index(rest, "<w:br>")
	marginIdx := strings.Index(rest, "Margins improved.")
	pEndIdx := strings.Index(rest, "</w:p>")
	assert.True(t, brIdx > 0 && brIdx < marginIdx && marginIdx < pEndIdx)

	assert.Contains(t, parts["word/styles.xml"], `w:styleId="Heading3"`)
}

func TestDocxEscapesText(t *testing.T) {
	data, err := RenderFlowing([]structure.Block{structure.Paragraph("a < b & c")})
	require.NoError(t, err)

	parts := readZipParts(t, data)
	assert.Contains(t, parts["word/document.xml"], "a &lt; b &amp; c")
}

func TestPPTXRenderer(t *testing.T) {
	data, err := RenderSlides(sampleBlocks())
	require.NoError(t, err)

	parts := readZipParts(t, data)
	assert.Contains(t, parts, "ppt/presentation.xml")
	assert.Contains(t, parts, "ppt/slides/slide1.xml")
	assert.Contains(t, parts, "ppt/slides/slide2.xml")
	assert.NotContains(t, parts, "ppt/slides/slide3.xml")

	pres := parts["ppt/presentation.xml"]
	assert.Contains(t, pres, `<p:sldSz cx="9144000" cy="5143500">`)
	assert.Contains(t, pres, `r:id="rId3"`)
	assert.Contains(t, pres, `r:id="rId4"`)

	slide1 := parts["ppt/slides/slide1.xml"]
	assert.Contains(t, slide1, "<a:t>Quarterly Report</a:t>")
	assert.Contains(t, slide1, `sz="3200" b="1"`)
	assert.Contains(t, slide1, "<a:t>Revenue grew. Costs fell.</a:t>")
	assert.Contains(t, slide1, "<a:t>Margins improved.</a:t>")
	// 第二条要点位于 1.5 + 0.8 英寸
	assert.Contains(t, slide1, `<a:off x="457200" y="2103120">`)
	assert.Contains(t, slide1, `<a:masterClrMapping/>`)

	slide2 := parts["ppt/slides/slide2.xml"]
	assert.Contains(t, slide2, "<a:t>Outlook</a:t>")
	assert.Contains(t, slide2, "<a:t>hire two engineers. Soon</a:t>")
	assert.NotContains(t, slide2, "- hire")
	assert.Contains(t, slide2, `startAt="2"`)

	assert.Contains(t, parts["[Content_Types].xml"], "/ppt/slides/slide2.xml")
}

func TestPPTXSyntheticFirstSlide(t *testing.T) {
	blocks := []structure.Block{structure.Paragraph("Intro text. No heading.")}
	data, err := RenderSlides(blocks)
	require.NoError(t, err)

	parts := readZipParts(t, data)
	assert.Contains(t, parts["ppt/slides/slide1.xml"], "<a:t>Slide 1</a:t>")
}

func TestPDFRenderer(t *testing.T) {
	data, err := RenderFixedPage(sampleBlocks())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestPDFRendererPaginates(t *testing.T) {
	long := strings.Repeat("Lorem ipsum dolor sit amet. Consectetur adipiscing elit. ", 40)
	blocks := make([]structure.Block, 0, 20)
	for i := 0; i < 20; i++ {
		blocks = append(blocks, structure.Paragraph(long))
	}

	data, err := RenderFixedPage(blocks)
	require.NoError(t, err)

	pages, err := api.PageCount(bytes.NewReader(data), nil)
	require.NoError(t, err)
	assert.Greater(t, pages, 1)
}

func TestRenderersAreDeterministic(t *testing.T) {
	blocks := sampleBlocks()

	for _, format := range Formats() {
		r, err := DefaultRegistry().Get(format)
		require.NoError(t, err)

		first, err := ToBytes(context.Background(), r, blocks)
		require.NoError(t, err)
		second, err := ToBytes(context.Background(), r, blocks)
		require.NoError(t, err)

		assert.Equal(t, first, second, string(format))
	}
}

func TestToBytesEmptyBlocks(t *testing.T) {
	for _, format := range Formats() {
		r, err := DefaultRegistry().Get(format)
		require.NoError(t, err)

		data, err := ToBytes(context.Background(), r, nil)
		require.NoError(t, err, string(format))
		assert.NotEmpty(t, data)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRenderWriteFailure(t *testing.T) {
	for _, format := range Formats() {
		r, err := DefaultRegistry().Get(format)
		require.NoError(t, err)

		err = r.Render(context.Background(), sampleBlocks(), failingWriter{})
		require.Error(t, err, string(format))

		var encErr *EncodeError
		require.ErrorAs(t, err, &encErr)
		assert.Equal(t, format, encErr.Format)
	}
}

func TestRenderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ToBytes(ctx, NewDocxRenderer(), sampleBlocks())
	assert.ErrorIs(t, err, context.Canceled)
}
