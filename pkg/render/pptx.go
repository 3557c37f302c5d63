package render

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/nerdneilsfield/doc-forge/pkg/structure"
)

// emuPerInch DrawingML 单位换算
const emuPerInch = 914400

// 幻灯片版面（英寸），16:9
const (
	slideWidthIn  = 10.0
	slideHeightIn = 5.625

	boxLeftIn  = 0.5
	boxWidthIn = 9.0

	titleTopIn    = 0.5
	titleHeightIn = 1.0
	titleFontSize = 32

	bulletTopIn    = 1.5
	bulletStepIn   = 0.8
	bulletHeightIn = 0.7
	bulletFontSize = 18

	textColor = "363636"
)

// PPTXRenderer 幻灯片渲染器
type PPTXRenderer struct{}

// NewPPTXRenderer 创建 PPTX 渲染器
func NewPPTXRenderer() *PPTXRenderer {
	return &PPTXRenderer{}
}

// Format 返回格式
func (r *PPTXRenderer) Format() Format {
	return FormatSlides
}

// Render 先按标题分组，再逐张写出幻灯片
func (r *PPTXRenderer) Render(ctx context.Context, blocks []structure.Block, output io.Writer) error {
	slides := structure.GroupSlides(blocks)
	if len(slides) == 0 {
		slides = []structure.Slide{{Title: "Slide 1", Bullets: []string{}}}
	}

	pkg := &packageWriter{}

	overrides := []Override{
		{PartName: "/ppt/presentation.xml", ContentType: pptxPresentationContentType},
		{PartName: "/ppt/slideMasters/slideMaster1.xml", ContentType: pptxSlideMasterContentType},
		{PartName: "/ppt/slideLayouts/slideLayout1.xml", ContentType: pptxSlideLayoutContentType},
		{PartName: "/ppt/theme/theme1.xml", ContentType: pptxThemeContentType},
	}
	presRels := []Relationship{
		{ID: "rId1", Type: relTypeBase + "slideMaster", Target: "slideMasters/slideMaster1.xml"},
		{ID: "rId2", Type: relTypeBase + "theme", Target: "theme/theme1.xml"},
	}
	presentation := Presentation{
		NamespaceA:   DrawingMLNamespace,
		NamespaceR:   OfficeRelNamespace,
		NamespaceP:   PresentationMLNamespace,
		MasterIDList: []SlideMasterID{{ID: 2147483648, RID: "rId1"}},
		SlideSize:    SlideSize{CX: emu(slideWidthIn), CY: emu(slideHeightIn)},
		NotesSize:    Extent{CX: 6858000, CY: 9144000},
	}

	for i := range slides {
		n := i + 1
		rid := fmt.Sprintf("rId%d", n+2)
		overrides = append(overrides, Override{
			PartName:    fmt.Sprintf("/ppt/slides/slide%d.xml", n),
			ContentType: pptxSlideContentType,
		})
		presRels = append(presRels, Relationship{
			ID: rid, Type: relTypeBase + "slide", Target: fmt.Sprintf("slides/slide%d.xml", n),
		})
		presentation.SlideIDList = append(presentation.SlideIDList, SlideID{ID: uint32(255 + n), RID: rid})
	}

	if err := pkg.addXML("[Content_Types].xml", newContentTypes(overrides...)); err != nil {
		return encodeError(FormatSlides, err)
	}
	if err := pkg.addXML("_rels/.rels", newRelationships(
		Relationship{ID: "rId1", Type: officeDocumentRelType, Target: "ppt/presentation.xml"},
	)); err != nil {
		return encodeError(FormatSlides, err)
	}
	if err := pkg.addXML("ppt/presentation.xml", presentation); err != nil {
		return encodeError(FormatSlides, err)
	}
	if err := pkg.addXML("ppt/_rels/presentation.xml.rels", newRelationships(presRels...)); err != nil {
		return encodeError(FormatSlides, err)
	}

	pkg.addRaw("ppt/slideMasters/slideMaster1.xml", xmlDeclaration+pptxSlideMaster)
	if err := pkg.addXML("ppt/slideMasters/_rels/slideMaster1.xml.rels", newRelationships(
		Relationship{ID: "rId1", Type: relTypeBase + "slideLayout", Target: "../slideLayouts/slideLayout1.xml"},
		Relationship{ID: "rId2", Type: relTypeBase + "theme", Target: "../theme/theme1.xml"},
	)); err != nil {
		return encodeError(FormatSlides, err)
	}
	pkg.addRaw("ppt/slideLayouts/slideLayout1.xml", xmlDeclaration+pptxSlideLayout)
	if err := pkg.addXML("ppt/slideLayouts/_rels/slideLayout1.xml.rels", newRelationships(
		Relationship{ID: "rId1", Type: relTypeBase + "slideMaster", Target: "../slideMasters/slideMaster1.xml"},
	)); err != nil {
		return encodeError(FormatSlides, err)
	}
	pkg.addRaw("ppt/theme/theme1.xml", xmlDeclaration+pptxTheme)

	for i, slide := range slides {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := i + 1
		if err := pkg.addXML(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideDocument(slide)); err != nil {
			return encodeError(FormatSlides, err)
		}
		if err := pkg.addXML(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), newRelationships(
			Relationship{ID: "rId1", Type: relTypeBase + "slideLayout", Target: "../slideLayouts/slideLayout1.xml"},
		)); err != nil {
			return encodeError(FormatSlides, err)
		}
	}

	if err := pkg.writeTo(output); err != nil {
		return encodeError(FormatSlides, err)
	}
	return nil
}

// slideDocument 标题框加每条要点一个编号文本框，要点按固定步长向下排列
func slideDocument(slide structure.Slide) SlideDoc {
	tree := ShapeTree{
		NonVisual: GroupNonVisual{CNvPr: NonVisualProps{ID: 1}},
	}

	tree.Shapes = append(tree.Shapes, textBox(2, "Title 1",
		boxLeftIn, titleTopIn, titleHeightIn, "ctr",
		TextParagraph{Runs: []TextRun{textRun(slide.Title, titleFontSize, true)}},
	))

	for i, bullet := range slide.Bullets {
		top := bulletTopIn + float64(i)*bulletStepIn
		tree.Shapes = append(tree.Shapes, textBox(i+3, fmt.Sprintf("Bullet %d", i+1),
			boxLeftIn, top, bulletHeightIn, "t",
			TextParagraph{
				Props: &TextParagraphProps{
					MarL:      342900,
					Indent:    -342900,
					BuFont:    &BulletFont{Typeface: "+mj-lt"},
					BuAutoNum: &AutoNumber{Type: "arabicPeriod", StartAt: i + 1},
				},
				Runs: []TextRun{textRun(bullet, bulletFontSize, false)},
			},
		))
	}

	return SlideDoc{
		NamespaceA: DrawingMLNamespace,
		NamespaceR: OfficeRelNamespace,
		NamespaceP: PresentationMLNamespace,
		CSld:       CSld{ShapeTree: tree},
		ClrMapOvr:  pptxClrMapOvr,
	}
}

func textBox(id int, name string, left, top, height float64, anchor string, para TextParagraph) Shape {
	return Shape{
		NonVisual: ShapeNonVisual{
			CNvPr:   NonVisualProps{ID: id, Name: name},
			CNvSpPr: NonVisualSpProps{TxBox: "1"},
		},
		Props: ShapeProps{
			Xfrm: Transform{
				Off: Offset{X: emu(left), Y: emu(top)},
				Ext: Extent{CX: emu(boxWidthIn), CY: emu(height)},
			},
			PrstGeom: PrstGeom{Prst: "rect"},
		},
		TextBody: TextBody{
			BodyPr:     BodyProps{Wrap: "square", RtlCol: "0", Anchor: anchor},
			Paragraphs: []TextParagraph{para},
		},
	}
}

func textRun(text string, size int, bold bool) TextRun {
	run := TextRun{
		Props: RunProperties{
			Lang:  "en-US",
			Size:  size * 100,
			Dirty: "0",
			Fill:  SolidFill{Color: SRGBColor{Val: textColor}},
		},
		Text: text,
	}
	if bold {
		run.Props.Bold = "1"
	}
	return run
}

func emu(inches float64) int64 {
	return int64(math.Round(inches * emuPerInch))
}
