package render

import (
	"encoding/xml"
)

// PresentationML namespaces and content types
const (
	PresentationMLNamespace = "http://schemas.openxmlformats.org/presentationml/2006/main"
	DrawingMLNamespace      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	OfficeRelNamespace      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	pptxPresentationContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	pptxSlideContentType        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	pptxSlideMasterContentType  = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	pptxSlideLayoutContentType  = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	pptxThemeContentType        = "application/vnd.openxmlformats-officedocument.theme+xml"
)

// Presentation represents ppt/presentation.xml
type Presentation struct {
	XMLName      xml.Name        `xml:"p:presentation"`
	NamespaceA   string          `xml:"xmlns:a,attr"`
	NamespaceR   string          `xml:"xmlns:r,attr"`
	NamespaceP   string          `xml:"xmlns:p,attr"`
	MasterIDList []SlideMasterID `xml:"p:sldMasterIdLst>p:sldMasterId"`
	SlideIDList  []SlideID       `xml:"p:sldIdLst>p:sldId"`
	SlideSize    SlideSize       `xml:"p:sldSz"`
	NotesSize    Extent          `xml:"p:notesSz"`
}

// SlideMasterID references a slide master by relationship
type SlideMasterID struct {
	ID  uint32 `xml:"id,attr"`
	RID string `xml:"r:id,attr"`
}

// SlideID references a slide by relationship
type SlideID struct {
	ID  uint32 `xml:"id,attr"`
	RID string `xml:"r:id,attr"`
}

// SlideSize is the deck geometry in EMU
type SlideSize struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

// Extent is a width/height pair in EMU
type Extent struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

// Offset is a position in EMU
type Offset struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

// SlideDoc represents ppt/slides/slideN.xml
type SlideDoc struct {
	XMLName    xml.Name `xml:"p:sld"`
	NamespaceA string   `xml:"xmlns:a,attr"`
	NamespaceR string   `xml:"xmlns:r,attr"`
	NamespaceP string   `xml:"xmlns:p,attr"`
	CSld       CSld     `xml:"p:cSld"`
	ClrMapOvr  string   `xml:",innerxml"`
}

// CSld is the common slide data
type CSld struct {
	ShapeTree ShapeTree `xml:"p:spTree"`
}

// ShapeTree holds the group properties and the shapes of a slide
type ShapeTree struct {
	NonVisual GroupNonVisual `xml:"p:nvGrpSpPr"`
	GroupProp struct{}       `xml:"p:grpSpPr"`
	Shapes    []Shape        `xml:"p:sp"`
}

// GroupNonVisual is the non-visual properties of the shape tree root
type GroupNonVisual struct {
	CNvPr      NonVisualProps `xml:"p:cNvPr"`
	CNvGrpSpPr struct{}       `xml:"p:cNvGrpSpPr"`
	NvPr       struct{}       `xml:"p:nvPr"`
}

// NonVisualProps carries shape id and name
type NonVisualProps struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

// Shape is a text box
type Shape struct {
	NonVisual ShapeNonVisual `xml:"p:nvSpPr"`
	Props     ShapeProps     `xml:"p:spPr"`
	TextBody  TextBody       `xml:"p:txBody"`
}

// ShapeNonVisual is the non-visual properties of a shape
type ShapeNonVisual struct {
	CNvPr   NonVisualProps   `xml:"p:cNvPr"`
	CNvSpPr NonVisualSpProps `xml:"p:cNvSpPr"`
	NvPr    struct{}         `xml:"p:nvPr"`
}

// NonVisualSpProps marks a shape as a text box
type NonVisualSpProps struct {
	TxBox string `xml:"txBox,attr,omitempty"`
}

// ShapeProps holds position and geometry
type ShapeProps struct {
	Xfrm     Transform `xml:"a:xfrm"`
	PrstGeom PrstGeom  `xml:"a:prstGeom"`
	NoFill   struct{}  `xml:"a:noFill"`
}

// Transform positions a shape
type Transform struct {
	Off Offset `xml:"a:off"`
	Ext Extent `xml:"a:ext"`
}

// PrstGeom is a preset geometry
type PrstGeom struct {
	Prst  string   `xml:"prst,attr"`
	AvLst struct{} `xml:"a:avLst"`
}

// TextBody holds the paragraphs of a shape
type TextBody struct {
	BodyPr     BodyProps       `xml:"a:bodyPr"`
	LstStyle   struct{}        `xml:"a:lstStyle"`
	Paragraphs []TextParagraph `xml:"a:p"`
}

// BodyProps controls wrapping and anchoring
type BodyProps struct {
	Wrap   string `xml:"wrap,attr"`
	RtlCol string `xml:"rtlCol,attr"`
	Anchor string `xml:"anchor,attr,omitempty"`
}

// TextParagraph is a DrawingML paragraph
type TextParagraph struct {
	Props *TextParagraphProps `xml:"a:pPr,omitempty"`
	Runs  []TextRun           `xml:"a:r"`
}

// TextParagraphProps carries bullet settings
type TextParagraphProps struct {
	MarL      int64        `xml:"marL,attr"`
	Indent    int64        `xml:"indent,attr"`
	BuFont    *BulletFont  `xml:"a:buFont,omitempty"`
	BuAutoNum *AutoNumber  `xml:"a:buAutoNum,omitempty"`
}

// BulletFont is the bullet typeface
type BulletFont struct {
	Typeface string `xml:"typeface,attr"`
}

// AutoNumber is an automatically numbered bullet
type AutoNumber struct {
	Type    string `xml:"type,attr"`
	StartAt int    `xml:"startAt,attr,omitempty"`
}

// TextRun is a DrawingML run
type TextRun struct {
	Props RunProperties `xml:"a:rPr"`
	Text  string        `xml:"a:t"`
}

// RunProperties controls size, weight and color of a run
type RunProperties struct {
	Lang  string    `xml:"lang,attr"`
	Size  int       `xml:"sz,attr"`
	Bold  string    `xml:"b,attr,omitempty"`
	Dirty string    `xml:"dirty,attr"`
	Fill  SolidFill `xml:"a:solidFill"`
}

// SolidFill is an sRGB color fill
type SolidFill struct {
	Color SRGBColor `xml:"a:srgbClr"`
}

// SRGBColor is a hex RGB color
type SRGBColor struct {
	Val string `xml:"val,attr"`
}

const pptxClrMapOvr = `<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>`

const pptxSlideMaster = `<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const pptxSlideLayout = `<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr>` +
	`</p:sldLayout>`

const pptxTheme = `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office Theme"><a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1><a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="44546A"/></a:dk2><a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office"><a:majorFont><a:latin typeface="Arial"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Arial"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements></a:theme>`
