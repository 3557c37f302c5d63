package render

import (
	"encoding/xml"
)

// DOCX XML Namespaces
const (
	WordprocessingMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	docxDocumentContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	docxStylesContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
)

// WordDocument represents word/document.xml
type WordDocument struct {
	XMLName   xml.Name `xml:"w:document"`
	Namespace string   `xml:"xmlns:w,attr"`
	Body      Body     `xml:"w:body"`
}

// Body represents the document body
type Body struct {
	Paragraphs []Paragraph `xml:"w:p"`
	Section    SectionProps `xml:"w:sectPr"`
}

// Paragraph represents a paragraph element
type Paragraph struct {
	Properties *ParagraphProps `xml:"w:pPr,omitempty"`
	Runs       []Run           `xml:"w:r"`
}

// ParagraphProps represents paragraph properties
type ParagraphProps struct {
	Style   *ValAttr          `xml:"w:pStyle,omitempty"`
	Spacing *ParagraphSpacing `xml:"w:spacing,omitempty"`
}

// ValAttr is the common w:val attribute element
type ValAttr struct {
	Val string `xml:"w:val,attr"`
}

// ParagraphSpacing represents paragraph spacing in twentieths of a point
type ParagraphSpacing struct {
	After  string `xml:"w:after,attr,omitempty"`
	Before string `xml:"w:before,attr,omitempty"`
}

// Run represents a text run; Break precedes Text so a break run can carry the next line
type Run struct {
	Properties *RunProps `xml:"w:rPr,omitempty"`
	Break      *Break    `xml:"w:br,omitempty"`
	Text       *Text     `xml:"w:t,omitempty"`
}

// RunProps represents run properties
type RunProps struct {
	Bold *struct{} `xml:"w:b,omitempty"`
	Size *ValAttr  `xml:"w:sz,omitempty"`
}

// Text represents actual text content
type Text struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// Break represents a line break
type Break struct{}

// SectionProps carries page geometry (US Letter, 1 inch margins)
type SectionProps struct {
	PageSize   PageSize   `xml:"w:pgSz"`
	PageMargin PageMargin `xml:"w:pgMar"`
}

// PageSize in twentieths of a point
type PageSize struct {
	W string `xml:"w:w,attr"`
	H string `xml:"w:h,attr"`
}

// PageMargin in twentieths of a point
type PageMargin struct {
	Top    string `xml:"w:top,attr"`
	Right  string `xml:"w:right,attr"`
	Bottom string `xml:"w:bottom,attr"`
	Left   string `xml:"w:left,attr"`
}

// Styles represents word/styles.xml
type Styles struct {
	XMLName   xml.Name `xml:"w:styles"`
	Namespace string   `xml:"xmlns:w,attr"`
	Styles    []Style  `xml:"w:style"`
}

// Style is a single paragraph style definition
type Style struct {
	Type      string          `xml:"w:type,attr"`
	StyleID   string          `xml:"w:styleId,attr"`
	Default   string          `xml:"w:default,attr,omitempty"`
	Name      ValAttr         `xml:"w:name"`
	BasedOn   *ValAttr        `xml:"w:basedOn,omitempty"`
	Next      *ValAttr        `xml:"w:next,omitempty"`
	QFormat   *struct{}       `xml:"w:qFormat,omitempty"`
	Paragraph *ParagraphProps `xml:"w:pPr,omitempty"`
	Run       *RunProps       `xml:"w:rPr,omitempty"`
}
