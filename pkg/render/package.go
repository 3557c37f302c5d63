package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// xmlDeclaration is prepended to every OOXML part.
const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// packageEpoch is stamped on every zip entry so identical input yields identical bytes.
var packageEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// part is a single file inside an OOXML package.
type part struct {
	name string
	data []byte
}

// packageWriter collects parts in insertion order and writes them as a zip container.
type packageWriter struct {
	parts []part
}

// addRaw adds a part with pre-encoded content.
func (w *packageWriter) addRaw(name, content string) {
	w.parts = append(w.parts, part{name: name, data: []byte(content)})
}

// addXML marshals v and adds it with the XML declaration.
func (w *packageWriter) addXML(name string, v interface{}) error {
	data, err := xml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	w.parts = append(w.parts, part{name: name, data: append([]byte(xmlDeclaration), data...)})
	return nil
}

// writeTo writes the zip container to output.
func (w *packageWriter) writeTo(output io.Writer) error {
	zipWriter := zip.NewWriter(output)

	for _, p := range w.parts {
		header := &zip.FileHeader{
			Name:     p.name,
			Method:   zip.Deflate,
			Modified: packageEpoch,
		}
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := writer.Write(p.data); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	return zipWriter.Close()
}

// ContentTypes represents [Content_Types].xml
type ContentTypes struct {
	XMLName   xml.Name   `xml:"Types"`
	Namespace string     `xml:"xmlns,attr"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// Default represents a default content type
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override represents an override content type
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Relationships represents a .rels part
type Relationships struct {
	XMLName       xml.Name       `xml:"Relationships"`
	Namespace     string         `xml:"xmlns,attr"`
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship represents a relationship
type Relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// Package-level namespaces and relationship types shared by DOCX and PPTX.
const (
	ContentTypesNamespace  = "http://schemas.openxmlformats.org/package/2006/content-types"
	RelationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
	officeDocumentRelType  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeBase            = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

func newContentTypes(overrides ...Override) ContentTypes {
	return ContentTypes{
		Namespace: ContentTypesNamespace,
		Defaults: []Default{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: overrides,
	}
}

func newRelationships(rels ...Relationship) Relationships {
	return Relationships{Namespace: RelationshipsNamespace, Relationships: rels}
}
