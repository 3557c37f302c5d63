package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const wordDocumentPart = "word/document.xml"

// extractWord 读取 word/document.xml 中的文本，丢弃所有格式，段落之间以空行分隔
func extractWord(data []byte) (*Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == wordDocumentPart {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s not found in archive", wordDocumentPart)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", wordDocumentPart, err)
	}
	defer rc.Close()

	paragraphs, err := wordParagraphs(rc)
	if err != nil {
		return nil, err
	}

	return &Result{Kind: KindWord, Text: strings.Join(paragraphs, "\n\n")}, nil
}

// wordParagraphs 遍历 XML token：w:t 取文本，w:tab 为制表符，w:br/w:cr 为换行
func wordParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
		depth      int
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", wordDocumentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				if isPageBreak(t) {
					current.WriteString("\n\n")
				} else {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					depth--
				}
				if depth == 0 {
					if text := strings.TrimRight(current.String(), " \t"); strings.TrimSpace(text) != "" {
						paragraphs = append(paragraphs, text)
					}
				}
			}
		}
	}

	return paragraphs, nil
}

func isPageBreak(el xml.StartElement) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value == "page" {
			return true
		}
	}
	return false
}
