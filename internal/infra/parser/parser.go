package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
)

// Parser turns uploaded bytes into plain text by extension.
type Parser struct{}

func New() *Parser { return &Parser{} }

// Extract returns the document text. Unreadable files are reported as
// validation errors on field "file" since the caller sent them.
func (p *Parser) Extract(name string, data []byte) (string, error) {
	switch document.Extension(name) {
	case ".txt":
		return strings.ToValidUTF8(string(data), ""), nil
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	}
	return "", report.NewValidationError("file", fmt.Sprintf("Unsupported file type %q", document.Extension(name)))
}

func extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", report.NewValidationError("file", "Could not read PDF file")
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", report.NewValidationError("file", "Could not read PDF file")
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", report.NewValidationError("file", "Could not extract text from PDF file")
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.ToValidUTF8(string(b), ""), nil
}

// extractDOCX reads word/document.xml out of the OOXML zip. Runs of w:t
// are concatenated, paragraphs end with a newline.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", report.NewValidationError("file", "Could not read DOCX file")
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", report.NewValidationError("file", "DOCX file has no document body")
	}
	rc, err := body.Open()
	if err != nil {
		return "", report.NewValidationError("file", "Could not read DOCX file")
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", report.NewValidationError("file", "DOCX document body is malformed")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
