package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pactguard/pactguard/internal/domain/report"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractTXTDropsInvalidUTF8(t *testing.T) {
	text, err := New().Extract("terms.TXT", []byte("hello \xff world"))
	require.NoError(t, err)
	assert.Equal(t, "hello  world", text)
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>The provider shall not be </w:t></w:r><w:r><w:t>liable.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t><w:tab/><w:t>paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	text, err := New().Extract("contract.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "The provider shall not be liable.\nSecond\tparagraph", text)
}

func TestExtractDOCXWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = New().Extract("contract.docx", buf.Bytes())
	var verr *report.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestExtractCorruptFiles(t *testing.T) {
	for _, name := range []string{"broken.pdf", "broken.docx"} {
		_, err := New().Extract(name, []byte("definitely not a real file"))
		var verr *report.ValidationError
		assert.True(t, errors.As(err, &verr), name)
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, err := New().Extract("tool.exe", []byte("MZ"))
	assert.Error(t, err)
}
