package parser

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		filename string
		want     Type
		wantErr  bool
	}{
		{"report.pdf", TypePDF, false},
		{"REPORT.PDF", TypePDF, false},
		{"notes.docx", TypeDOCX, false},
		{"table.csv", TypeCSV, false},
		{"readme.txt", TypeText, false},
		{"guide.md", TypeMarkdown, false},
		{"guide.markdown", TypeMarkdown, false},
		{"setup.exe", "", true},
		{"archive.tar.gz", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectType(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				assert.False(t, Supported(tt.filename))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, Supported(tt.filename))
		})
	}
}

func TestParse_Text(t *testing.T) {
	text, err := Parse("notes.txt", []byte("  hello world\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)

	_, err = Parse("notes.txt", []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, ErrParse)
}

func TestParse_CSV(t *testing.T) {
	data := "name,role\nAda,engineer\nGrace,admiral\n"
	text, err := Parse("people.csv", []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Ada | engineer\nGrace | admiral", text)
}

func TestParse_CSVHeaderOnly(t *testing.T) {
	text, err := Parse("empty.csv", []byte("a,b,c\n"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestParse_Markdown(t *testing.T) {
	data := "# Title\n\nSome *emphasis* and `code`.\n\n```go\nfmt.Println(1)\n```\n\n- item one\n- item two\n"
	text, err := Parse("doc.md", []byte(data))
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some emphasis and code.")
	assert.Contains(t, text, "fmt.Println(1)")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "*")
	assert.NotContains(t, text, "```")
}

func TestParse_DOCX(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First</w:t></w:r><w:r><w:t xml:space="preserve"> paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second</w:t><w:tab/><w:t>tabbed</w:t></w:r></w:p>
</w:body>
</w:document>`

	text, err := Parse("letter.docx", buildDOCX(t, xml))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond\ttabbed", text)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"pdf garbage", "broken.pdf", []byte("definitely not a pdf")},
		{"docx not a zip", "broken.docx", []byte("plain bytes")},
		{"docx missing body", "empty.docx", emptyZip(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := Parse(tt.filename, tt.data)
			assert.ErrorIs(t, err, ErrParse)
			assert.Empty(t, text, "failures never produce content")
		})
	}
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("virus.exe", []byte("MZ"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.NotErrorIs(t, err, ErrParse)
}

func emptyZip(t *testing.T) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
