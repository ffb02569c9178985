package docx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

type testEntry struct {
	name   string
	data   string
	method uint16
}

// buildDocx 在内存中构造测试用的 DOCX 容器
func buildDocx(t *testing.T, entries ...testEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// standardDocx 正文之外带有三个条目的文档
func standardDocx(t *testing.T, body string) []byte {
	t.Helper()
	return buildDocx(t,
		testEntry{name: "[Content_Types].xml", data: `<?xml version="1.0"?><Types/>`, method: zip.Deflate},
		testEntry{name: "_rels/.rels", data: `<Relationships/>`, method: zip.Store},
		testEntry{name: BodyEntryName, data: body, method: zip.Deflate},
		testEntry{name: "word/styles.xml", data: `<w:styles ` + wordNS + `><w:t>style</w:t></w:styles>`, method: zip.Deflate},
	)
}

func wrapBody(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document ` + wordNS + `><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(p)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func paragraph(runs ...string) string {
	var b strings.Builder
	b.WriteString(`<w:p>`)
	for _, r := range runs {
		b.WriteString(`<w:r><w:t>` + r + `</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
	return b.String()
}

func readEntry(t *testing.T, raw []byte, name string) string {
	t.Helper()
	archive, err := OpenArchive(raw)
	require.NoError(t, err)
	data, ok, err := archive.Entry(name)
	require.NoError(t, err)
	require.True(t, ok, "条目 %s 不存在", name)
	return string(data)
}
