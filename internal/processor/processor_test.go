package processor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_homoglyph/internal/domain"
	"github.com/allanpk716/docx_homoglyph/internal/homoglyph"
	"github.com/allanpk716/docx_homoglyph/pkg/docx"
)

const testBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:body><w:p><w:r><w:t>Hello</w:t></w:r></w:p></w:body></w:document>`

// createDocxBytes 构造最小的 Word 包
func createDocxBytes(t testing.TB, body string) []byte {
	t.Helper()

	entries := []struct{ name, data string }{
		{"[Content_Types].xml", `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`},
		{"_rels/.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{"word/_rels/document.xml.rels", `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"/>`},
		{docx.BodyEntryName, body},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// createTempDocxFile 在临时目录中写入测试文档
func createTempDocxFile(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, createDocxBytes(t, body), 0644))
	return path
}

func standardFactory() domain.TextSubstituter {
	return homoglyph.NewSubstituter(homoglyph.StandardTable(), homoglyph.NewRand(1))
}

func bodyOf(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	archive, err := docx.OpenArchive(data)
	require.NoError(t, err)
	body, ok, err := archive.Entry(docx.BodyEntryName)
	require.NoError(t, err)
	require.True(t, ok)
	return string(body)
}

func TestNewDocumentProcessor(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	require.NotNil(t, processor)

	var _ domain.DocumentProcessor = processor
}

func TestDocumentProcessor_ProcessDocument(t *testing.T) {
	dir := t.TempDir()
	input := createTempDocxFile(t, dir, "hello.docx", testBody)
	output := filepath.Join(dir, "out", "hello-converted.docx")

	processor := NewDocumentProcessor(standardFactory, true)
	info, err := processor.ProcessDocument(context.Background(), input, output)
	require.NoError(t, err)

	assert.Equal(t, input, info.Path)
	assert.Equal(t, output, info.OutputPath)
	assert.Equal(t, 1, info.TextRuns)
	assert.Equal(t, 2, info.ChangedRunes)
	assert.True(t, info.Modified)
	assert.Contains(t, bodyOf(t, output), "<w:t>Hеllо</w:t>")

	// 输入文件保持不变
	assert.Equal(t, testBody, bodyOf(t, input))

	// 不留下临时文件
	leftovers, err := filepath.Glob(filepath.Join(dir, "out", ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestDocumentProcessor_ProcessDocument_InvalidPath(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()

	_, err := processor.ProcessDocument(context.Background(), filepath.Join(dir, "nonexistent.docx"), filepath.Join(dir, "output.docx"))
	assert.ErrorIs(t, err, docx.ErrInvalidInput)

	_, err = processor.ProcessDocument(context.Background(), "", filepath.Join(dir, "output.docx"))
	assert.ErrorIs(t, err, docx.ErrInvalidInput)
}

func TestDocumentProcessor_ProcessDocument_BadOutput(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()
	input := createTempDocxFile(t, dir, "a.docx", testBody)

	_, err := processor.ProcessDocument(context.Background(), input, "")
	assert.Error(t, err)

	_, err = processor.ProcessDocument(context.Background(), input, input)
	assert.Error(t, err)
	assert.Equal(t, testBody, bodyOf(t, input))
}

func TestDocumentProcessor_ProcessDocument_InvalidContent(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()
	output := filepath.Join(dir, "output.docx")

	empty := filepath.Join(dir, "empty.docx")
	require.NoError(t, os.WriteFile(empty, []byte{}, 0644))
	_, err := processor.ProcessDocument(context.Background(), empty, output)
	assert.ErrorIs(t, err, docx.ErrInvalidInput)

	text := filepath.Join(dir, "text.docx")
	require.NoError(t, os.WriteFile(text, []byte("not a zip"), 0644))
	_, err = processor.ProcessDocument(context.Background(), text, output)
	assert.ErrorIs(t, err, docx.ErrInvalidInput)

	malformed := createTempDocxFile(t, dir, "malformed.docx", `<w:document><w:t>x</w:document>`)
	_, err = processor.ProcessDocument(context.Background(), malformed, output)
	assert.ErrorIs(t, err, docx.ErrMalformedMarkup)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "失败时不应生成输出文件")
}

func TestDocumentProcessor_InvalidInputReasons(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()

	var noBody bytes.Buffer
	zw := zip.NewWriter(&noBody)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<Types/>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tests := []struct {
		name   string
		data   []byte
		reason string
	}{
		{name: "空文件", data: []byte{}, reason: docx.ReasonNoFile},
		{name: "不是zip", data: []byte("not a zip"), reason: docx.ReasonNotContainer},
		{name: "缺少正文", data: noBody.Bytes(), reason: docx.ReasonMissingBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := filepath.Join(dir, "input.docx")
			require.NoError(t, os.WriteFile(input, tt.data, 0644))

			_, err := processor.ProcessDocument(context.Background(), input, filepath.Join(dir, "output.docx"))
			var inv *docx.InvalidInputError
			require.True(t, errors.As(err, &inv), "err: %v", err)
			assert.Equal(t, tt.reason, inv.Reason)

			// 文件流程与内存流程给出相同的原因
			_, _, err = processor.ProcessBytes(context.Background(), tt.data)
			require.True(t, errors.As(err, &inv), "err: %v", err)
			assert.Equal(t, tt.reason, inv.Reason)
		})
	}
}

func TestDocumentProcessor_ValidateDocument(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()

	assert.Error(t, processor.ValidateDocument(""))
	assert.Error(t, processor.ValidateDocument(dir))

	doc := filepath.Join(dir, "legacy.doc")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0644))
	assert.Error(t, processor.ValidateDocument(doc))

	upper := createTempDocxFile(t, dir, "UPPER.DOCX", testBody)
	assert.NoError(t, processor.ValidateDocument(upper))
}

func TestDocumentProcessor_ProcessBytes(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	raw := createDocxBytes(t, testBody)

	out, info, err := processor.ProcessBytes(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, int64(len(raw)), info.Size)
	assert.Equal(t, int64(len(out)), info.OutputSize)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.Equal(t, "Hеllо", text)
}

func TestDocumentProcessor_ProcessBytes_NilFactory(t *testing.T) {
	processor := NewDocumentProcessor(nil, false)
	raw := createDocxBytes(t, testBody)

	out, info, err := processor.ProcessBytes(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, info.Modified)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestDocumentProcessor_ProcessDocument_ContextCancellation(t *testing.T) {
	processor := NewDocumentProcessor(standardFactory, true)
	dir := t.TempDir()
	input := createTempDocxFile(t, dir, "a.docx", testBody)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.ProcessDocument(ctx, input, filepath.Join(dir, "b.docx"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyOutput(t *testing.T) {
	raw := createDocxBytes(t, testBody)
	other := createDocxBytes(t, `<w:document/>`)

	assert.NoError(t, verifyOutput(raw, raw))
	assert.NoError(t, verifyOutput(raw, other))

	archive, err := docx.OpenArchive(raw)
	require.NoError(t, err)
	tampered, err := archive.WithReplacedEntry("_rels/.rels", []byte("<x/>")).Bytes()
	require.NoError(t, err)

	err = verifyOutput(raw, tampered)
	assert.ErrorIs(t, err, docx.ErrSerialization)
}

func BenchmarkDocumentProcessor_ProcessBytes(b *testing.B) {
	processor := NewDocumentProcessor(standardFactory, true)
	raw := createDocxBytes(b, testBody)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = processor.ProcessBytes(ctx, raw)
	}
}
