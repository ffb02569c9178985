package docx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	raw := standardDocx(t, wrapBody(
		paragraph("Hello ", "world"),
		`<w:p/>`,
		paragraph("1 &lt; 2"),
	))

	text, err := ExtractText(raw)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\n\n1 < 2", text)
}

func TestExtractText_AfterTransform(t *testing.T) {
	raw := standardDocx(t, wrapBody(paragraph("Hello")))

	out, err := TransformDocument(raw, standardSubstituter())
	require.NoError(t, err)

	text, err := ExtractText(out)
	require.NoError(t, err)
	assert.Equal(t, "Hеllо", text)
}

func TestExtractBodyText_NestedParagraphs(t *testing.T) {
	body := wrapBody(`<w:p><w:r><w:t>outer</w:t></w:r><w:r><w:txbxContent>` +
		paragraph("inner") + `</w:txbxContent></w:r></w:p>`)

	text, err := ExtractBodyText([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "outer\ninner", text)
}

func TestExtractText_Errors(t *testing.T) {
	_, err := ExtractText(buildDocx(t, testEntry{name: "other.xml", data: "<a/>"}))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ExtractBodyText([]byte("<w:p><w:t></w:p>"))
	assert.ErrorIs(t, err, ErrMalformedMarkup)
}
