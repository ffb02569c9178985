package docx

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/allanpk716/docx_homoglyph/pkg/markup"
)

// 最小 Word 包中的其他条目
const (
	ContentTypesEntryName  = "[Content_Types].xml"
	PackageRelsEntryName   = "_rels/.rels"
	DocumentRelsEntryName  = "word/_rels/document.xml.rels"
	relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="` + relationshipsNamespace + `">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="` + relationshipsNamespace + `"></Relationships>`

// NewDocument 生成只包含给定段落的最小 Word 文档，每个段落一个文本段
func NewDocument(paragraphs ...string) ([]byte, error) {
	body, err := NewBody(paragraphs...)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{ContentTypesEntryName, []byte(contentTypesXML)},
		{PackageRelsEntryName, []byte(packageRelsXML)},
		{BodyEntryName, body},
		{DocumentRelsEntryName, []byte(documentRelsXML)},
	}
	for _, e := range entries {
		fh := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
		if err := writeEntry(zw, fh, e.data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("关闭ZIP写入器失败: %w", err)
	}
	return buf.Bytes(), nil
}

// NewBody 生成正文 XML，文本中的特殊字符会被转义
func NewBody(paragraphs ...string) ([]byte, error) {
	w := func(local string) markup.Name { return markup.Name{Prefix: TextRunName.Prefix, Local: local} }

	body := &markup.Element{Name: w("body")}
	for _, text := range paragraphs {
		run := &markup.Element{Name: w("r")}
		t := &markup.Element{Name: TextRunName}
		if text != "" {
			t.Children = []markup.Node{&markup.Text{Value: text}}
			t.Attrs = []markup.Attr{{Name: markup.N("xml:space"), Value: "preserve"}}
		}
		run.Children = []markup.Node{t}
		body.Children = append(body.Children, &markup.Element{Name: w("p"), Children: []markup.Node{run}})
	}

	doc := &markup.Document{Children: []markup.Node{
		&markup.ProcInst{Target: "xml", Inst: `version="1.0" encoding="UTF-8" standalone="yes"`},
		&markup.Element{
			Name:     w("document"),
			Attrs:    []markup.Attr{{Name: markup.Name{Prefix: "xmlns", Local: TextRunName.Prefix}, Value: WordNamespace}},
			Children: []markup.Node{body},
		},
	}}

	out, err := markup.Encode(doc)
	if err != nil {
		return nil, &SerializationError{Entry: BodyEntryName, Err: err}
	}
	return out, nil
}
