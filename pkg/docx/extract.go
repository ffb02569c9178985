package docx

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ExtractText 提取文档正文的纯文本，每个段落一行
func ExtractText(raw []byte) (string, error) {
	archive, err := OpenArchive(raw)
	if err != nil {
		return "", err
	}

	body, ok, err := archive.Entry(BodyEntryName)
	if err != nil {
		return "", &InvalidInputError{Reason: ReasonNotContainer, Entry: BodyEntryName, Err: err}
	}
	if !ok {
		return "", &InvalidInputError{Reason: ReasonMissingBody, Entry: BodyEntryName}
	}

	return ExtractBodyText(body)
}

// ExtractBodyText 从正文 XML 中提取 <w:t> 文本
// 文本框等嵌套段落只计入离它最近的段落
func ExtractBodyText(body []byte) (string, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return "", &MalformedMarkupError{Entry: BodyEntryName, Err: err}
	}

	paragraphs, err := xmlquery.QueryAll(doc, "//*[local-name()='p']")
	if err != nil {
		return "", fmt.Errorf("查询段落失败: %w", err)
	}

	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		runs, err := xmlquery.QueryAll(p, ".//*[local-name()='t']")
		if err != nil {
			return "", fmt.Errorf("查询文本段失败: %w", err)
		}

		var b strings.Builder
		for _, r := range runs {
			if nearestParagraph(r) == p {
				b.WriteString(r.InnerText())
			}
		}
		lines = append(lines, b.String())
	}

	return strings.Join(lines, "\n"), nil
}

func nearestParagraph(n *xmlquery.Node) *xmlquery.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == xmlquery.ElementNode && p.Data == "p" {
			return p
		}
	}
	return nil
}
