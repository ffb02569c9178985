package docx

import (
	"fmt"

	"github.com/allanpk716/docx_homoglyph/pkg/markup"
)

// RequiredEntries Word 打开文档所需的条目
var RequiredEntries = []string{
	BodyEntryName,
	ContentTypesEntryName,
	PackageRelsEntryName,
}

// ValidationResult 包结构检查结果
type ValidationResult struct {
	IsValid        bool     `json:"is_valid"`
	WordCompatible bool     `json:"word_compatible"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	Entries        int      `json:"entries"`
	TextRuns       int      `json:"text_runs"`
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.IsValid = false
	r.WordCompatible = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.WordCompatible = false
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidatePackage 检查容器结构、正文和关系文件是否为合法 XML
// 只有无法打开容器时才返回 error，其余问题记录在结果中
func ValidatePackage(raw []byte) (*ValidationResult, error) {
	archive, err := OpenArchive(raw)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		IsValid:        true,
		WordCompatible: true,
		Errors:         []string{},
		Warnings:       []string{},
		Entries:        len(archive.Names()),
	}

	for _, name := range RequiredEntries {
		if archive.Has(name) {
			continue
		}
		if name == BodyEntryName {
			result.fail("缺少必需文件: %s", name)
		} else {
			result.warn("缺少必需文件: %s", name)
		}
	}

	if archive.Has(BodyEntryName) {
		validateBody(archive, result)
	}

	for _, name := range []string{ContentTypesEntryName, PackageRelsEntryName, DocumentRelsEntryName} {
		if !archive.Has(name) {
			continue
		}
		data, _, err := archive.Entry(name)
		if err != nil {
			result.fail("读取 %s 失败: %v", name, err)
			continue
		}
		if _, err := markup.Decode(data); err != nil {
			result.fail("%s 不是合法的 XML: %v", name, err)
		}
	}

	return result, nil
}

func validateBody(archive *Archive, result *ValidationResult) {
	data, _, err := archive.Entry(BodyEntryName)
	if err != nil {
		result.fail("读取 %s 失败: %v", BodyEntryName, err)
		return
	}

	doc, err := markup.Decode(data)
	if err != nil {
		result.fail("%s 不是合法的 XML: %v", BodyEntryName, err)
		return
	}

	runName := textRunName(doc)
	root := doc.Root()
	if root.Name.Local != "document" {
		result.warn("根元素不是 document: <%s>", root.Name)
	}
	if runName == TextRunName && !declaresWordNamespace(root) {
		result.warn("根元素没有声明 WordprocessingML 命名空间")
	}

	hasBody := false
	for _, c := range root.Children {
		if e, ok := c.(*markup.Element); ok && e.Name.Prefix == runName.Prefix && e.Name.Local == "body" {
			hasBody = true
			break
		}
	}
	if !hasBody {
		result.warn("缺少文档主体 <%s>", markup.Name{Prefix: runName.Prefix, Local: "body"})
	}

	markup.WalkDocument(doc, func(n markup.Node) bool {
		if e, ok := n.(*markup.Element); ok && e.Name == runName {
			result.TextRuns++
		}
		return true
	})
}

func declaresWordNamespace(root *markup.Element) bool {
	for _, a := range root.Attrs {
		if a.Value != WordNamespace && a.Value != WordStrictNamespace {
			continue
		}
		if a.Name.Prefix == "xmlns" || (a.Name.Prefix == "" && a.Name.Local == "xmlns") {
			return true
		}
	}
	return false
}
