package docx

import (
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/allanpk716/docx_homoglyph/pkg/markup"
)

// BodyEntryName 保存正文 XML 的条目
const BodyEntryName = "word/document.xml"

// WordprocessingML 命名空间（Transitional 与 Strict）
const (
	WordNamespace       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	WordStrictNamespace = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// TextRunName 文本段元素 <w:t>，文档根元素把 WordprocessingML 命名空间
// 绑定到其他前缀时按实际前缀匹配
var TextRunName = markup.Name{Prefix: "w", Local: "t"}

// Substituter 文本替换函数
type Substituter interface {
	Substitute(text string) string
}

// SubstituteFunc 让普通函数满足 Substituter
type SubstituteFunc func(string) string

// Substitute 调用 f
func (f SubstituteFunc) Substitute(text string) string {
	return f(text)
}

// State 转换流程所处的阶段
type State int

const (
	StateReceived State = iota
	StateOpened
	StateBodyExtracted
	StateParsed
	StateTransformed
	StateSerialized
	StateRepackaged
	StateDone
)

var stateNames = [...]string{
	"received", "opened", "body_extracted", "parsed",
	"transformed", "serialized", "repackaged", "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stats 单个文档的转换统计
type Stats struct {
	TextRuns     int // <w:t> 元素数
	TextLeaves   int // 文本段内被处理的文本节点数
	ChangedRunes int // 被替换的字符数
	BodyBytesIn  int
	BodyBytesOut int
	Elapsed      time.Duration
}

// Result 转换结果
type Result struct {
	Data  []byte
	Stats Stats
}

// Pipeline 文档转换流程：打开容器、解析正文、替换文本、编码、重新打包
type Pipeline struct {
	substituter Substituter
	logger      *slog.Logger
}

// NewPipeline 创建转换流程，logger 为 nil 时不输出日志
func NewPipeline(sub Substituter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		substituter: sub,
		logger:      logger,
	}
}

// TransformDocument 使用 sub 转换整个文档
func TransformDocument(raw []byte, sub Substituter) ([]byte, error) {
	res, err := NewPipeline(sub, nil).Transform(raw)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Transform 转换文档，任何一步失败都不返回部分结果
func (p *Pipeline) Transform(raw []byte) (*Result, error) {
	start := time.Now()
	p.enter(StateReceived, "size", len(raw))

	archive, err := OpenArchive(raw)
	if err != nil {
		return nil, err
	}
	p.enter(StateOpened, "entries", len(archive.reader.File))

	body, ok, err := archive.Entry(BodyEntryName)
	if err != nil {
		return nil, &InvalidInputError{Reason: ReasonNotContainer, Entry: BodyEntryName, Err: err}
	}
	if !ok {
		return nil, &InvalidInputError{Reason: ReasonMissingBody, Entry: BodyEntryName}
	}
	p.enter(StateBodyExtracted, "body_bytes", len(body))

	out, stats, err := p.transformBody(body)
	if err != nil {
		return nil, err
	}

	data, err := archive.WithReplacedEntry(BodyEntryName, out).Bytes()
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	p.enter(StateRepackaged, "output_bytes", len(data))

	stats.Elapsed = time.Since(start)
	p.enter(StateDone,
		"text_runs", stats.TextRuns,
		"changed_runes", stats.ChangedRunes,
		"elapsed_ms", stats.Elapsed.Milliseconds(),
	)

	return &Result{Data: data, Stats: stats}, nil
}

// TransformBody 只转换正文 XML
func TransformBody(body []byte, sub Substituter) ([]byte, Stats, error) {
	return NewPipeline(sub, nil).transformBody(body)
}

func (p *Pipeline) transformBody(body []byte) ([]byte, Stats, error) {
	stats := Stats{BodyBytesIn: len(body)}

	if !utf8.Valid(body) {
		return nil, stats, &MalformedMarkupError{Entry: BodyEntryName, Err: fmt.Errorf("正文不是合法的 UTF-8")}
	}

	tree, err := markup.Decode(body)
	if err != nil {
		p.logger.Debug("正文解析失败", "entry", BodyEntryName, "error", err)
		return nil, stats, &MalformedMarkupError{Entry: BodyEntryName, Err: err}
	}
	p.enter(StateParsed, "elements", markup.Count(tree).Elements)

	transformed, treeStats := TransformTree(tree, p.substituter)
	stats.TextRuns = treeStats.TextRuns
	stats.TextLeaves = treeStats.TextLeaves
	stats.ChangedRunes = treeStats.ChangedRunes
	p.enter(StateTransformed, "text_runs", stats.TextRuns, "text_leaves", stats.TextLeaves)

	out, err := markup.Encode(transformed)
	if err != nil {
		return nil, stats, &SerializationError{Entry: BodyEntryName, Err: err}
	}
	stats.BodyBytesOut = len(out)
	p.enter(StateSerialized, "body_bytes", len(out))

	return out, stats, nil
}

func (p *Pipeline) enter(s State, args ...any) {
	p.logger.Debug("文档转换", append([]any{"state", s.String()}, args...)...)
}

// TransformTree 返回替换了文本段内容的新树，输入树不会被修改
func TransformTree(doc *markup.Document, sub Substituter) (*markup.Document, Stats) {
	if doc == nil {
		return nil, Stats{}
	}
	t := &treeTransformer{
		sub:     sub,
		runName: textRunName(doc),
	}

	out := &markup.Document{BOM: doc.BOM}
	if doc.Children != nil {
		out.Children = make([]markup.Node, len(doc.Children))
		for i, n := range doc.Children {
			out.Children[i] = t.node(n, false)
		}
	}
	return out, t.stats
}

type treeTransformer struct {
	sub     Substituter
	runName markup.Name
	stats   Stats
}

// node 文本段内的所有文本节点都替换，嵌套元素保留名称和属性；
// 文本段外的节点原样复制
func (t *treeTransformer) node(n markup.Node, inRun bool) markup.Node {
	switch v := n.(type) {
	case *markup.Text:
		if !inRun {
			return &markup.Text{Value: v.Value}
		}
		t.stats.TextLeaves++
		if v.Value == "" || t.sub == nil {
			return &markup.Text{Value: v.Value}
		}
		replaced := t.sub.Substitute(v.Value)
		t.stats.ChangedRunes += changedRunes(v.Value, replaced)
		return &markup.Text{Value: replaced}

	case *markup.Element:
		out := v.Shell()
		isRun := v.Name == t.runName
		if isRun {
			t.stats.TextRuns++
		}
		if v.Children != nil {
			out.Children = make([]markup.Node, len(v.Children))
			for i, c := range v.Children {
				out.Children[i] = t.node(c, inRun || isRun)
			}
		}
		return out

	default:
		return markup.Clone(n)
	}
}

// textRunName 根据根元素上的命名空间声明确定 <w:t> 的实际前缀
func textRunName(doc *markup.Document) markup.Name {
	root := doc.Root()
	if root == nil {
		return TextRunName
	}
	for _, a := range root.Attrs {
		if a.Value != WordNamespace && a.Value != WordStrictNamespace {
			continue
		}
		switch {
		case a.Name.Prefix == "xmlns":
			return markup.Name{Prefix: a.Name.Local, Local: TextRunName.Local}
		case a.Name.Prefix == "" && a.Name.Local == "xmlns":
			return markup.Name{Local: TextRunName.Local}
		}
	}
	return TextRunName
}

func changedRunes(before, after string) int {
	a := []rune(before)
	b := []rune(after)
	n := 0
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			n++
		}
	}
	if len(a) > len(b) {
		n += len(a) - len(b)
	} else {
		n += len(b) - len(a)
	}
	return n
}
