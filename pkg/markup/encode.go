package markup

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EncodeError 编码失败，Path 为出错节点所在的元素路径
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("XML 编码失败 (%s): %v", e.Path, e.Err)
	}
	return fmt.Sprintf("XML 编码失败: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Encode 把文档树序列化为 XML 文本
func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, &EncodeError{Err: fmt.Errorf("文档为空")}
	}

	w := &writer{}
	if doc.BOM {
		w.buf.Write(utf8BOM)
	}
	for _, n := range doc.Children {
		if err := w.node(n); err != nil {
			return nil, err
		}
	}
	return w.buf.Bytes(), nil
}

// EncodeNode 序列化单个节点
func EncodeNode(n Node) ([]byte, error) {
	w := &writer{}
	if err := w.node(n); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type writer struct {
	buf  bytes.Buffer
	path []string
}

func (w *writer) fail(format string, args ...any) error {
	return &EncodeError{
		Path: "/" + strings.Join(w.path, "/"),
		Err:  fmt.Errorf(format, args...),
	}
}

func (w *writer) node(n Node) error {
	switch v := n.(type) {
	case *Text:
		if err := checkChars(v.Value); err != nil {
			return w.fail("文本: %v", err)
		}
		escapeText(&w.buf, v.Value)
	case *Element:
		return w.element(v)
	case *Comment:
		if strings.Contains(v.Value, "--") || strings.HasSuffix(v.Value, "-") {
			return w.fail("注释中不能包含 \"--\"")
		}
		if err := checkChars(v.Value); err != nil {
			return w.fail("注释: %v", err)
		}
		w.buf.WriteString("<!--")
		w.buf.WriteString(v.Value)
		w.buf.WriteString("-->")
	case *ProcInst:
		if !validName(v.Target) {
			return w.fail("无效的处理指令名: %q", v.Target)
		}
		if strings.Contains(v.Inst, "?>") {
			return w.fail("处理指令内容不能包含 \"?>\"")
		}
		w.buf.WriteString("<?")
		w.buf.WriteString(v.Target)
		if v.Inst != "" {
			w.buf.WriteByte(' ')
			w.buf.WriteString(v.Inst)
		}
		w.buf.WriteString("?>")
	case *Directive:
		if strings.Contains(v.Value, ">") && !strings.Contains(v.Value, "[") {
			return w.fail("指令内容不能包含 \">\"")
		}
		w.buf.WriteString("<!")
		w.buf.WriteString(v.Value)
		w.buf.WriteByte('>')
	case nil:
		return w.fail("节点为空")
	default:
		return w.fail("未知节点类型 %T", n)
	}
	return nil
}

func (w *writer) element(e *Element) error {
	name := e.Name.String()
	if !validQName(e.Name) {
		return w.fail("无效的元素名: %q", name)
	}

	w.path = append(w.path, name)
	defer func() { w.path = w.path[:len(w.path)-1] }()

	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	for _, a := range e.Attrs {
		if !validQName(a.Name) {
			return w.fail("无效的属性名: %q", a.Name.String())
		}
		if err := checkChars(a.Value); err != nil {
			return w.fail("属性 %s: %v", a.Name, err)
		}
		w.buf.WriteByte(' ')
		w.buf.WriteString(a.Name.String())
		w.buf.WriteString(`="`)
		escapeAttr(&w.buf, a.Value)
		w.buf.WriteByte('"')
	}

	if len(e.Children) == 0 && e.SelfClosing {
		w.buf.WriteString("/>")
		return nil
	}

	w.buf.WriteByte('>')
	for _, c := range e.Children {
		if err := w.node(c); err != nil {
			return err
		}
	}
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
	return nil
}

func escapeText(buf *bytes.Buffer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '\r':
			esc = "&#xD;"
		default:
			continue
		}
		buf.WriteString(s[last:i])
		buf.WriteString(esc)
		last = i + 1
	}
	buf.WriteString(s[last:])
}

func escapeAttr(buf *bytes.Buffer, s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '"':
			esc = "&quot;"
		case '\t':
			esc = "&#x9;"
		case '\n':
			esc = "&#xA;"
		case '\r':
			esc = "&#xD;"
		default:
			continue
		}
		buf.WriteString(s[last:i])
		buf.WriteString(esc)
		last = i + 1
	}
	buf.WriteString(s[last:])
}

// checkChars 检查字符串是否为合法 UTF-8 且只包含 XML 1.0 允许的字符
func checkChars(s string) error {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("偏移 %d 处不是合法的 UTF-8", i)
		}
		if !isXMLChar(r) {
			return fmt.Errorf("偏移 %d 处包含非法字符 %U", i, r)
		}
		i += size
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 ||
		r == 0x0A ||
		r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func validQName(n Name) bool {
	if !validName(n.Local) {
		return false
	}
	return n.Prefix == "" || validName(n.Prefix)
}

// validName 不含冒号的 XML 名称
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == ':' {
			return false
		}
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.' || unicode.Is(unicode.Mn, r)) {
			continue
		}
		return false
	}
	return true
}
