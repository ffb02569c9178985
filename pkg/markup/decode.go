package markup

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DecodeError 解码失败，Offset 为出错时的输入字节偏移
type DecodeError struct {
	Line   int
	Offset int64
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("XML 解析失败 (第 %d 行): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("XML 解析失败 (偏移 %d): %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// utf8BOM UTF-8 字节序标记
var utf8BOM = []byte("\xef\xbb\xbf")

// Decode 把 XML 文本解析为文档树，开头的 UTF-8 BOM 记录在 Document.BOM 中
func Decode(data []byte) (*Document, error) {
	doc := &Document{}
	var base int64
	if bytes.HasPrefix(data, utf8BOM) {
		doc.BOM = true
		data = data[len(utf8BOM):]
		base = int64(len(utf8BOM))
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	// 不展开自定义实体
	d.Entity = map[string]string{}

	var stack []*Element
	roots := 0

	fail := func(err error) (*Document, error) {
		de := &DecodeError{Offset: base + d.InputOffset(), Err: err}
		var se *xml.SyntaxError
		if errors.As(err, &se) {
			de.Line = se.Line
		}
		return nil, de
	}

	add := func(n Node) {
		if len(stack) == 0 {
			doc.Children = append(doc.Children, n)
			return
		}
		top := stack[len(stack)-1]
		top.Children = append(top.Children, n)
	}

	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return fail(fmt.Errorf("存在多个根元素: <%s>", nameOf(t.Name)))
				}
			}
			el := &Element{
				Name:        nameOf(t.Name),
				SelfClosing: selfClosing(data, d.InputOffset()),
			}
			if len(t.Attr) > 0 {
				el.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					el.Attrs[i] = Attr{Name: nameOf(a.Name), Value: a.Value}
				}
			}
			add(el)
			stack = append(stack, el)

		case xml.EndElement:
			// RawToken 不检查标签配对，这里自己检查
			name := nameOf(t.Name)
			if len(stack) == 0 {
				return fail(fmt.Errorf("多余的结束标签 </%s>", name))
			}
			top := stack[len(stack)-1]
			if top.Name != name {
				return fail(fmt.Errorf("结束标签 </%s> 与开始标签 <%s> 不匹配", name, top.Name))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 && strings.TrimSpace(string(t)) != "" {
				return fail(fmt.Errorf("根元素之外存在文本内容"))
			}
			add(&Text{Value: string(t)})

		case xml.Comment:
			add(&Comment{Value: string(t)})

		case xml.ProcInst:
			add(&ProcInst{Target: t.Target, Inst: string(t.Inst)})

		case xml.Directive:
			add(&Directive{Value: string(t)})
		}
	}

	if len(stack) > 0 {
		return fail(fmt.Errorf("元素 <%s> 未闭合", stack[len(stack)-1].Name))
	}
	if roots == 0 {
		return fail(fmt.Errorf("缺少根元素"))
	}

	return doc, nil
}

// DecodeString 解析字符串形式的 XML
func DecodeString(s string) (*Document, error) {
	return Decode([]byte(s))
}

func nameOf(n xml.Name) Name {
	// RawToken 不解析命名空间，Space 中是原始前缀
	return Name{Prefix: n.Space, Local: n.Local}
}

// selfClosing 根据开始标签结束处的偏移判断是否为 <x/> 写法
func selfClosing(data []byte, end int64) bool {
	if end < 2 || end > int64(len(data)) {
		return false
	}
	return data[end-2] == '/' && data[end-1] == '>'
}
