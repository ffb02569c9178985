// Package markup 提供 XML 混合内容树及其无损编解码。
//
// 解码时保留元素名前缀（不做命名空间解析）、属性顺序、注释、处理指令
// 以及自闭合标签，编码后可以被 Word 等程序按原样读取。
package markup

// Name 元素或属性名，Prefix 保持文档中的原始写法（如 "w"）
type Name struct {
	Prefix string
	Local  string
}

// N 根据 "prefix:local" 形式的字符串构造 Name
func N(qualified string) Name {
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == ':' {
			return Name{Prefix: qualified[:i], Local: qualified[i+1:]}
		}
	}
	return Name{Local: qualified}
}

func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr 属性
type Attr struct {
	Name  Name
	Value string
}

// Node 树节点，只有本包中的类型实现该接口
type Node interface {
	node()
}

// Text 字符数据
type Text struct {
	Value string
}

// Element 元素节点
type Element struct {
	Name     Name
	Attrs    []Attr
	Children []Node
	// SelfClosing 原文为 <x/> 形式，仅在没有子节点时生效
	SelfClosing bool
}

// Comment 注释 <!--...-->
type Comment struct {
	Value string
}

// ProcInst 处理指令 <?target inst?>
type ProcInst struct {
	Target string
	Inst   string
}

// Directive 指令 <!...>，如 DOCTYPE
type Directive struct {
	Value string
}

func (*Text) node()      {}
func (*Element) node()   {}
func (*Comment) node()   {}
func (*ProcInst) node()  {}
func (*Directive) node() {}

// Document 文档：声明、根元素以及前后的空白、注释
type Document struct {
	// BOM 原文以 UTF-8 字节序标记开头，编码时原样写回
	BOM      bool
	Children []Node
}

// Root 返回根元素
func (d *Document) Root() *Element {
	if d == nil {
		return nil
	}
	for _, n := range d.Children {
		if el, ok := n.(*Element); ok {
			return el
		}
	}
	return nil
}

// Shell 复制元素名和属性，不复制子节点
func (e *Element) Shell() *Element {
	out := &Element{
		Name:        e.Name,
		SelfClosing: e.SelfClosing,
	}
	if e.Attrs != nil {
		out.Attrs = make([]Attr, len(e.Attrs))
		copy(out.Attrs, e.Attrs)
	}
	return out
}

// Attr 返回指定属性的值
func (e *Element) Attr(name Name) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Clone 深拷贝节点
func Clone(n Node) Node {
	switch v := n.(type) {
	case *Text:
		return &Text{Value: v.Value}
	case *Element:
		out := v.Shell()
		if v.Children != nil {
			out.Children = make([]Node, len(v.Children))
			for i, c := range v.Children {
				out.Children[i] = Clone(c)
			}
		}
		return out
	case *Comment:
		return &Comment{Value: v.Value}
	case *ProcInst:
		return &ProcInst{Target: v.Target, Inst: v.Inst}
	case *Directive:
		return &Directive{Value: v.Value}
	default:
		return nil
	}
}
