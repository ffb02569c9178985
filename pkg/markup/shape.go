package markup

// Stats 树结构统计
type Stats struct {
	Elements   int
	Attributes int
	Texts      int
	Others     int
}

// Walk 先序遍历，fn 返回 false 时不再进入该节点的子节点
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if el, ok := n.(*Element); ok {
		for _, c := range el.Children {
			Walk(c, fn)
		}
	}
}

// WalkDocument 遍历文档的全部顶层节点
func WalkDocument(doc *Document, fn func(Node) bool) {
	if doc == nil {
		return
	}
	for _, n := range doc.Children {
		Walk(n, fn)
	}
}

// Count 统计文档中的节点数量
func Count(doc *Document) Stats {
	var s Stats
	WalkDocument(doc, func(n Node) bool {
		switch v := n.(type) {
		case *Element:
			s.Elements++
			s.Attributes += len(v.Attrs)
		case *Text:
			s.Texts++
		default:
			s.Others++
		}
		return true
	})
	return s
}

// SameShape 比较两棵树的结构：节点类型、元素名、属性（含值和顺序）、
// 子节点顺序必须一致，文本内容不参与比较
func SameShape(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	return sameChildren(a.Children, b.Children)
}

func sameChildren(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameNode(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameNode(a, b Node) bool {
	switch x := a.(type) {
	case *Text:
		_, ok := b.(*Text)
		return ok
	case *Element:
		y, ok := b.(*Element)
		if !ok || x.Name != y.Name || len(x.Attrs) != len(y.Attrs) {
			return false
		}
		for i := range x.Attrs {
			if x.Attrs[i] != y.Attrs[i] {
				return false
			}
		}
		return sameChildren(x.Children, y.Children)
	case *Comment:
		y, ok := b.(*Comment)
		return ok && x.Value == y.Value
	case *ProcInst:
		y, ok := b.(*ProcInst)
		return ok && *x == *y
	case *Directive:
		y, ok := b.(*Directive)
		return ok && x.Value == y.Value
	default:
		return false
	}
}
