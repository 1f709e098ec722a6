package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an in-memory Host. Nodes are *html.Node values rooted at a
// <body> element; listeners are kept beside the tree.
type Document struct {
	body      *html.Node
	listeners map[*html.Node]map[string]Listener
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		body:      &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body},
		listeners: make(map[*html.Node]map[string]Listener),
	}
}

// ParseDocument returns a document whose body holds the parsed markup.
func ParseDocument(markup string) (*Document, error) {
	d := NewDocument()
	nodes, err := html.ParseFragment(strings.NewReader(markup), d.body)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	for _, n := range nodes {
		d.body.AppendChild(n)
	}
	return d, nil
}

// Body returns the document body.
func (d *Document) Body() *html.Node {
	return d.body
}

// GetElementByID returns the first element with the given id, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	var found *html.Node
	walk(d.body, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryTag returns every element with the given tag in document order.
func (d *Document) QueryTag(tag string) []*html.Node {
	var out []*html.Node
	walk(d.body, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

func (d *Document) CreateElement(tag string) Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func (d *Document) CreateText(text string) Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func (d *Document) CreateComment(text string) Node {
	return &html.Node{Type: html.CommentNode, Data: text}
}

func (d *Document) ParseStatic(markup string) (Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), fragmentContext(markup))
	if err != nil {
		return nil, fmt.Errorf("dom: parse static markup: %w", err)
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("dom: static markup must have one root, got %d", len(nodes))
	}
	return nodes[0], nil
}

func (d *Document) Clone(n Node) Node {
	return cloneNode(n.(*html.Node))
}

func (d *Document) SetAttribute(n Node, name, value string) {
	el := n.(*html.Node)
	for i := range el.Attr {
		if el.Attr[i].Key == name {
			el.Attr[i].Val = value
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: name, Val: value})
}

func (d *Document) RemoveAttribute(n Node, name string) {
	el := n.(*html.Node)
	for i := range el.Attr {
		if el.Attr[i].Key == name {
			el.Attr = append(el.Attr[:i], el.Attr[i+1:]...)
			return
		}
	}
}

func (d *Document) SetListener(n Node, event string, l Listener) {
	el := n.(*html.Node)
	if l == nil {
		if m, ok := d.listeners[el]; ok {
			delete(m, event)
			if len(m) == 0 {
				delete(d.listeners, el)
			}
		}
		return
	}
	m, ok := d.listeners[el]
	if !ok {
		m = make(map[string]Listener)
		d.listeners[el] = m
	}
	m[event] = l
}

func (d *Document) SetText(n Node, text string) {
	n.(*html.Node).Data = text
}

func (d *Document) Insert(parent, child, anchor Node) {
	p, c := parent.(*html.Node), child.(*html.Node)
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	var ref *html.Node
	if anchor != nil {
		ref = anchor.(*html.Node)
	}
	if ref == nil || ref.Parent != p {
		p.AppendChild(c)
		return
	}
	p.InsertBefore(c, ref)
}

func (d *Document) Remove(n Node) {
	el := n.(*html.Node)
	if el.Parent != nil {
		el.Parent.RemoveChild(el)
	}
	walk(el, func(x *html.Node) bool {
		delete(d.listeners, x)
		return true
	})
}

func (d *Document) Parent(n Node) Node {
	if p := n.(*html.Node).Parent; p != nil {
		return p
	}
	return nil
}

func (d *Document) NextSibling(n Node) Node {
	if s := n.(*html.Node).NextSibling; s != nil {
		return s
	}
	return nil
}

// Dispatch delivers an event to target and bubbles it through its ancestors.
// It reports whether any listener ran.
func (d *Document) Dispatch(target Node, typ string, data map[string]any) bool {
	ev := &Event{Type: typ, Target: target, Data: data}
	handled := false
	for n := target.(*html.Node); n != nil; n = n.Parent {
		if l, ok := d.listeners[n][typ]; ok {
			l(ev)
			handled = true
		}
		if ev.stopped {
			break
		}
	}
	return handled
}

// Listeners returns the number of nodes with at least one listener.
func (d *Document) Listeners() int {
	return len(d.listeners)
}

// OuterHTML serializes n.
func OuterHTML(n Node) string {
	var b strings.Builder
	_ = html.Render(&b, n.(*html.Node))
	return b.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n Node) string {
	var b strings.Builder
	for c := n.(*html.Node).FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n Node) string {
	var b strings.Builder
	walk(n.(*html.Node), func(x *html.Node) bool {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		return true
	})
	return b.String()
}

// Attr returns the value of attribute name on n.
func Attr(n Node, name string) string {
	return attr(n.(*html.Node), name)
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// fragmentContext picks a parsing context in which the leading element of
// markup is allowed, so table parts survive fragment parsing.
func fragmentContext(markup string) *html.Node {
	tag := leadingTag(markup)
	ctx := "div"
	switch tag {
	case "tr":
		ctx = "tbody"
	case "td", "th":
		ctx = "tr"
	case "thead", "tbody", "tfoot", "caption", "colgroup":
		ctx = "table"
	case "col":
		ctx = "colgroup"
	case "option", "optgroup":
		ctx = "select"
	}
	return &html.Node{Type: html.ElementNode, Data: ctx, DataAtom: atom.Lookup([]byte(ctx))}
}

func leadingTag(markup string) string {
	markup = strings.TrimSpace(markup)
	if !strings.HasPrefix(markup, "<") {
		return ""
	}
	end := strings.IndexAny(markup[1:], " \t\n/>")
	if end < 0 {
		return strings.ToLower(markup[1:])
	}
	return strings.ToLower(markup[1 : end+1])
}

// walk visits n and its descendants in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func cloneNode(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneNode(c))
	}
	return out
}
