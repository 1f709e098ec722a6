package inspector

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/vango-dev/weave/pkg/dom"
)

// OpKind is the type of a recorded host operation.
type OpKind uint8

// Host operation constants.
const (
	OpCreateElement  OpKind = 0x01 // Create element
	OpCreateText     OpKind = 0x02 // Create text node
	OpCreateComment  OpKind = 0x03 // Create placeholder comment
	OpClone          OpKind = 0x04 // Clone a parsed static subtree
	OpSetAttr        OpKind = 0x05 // Set attribute
	OpRemoveAttr     OpKind = 0x06 // Remove attribute
	OpSetListener    OpKind = 0x07 // Bind event listener
	OpRemoveListener OpKind = 0x08 // Unbind event listener
	OpSetText        OpKind = 0x09 // Update text content
	OpInsert         OpKind = 0x0A // Insert or move node
	OpRemove         OpKind = 0x0B // Remove node
)

// String returns the string representation of the operation.
func (k OpKind) String() string {
	switch k {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpCreateComment:
		return "CreateComment"
	case OpClone:
		return "Clone"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpSetListener:
		return "SetListener"
	case OpRemoveListener:
		return "RemoveListener"
	case OpSetText:
		return "SetText"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the operation by name.
func (k OpKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes an operation name.
func (k *OpKind) UnmarshalText(text []byte) error {
	for c := OpCreateElement; c <= OpRemove; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("inspector: unknown operation %q", text)
}

// Op is one host operation. Node, Parent and Anchor are recorder node IDs.
type Op struct {
	Kind   OpKind `json:"op"`
	Node   string `json:"node"`
	Parent string `json:"parent,omitempty"`
	Anchor string `json:"anchor,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Recorder is a dom.Host that forwards to a Document and records every
// operation. Node IDs are assigned on first sight and forgotten on Remove.
//
// Like the Document it wraps, a Recorder is used from the loop goroutine only.
type Recorder struct {
	doc *dom.Document

	ids   map[*html.Node]string
	nodes map[string]*html.Node
	next  int
	ops   []Op
	total uint64
}

var _ dom.Host = (*Recorder)(nil)

// NewRecorder wraps doc.
func NewRecorder(doc *dom.Document) *Recorder {
	return &Recorder{
		doc:   doc,
		ids:   make(map[*html.Node]string),
		nodes: make(map[string]*html.Node),
	}
}

// Document returns the wrapped document.
func (r *Recorder) Document() *dom.Document {
	return r.doc
}

// Drain returns the operations recorded since the last call.
func (r *Recorder) Drain() []Op {
	ops := r.ops
	r.ops = nil
	return ops
}

// Total returns the number of operations recorded since creation.
func (r *Recorder) Total() uint64 {
	return r.total
}

// Lookup returns the node with the given ID. An ID of the form "#name"
// matches the element whose id attribute is name.
func (r *Recorder) Lookup(id string) (dom.Node, bool) {
	if len(id) > 1 && id[0] == '#' {
		if n := r.doc.GetElementByID(id[1:]); n != nil {
			return n, true
		}
		return nil, false
	}
	n, ok := r.nodes[id]
	if !ok {
		return nil, false
	}
	return n, true
}

// ID returns the ID of n, assigning one if needed.
func (r *Recorder) ID(n dom.Node) string {
	if n == nil {
		return ""
	}
	el := n.(*html.Node)
	if id, ok := r.ids[el]; ok {
		return id
	}
	r.next++
	id := fmt.Sprintf("n%d", r.next)
	r.ids[el] = id
	r.nodes[id] = el
	return id
}

func (r *Recorder) record(op Op) {
	r.ops = append(r.ops, op)
	r.total++
}

func (r *Recorder) CreateElement(tag string) dom.Node {
	n := r.doc.CreateElement(tag)
	r.record(Op{Kind: OpCreateElement, Node: r.ID(n), Name: tag})
	return n
}

func (r *Recorder) CreateText(text string) dom.Node {
	n := r.doc.CreateText(text)
	r.record(Op{Kind: OpCreateText, Node: r.ID(n), Value: text})
	return n
}

func (r *Recorder) CreateComment(text string) dom.Node {
	n := r.doc.CreateComment(text)
	r.record(Op{Kind: OpCreateComment, Node: r.ID(n), Value: text})
	return n
}

// ParseStatic is not recorded: parsed nodes are templates that only enter the
// tree through Clone.
func (r *Recorder) ParseStatic(markup string) (dom.Node, error) {
	return r.doc.ParseStatic(markup)
}

func (r *Recorder) Clone(n dom.Node) dom.Node {
	c := r.doc.Clone(n)
	r.record(Op{Kind: OpClone, Node: r.ID(c), Value: dom.OuterHTML(c)})
	return c
}

func (r *Recorder) SetAttribute(n dom.Node, name, value string) {
	r.doc.SetAttribute(n, name, value)
	r.record(Op{Kind: OpSetAttr, Node: r.ID(n), Name: name, Value: value})
}

func (r *Recorder) RemoveAttribute(n dom.Node, name string) {
	r.doc.RemoveAttribute(n, name)
	r.record(Op{Kind: OpRemoveAttr, Node: r.ID(n), Name: name})
}

func (r *Recorder) SetListener(n dom.Node, event string, l dom.Listener) {
	r.doc.SetListener(n, event, l)
	kind := OpSetListener
	if l == nil {
		kind = OpRemoveListener
	}
	r.record(Op{Kind: kind, Node: r.ID(n), Name: event})
}

func (r *Recorder) SetText(n dom.Node, text string) {
	r.doc.SetText(n, text)
	r.record(Op{Kind: OpSetText, Node: r.ID(n), Value: text})
}

func (r *Recorder) Insert(parent, child, anchor dom.Node) {
	r.doc.Insert(parent, child, anchor)
	r.record(Op{Kind: OpInsert, Node: r.ID(child), Parent: r.ID(parent), Anchor: r.ID(anchor)})
}

func (r *Recorder) Remove(n dom.Node) {
	id := r.ID(n)
	r.doc.Remove(n)
	r.record(Op{Kind: OpRemove, Node: id})
	r.forget(n.(*html.Node))
}

func (r *Recorder) Parent(n dom.Node) dom.Node {
	return r.doc.Parent(n)
}

func (r *Recorder) NextSibling(n dom.Node) dom.Node {
	return r.doc.NextSibling(n)
}

func (r *Recorder) forget(n *html.Node) {
	if id, ok := r.ids[n]; ok {
		delete(r.ids, n)
		delete(r.nodes, id)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.forget(c)
	}
}
