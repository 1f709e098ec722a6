// Package dom defines the host-operations boundary used by the renderer and
// provides Document, an in-memory host backed by golang.org/x/net/html.
package dom

// Node is an opaque host node. Document uses *html.Node.
type Node any

// Event is delivered to listeners registered with Host.SetListener.
type Event struct {
	// Type is the event name without the "on" prefix, e.g. "click".
	Type string

	// Target is the node the event was dispatched to.
	Target Node

	// Data carries event payload such as input values.
	Data map[string]any

	stopped bool
}

// StopPropagation prevents the event from reaching ancestor listeners.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Listener handles a dispatched event.
type Listener func(*Event)

// Host is the set of primitive node operations the renderer needs. All calls
// happen on the render goroutine.
type Host interface {
	CreateElement(tag string) Node
	CreateText(text string) Node
	CreateComment(text string) Node

	// ParseStatic parses serialized markup of a single element.
	ParseStatic(markup string) (Node, error)

	// Clone returns a deep copy of n without listeners.
	Clone(n Node) Node

	SetAttribute(n Node, name, value string)
	RemoveAttribute(n Node, name string)

	// SetListener replaces the listener for event on n. A nil listener
	// removes it.
	SetListener(n Node, event string, l Listener)

	// SetText replaces the content of a text or comment node.
	SetText(n Node, text string)

	// Insert places child under parent before anchor, detaching it from its
	// current parent first. A nil anchor appends.
	Insert(parent, child, anchor Node)

	// Remove detaches n from its parent.
	Remove(n Node)

	Parent(n Node) Node
	NextSibling(n Node) Node
}
