package dompdf

import "context"

// NodeKind classifies a child of the target element.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindElement
	KindText
	KindComment
)

// String returns a short lowercase name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	default:
		return "other"
	}
}

// capturable reports whether nodes of this kind become pages.
func (k NodeKind) capturable() bool {
	return k == KindElement || k == KindText
}

// Node is one node of a rendered document tree.
type Node interface {
	// Kind classifies the node.
	Kind() NodeKind
	// Name is the node name as reported by the DOM, e.g. "DIV" or "#text".
	Name() string
}

// Element is a node whose direct children can be listed.
type Element interface {
	Node
	// Children returns the direct children in document order. Positions in
	// this list are the child indexes reported in pages and warnings, so an
	// implementation that leaves nodes out shifts them.
	Children(ctx context.Context) ([]Node, error)
}
