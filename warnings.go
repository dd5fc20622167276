package dompdf

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal condition met during a conversion.
type WarningKind int

const (
	// WarnMissingTarget means the finder produced no element; no document
	// was built.
	WarnMissingTarget WarningKind = iota + 1
	// WarnUnsupportedNode means a child was neither an element nor a text
	// node and was skipped.
	WarnUnsupportedNode
	// WarnCaptureFailed means a child produced no usable raster and was skipped.
	WarnCaptureFailed
	// WarnOpenFailed means the environment refused to open the document.
	WarnOpenFailed
)

func (k WarningKind) String() string {
	switch k {
	case WarnMissingTarget:
		return "missing target"
	case WarnUnsupportedNode:
		return "unsupported node"
	case WarnCaptureFailed:
		return "capture failed"
	case WarnOpenFailed:
		return "open failed"
	default:
		return fmt.Sprintf("warning(%d)", int(k))
	}
}

// Warning is a structured diagnostic collected during a conversion.
type Warning struct {
	Kind WarningKind

	// Index is the position of the child in the list returned by
	// [Element.Children] for the target, or -1 when the warning is not about
	// a child.
	Index int

	// Node is the DOM name of the child, e.g. "#comment".
	Node string

	// Err carries the underlying cause, if any.
	Err error
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Kind.String())
	if w.Index >= 0 {
		fmt.Fprintf(&b, " at child %d", w.Index)
	}
	if w.Node != "" {
		fmt.Fprintf(&b, " (%s)", w.Node)
	}
	if w.Err != nil {
		b.WriteString(": ")
		b.WriteString(w.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause so warnings work with [errors.Is].
func (w Warning) Unwrap() error { return w.Err }

// Error makes a Warning usable as an error value.
func (w Warning) Error() string { return w.String() }

// Warnings is the ordered list of diagnostics of one conversion.
type Warnings []Warning

// Count returns the number of warnings of the given kind.
func (ws Warnings) Count(kind WarningKind) int {
	n := 0
	for _, w := range ws {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
