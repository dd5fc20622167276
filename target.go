package dompdf

import (
	"context"
	"sync"
)

// TargetRef is a stable handle to the container element whose children
// become pages. The zero value is an empty handle; attach an element before
// converting. It is safe for concurrent use.
type TargetRef struct {
	mu      sync.RWMutex
	current Element
}

// NewTargetRef returns a handle attached to el, which may be nil.
func NewTargetRef(el Element) *TargetRef {
	return &TargetRef{current: el}
}

// Attach points the handle at el. Passing nil detaches it.
func (r *TargetRef) Attach(el Element) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = el
}

// Current returns the attached element, or nil.
func (r *TargetRef) Current() Element {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// FinderFunc produces the target element on demand. Returning a nil element
// and a nil error means no target is available.
type FinderFunc func(ctx context.Context) (Element, error)

// TargetFinder locates the target element at conversion time. It holds
// either a [TargetRef] or a [FinderFunc]; build one with [FromRef] or
// [FromFunc]. The zero value finds nothing.
type TargetFinder struct {
	ref *TargetRef
	fn  FinderFunc
}

// FromRef returns a finder that dereferences ref.
func FromRef(ref *TargetRef) TargetFinder {
	return TargetFinder{ref: ref}
}

// FromFunc returns a finder that invokes fn.
func FromFunc(fn FinderFunc) TargetFinder {
	return TargetFinder{fn: fn}
}

// FromElement returns a finder for an element that is already known.
func FromElement(el Element) TargetFinder {
	return FromRef(NewTargetRef(el))
}

// resolve returns the target element, or nil when there is none. Only the
// producer case can fail.
func (f TargetFinder) resolve(ctx context.Context) (Element, error) {
	if f.fn != nil {
		return f.fn(ctx)
	}
	return f.ref.Current(), nil
}
