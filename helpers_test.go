package dompdf

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
)

type fakeNode struct {
	kind NodeKind
	name string
}

func (n *fakeNode) Kind() NodeKind { return n.kind }
func (n *fakeNode) Name() string   { return n.name }

type fakeElement struct {
	fakeNode
	children []Node
	err      error
}

func (e *fakeElement) Children(context.Context) ([]Node, error) {
	return e.children, e.err
}

func elem(name string, children ...Node) *fakeElement {
	return &fakeElement{fakeNode: fakeNode{kind: KindElement, name: name}, children: children}
}

func textNode() *fakeNode         { return &fakeNode{kind: KindText, name: "#text"} }
func comment() *fakeNode          { return &fakeNode{kind: KindComment, name: "#comment"} }
func other(name string) *fakeNode { return &fakeNode{kind: KindOther, name: name} }

// testImage encodes a solid w×h bitmap.
func testImage(t *testing.T, format ImageFormat, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if format == FormatPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

// fakeRasterizer returns a JPEG for every node unless its name is listed in
// fail. It records the nodes and settings it was called with.
type fakeRasterizer struct {
	t     *testing.T
	fail  map[string]error
	empty map[string]bool

	mu       sync.Mutex
	nodes    []string
	settings []CaptureSettings
	before   func()
}

func newFakeRasterizer(t *testing.T) *fakeRasterizer {
	return &fakeRasterizer{t: t, fail: map[string]error{}, empty: map[string]bool{}}
}

func (r *fakeRasterizer) Rasterize(ctx context.Context, node Node, settings CaptureSettings) (*PageRaster, error) {
	r.mu.Lock()
	r.nodes = append(r.nodes, node.Name())
	r.settings = append(r.settings, settings)
	before := r.before
	r.mu.Unlock()
	if before != nil {
		before()
	}

	if err, ok := r.fail[node.Name()]; ok {
		return nil, err
	}
	if r.empty[node.Name()] {
		return nil, nil
	}
	return &PageRaster{Data: testImage(r.t, settings.Format, 40, 30), Format: settings.Format}, nil
}

func (r *fakeRasterizer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.nodes...)
}

// fakeEnv records open and save requests.
type fakeEnv struct {
	openErr error
	saveErr error

	opened []*Document
	saved  []string
}

func (e *fakeEnv) Open(_ context.Context, doc *Document) error {
	e.opened = append(e.opened, doc)
	return e.openErr
}

func (e *fakeEnv) Save(_ context.Context, _ *Document, filename string) error {
	e.saved = append(e.saved, filename)
	return e.saveErr
}

func (e *fakeEnv) calls() int { return len(e.opened) + len(e.saved) }

// countingWriters wraps the default writer factory and counts writers created.
type countingWriters struct {
	mu sync.Mutex
	n  int
}

func (c *countingWriters) factory(settings WriterSettings) (Writer, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return NewFPDFWriter(settings)
}

func (c *countingWriters) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
