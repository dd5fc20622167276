package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxDecompressedSize bounds the memory a single stream may inflate to.
const maxDecompressedSize = 256 * 1024 * 1024

type xrefEntry struct {
	offset int64
	inUse  bool
}

// Document is a parsed PDF file.
type Document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer Dict
	cache   map[int]*Object
}

// Open reads a PDF file from disk.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Load(data)
}

// Load parses a PDF from raw bytes.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("not a PDF file")
	}
	doc := &Document{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]*Object),
	}
	offset, err := doc.startXRef()
	if err != nil {
		return nil, err
	}
	if err := doc.loadXRef(offset, 0); err != nil {
		return nil, fmt.Errorf("loading xref: %w", err)
	}
	return doc, nil
}

// Version returns the PDF version from the header, e.g. "1.3".
func (doc *Document) Version() string {
	line := doc.data[5:]
	if end := bytes.IndexAny(line, "\r\n"); end >= 0 {
		line = line[:end]
	}
	return strings.TrimSpace(string(line))
}

// startXRef locates the offset recorded after the last "startxref".
func (doc *Document) startXRef() (int64, error) {
	from := max(len(doc.data)-1024, 0)
	idx := bytes.LastIndex(doc.data[from:], []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	p := newParser(doc.data, from+idx+len("startxref"))
	p.skipSpace()
	offset, err := strconv.ParseInt(p.token(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing startxref: %w", err)
	}
	return offset, nil
}

// loadXRef reads the cross-reference table at offset and follows /Prev.
// Entries from newer sections, read first, take precedence.
func (doc *Document) loadXRef(offset int64, depth int) error {
	if depth > 32 {
		return fmt.Errorf("too many xref sections")
	}
	if offset < 0 || int(offset) >= len(doc.data) {
		return fmt.Errorf("xref offset out of bounds: %d", offset)
	}
	p := newParser(doc.data, int(offset))
	p.skipSpace()
	if !p.match("xref") {
		return fmt.Errorf("cross-reference streams are not supported")
	}

	for {
		p.skipSpace()
		if p.match("trailer") {
			break
		}
		first, err1 := strconv.Atoi(p.token())
		p.skipSpace()
		count, err2 := strconv.Atoi(p.token())
		if err1 != nil || err2 != nil {
			return fmt.Errorf("malformed xref subsection at %d", p.pos)
		}
		for i := 0; i < count; i++ {
			p.skipSpace()
			off, _ := strconv.ParseInt(p.token(), 10, 64)
			p.skipSpace()
			p.token() // generation
			p.skipSpace()
			kind := p.token()
			if _, seen := doc.xref[first+i]; !seen {
				doc.xref[first+i] = xrefEntry{offset: off, inUse: kind == "n"}
			}
		}
	}

	trailer, err := p.object()
	if err != nil {
		return fmt.Errorf("parsing trailer: %w", err)
	}
	if trailer.Kind != Dictionary {
		return fmt.Errorf("trailer is not a dictionary")
	}
	if doc.trailer == nil {
		doc.trailer = trailer.Dict
	}
	if prev, ok := trailer.Dict.Int("Prev"); ok && prev > 0 {
		return doc.loadXRef(prev, depth+1)
	}
	return nil
}

// Resolve returns obj, following an indirect reference if it is one.
// Dangling references resolve to null.
func (doc *Document) Resolve(obj *Object) *Object {
	if obj == nil {
		return null
	}
	if obj.Kind != Ref {
		return obj
	}
	if cached, ok := doc.cache[obj.Ref.Number]; ok {
		return cached
	}
	entry, ok := doc.xref[obj.Ref.Number]
	if !ok || !entry.inUse || entry.offset < 0 || int(entry.offset) >= len(doc.data) {
		return null
	}

	// Guard against reference cycles while parsing.
	doc.cache[obj.Ref.Number] = null
	p := newParser(doc.data, int(entry.offset))
	p.token() // object number
	p.skipSpace()
	p.token() // generation
	p.skipSpace()
	if !p.match("obj") {
		return null
	}
	resolved, err := p.object()
	if err != nil {
		return null
	}
	doc.cache[obj.Ref.Number] = resolved
	return resolved
}

func (doc *Document) dict(obj *Object) Dict {
	o := doc.Resolve(obj)
	if o.Kind == Dictionary || o.Kind == Stream {
		return o.Dict
	}
	return nil
}

// Pages returns all page dictionaries in order. Inheritable attributes
// (MediaBox, Resources, Rotate) are copied down from the page tree.
func (doc *Document) Pages() ([]Dict, error) {
	root := doc.dict(doc.trailer["Root"])
	if root == nil {
		return nil, fmt.Errorf("no document catalog")
	}
	tree := doc.dict(root["Pages"])
	if tree == nil {
		return nil, fmt.Errorf("no page tree")
	}
	var pages []Dict
	doc.collect(tree, Dict{}, &pages, 0)
	return pages, nil
}

var inheritable = []string{"MediaBox", "Resources", "Rotate"}

func (doc *Document) collect(node, inherited Dict, pages *[]Dict, depth int) {
	if depth > maxNesting {
		return
	}
	attrs := Dict{}
	for _, k := range inheritable {
		if v, ok := node[k]; ok {
			attrs[k] = v
		} else if v, ok := inherited[k]; ok {
			attrs[k] = v
		}
	}

	if t, _ := node.Name("Type"); t == "Page" {
		page := make(Dict, len(node)+len(attrs))
		for k, v := range attrs {
			page[k] = v
		}
		for k, v := range node {
			page[k] = v
		}
		*pages = append(*pages, page)
		return
	}
	kids := doc.Resolve(node["Kids"])
	if kids.Kind != Array {
		return
	}
	for _, kid := range kids.Array {
		if d := doc.dict(kid); d != nil {
			doc.collect(d, attrs, pages, depth+1)
		}
	}
}

// Content returns the decoded content streams of a page, concatenated.
func (doc *Document) Content(page Dict) ([]byte, error) {
	contents := doc.Resolve(page["Contents"])
	streams := []*Object{contents}
	if contents.Kind == Array {
		streams = contents.Array
	}
	var out []byte
	for _, s := range streams {
		obj := doc.Resolve(s)
		if obj.Kind != Stream {
			continue
		}
		data, err := decode(obj.Dict, obj.Stream)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// decode applies the stream filter. Only FlateDecode without predictors
// is supported.
func decode(d Dict, data []byte) ([]byte, error) {
	filter, ok := d["Filter"]
	if !ok {
		return data, nil
	}
	name := filter.Name
	if filter.Kind == Array && len(filter.Array) == 1 {
		name = filter.Array[0].Name
	}
	if name != "FlateDecode" && name != "Fl" {
		return nil, fmt.Errorf("unsupported stream filter %q", name)
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("zlib read: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed size exceeds 256 MB limit")
	}
	return out, nil
}
