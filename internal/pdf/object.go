// Package pdf reads back the structure of PDF files: the page tree, page
// dimensions and the images each page draws. It understands classic
// cross-reference tables and Flate-compressed content streams, which covers
// the documents this module writes.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies the type of a PDF object.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Real
	String
	Name
	Array
	Dictionary
	Stream
	Ref
)

// Object holds any PDF object value.
type Object struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Real   float64
	Str    []byte
	Name   string
	Array  []*Object
	Dict   Dict
	Stream []byte // raw, still encoded
	Ref    Reference
}

var null = &Object{Kind: Null}

// Number returns the numeric value of an integer or real object.
func (o *Object) Number() (float64, bool) {
	if o == nil {
		return 0, false
	}
	switch o.Kind {
	case Int:
		return float64(o.Int), true
	case Real:
		return o.Real, true
	}
	return 0, false
}

// Reference is an indirect object reference (N G R).
type Reference struct {
	Number int
	Gen    int
}

// Dict is a PDF dictionary (name -> object).
type Dict map[string]*Object

// Int returns the integer value of a Dict entry.
func (d Dict) Int(key string) (int64, bool) {
	obj, ok := d[key]
	if !ok {
		return 0, false
	}
	n, ok := obj.Number()
	return int64(n), ok
}

// Name returns the name value of a Dict entry.
func (d Dict) Name(key string) (string, bool) {
	obj, ok := d[key]
	if !ok || obj.Kind != Name {
		return "", false
	}
	return obj.Name, true
}

const maxNesting = 100

// parser is a recursive-descent PDF object parser.
type parser struct {
	data  []byte
	pos   int
	depth int
}

func newParser(data []byte, pos int) *parser {
	return &parser{data: data, pos: pos}
}

// skipSpace skips whitespace and comments.
func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		case isSpace(c):
			p.pos++
		default:
			return
		}
	}
}

// match advances past s if the upcoming bytes equal it.
func (p *parser) match(s string) bool {
	if bytes.HasPrefix(p.data[p.pos:], []byte(s)) {
		p.pos += len(s)
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// token reads a run of regular characters.
func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.data) && !isSpace(p.data[p.pos]) && !isDelim(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// object parses one PDF object at the current position.
func (p *parser) object() (*Object, error) {
	if p.depth > maxNesting {
		return nil, fmt.Errorf("exceeded maximum nesting depth")
	}
	p.depth++
	defer func() { p.depth-- }()

	p.skipSpace()
	if p.pos >= len(p.data) {
		return null, nil
	}

	c := p.data[p.pos]
	switch {
	case p.match("null"):
		return null, nil
	case p.match("true"):
		return &Object{Kind: Bool, Bool: true}, nil
	case p.match("false"):
		return &Object{Kind: Bool}, nil
	case c == '(':
		return p.literal(), nil
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.dict()
	case c == '<':
		return p.hex(), nil
	case c == '/':
		return p.name(), nil
	case c == '[':
		return p.array()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.numberOrRef(), nil
	default:
		p.token()
		if p.pos < len(p.data) && p.data[p.pos] == c {
			p.pos++
		}
		return null, nil
	}
}

// literal parses a (string). Escapes are kept verbatim except for the
// delimiters themselves; only structure matters here.
func (p *parser) literal() *Object {
	p.pos++
	var buf bytes.Buffer
	for depth := 1; p.pos < len(p.data); p.pos++ {
		c := p.data[p.pos]
		if c == '\\' && p.pos+1 < len(p.data) {
			p.pos++
			buf.WriteByte(p.data[p.pos])
			continue
		}
		if c == '(' {
			depth++
		}
		if c == ')' {
			depth--
			if depth == 0 {
				p.pos++
				break
			}
		}
		buf.WriteByte(c)
	}
	return &Object{Kind: String, Str: buf.Bytes()}
}

// hex parses a <hex string>.
func (p *parser) hex() *Object {
	p.pos++
	var raw []byte
	if end := bytes.IndexByte(p.data[p.pos:], '>'); end >= 0 {
		raw = p.data[p.pos : p.pos+end]
		p.pos += end + 1
	} else {
		raw = p.data[p.pos:]
		p.pos = len(p.data)
	}

	var buf bytes.Buffer
	var hi byte
	half := false
	for _, b := range raw {
		v, ok := hexVal(b)
		if !ok {
			continue
		}
		if half {
			buf.WriteByte(hi<<4 | v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		buf.WriteByte(hi << 4)
	}
	return &Object{Kind: String, Str: buf.Bytes()}
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}

// name parses /Name, decoding #XX escapes.
func (p *parser) name() *Object {
	p.pos++
	raw := p.token()
	if !bytes.ContainsRune([]byte(raw), '#') {
		return &Object{Kind: Name, Name: raw}
	}
	var buf bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			hi, ok1 := hexVal(raw[i+1])
			lo, ok2 := hexVal(raw[i+2])
			if ok1 && ok2 {
				buf.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		buf.WriteByte(raw[i])
	}
	return &Object{Kind: Name, Name: buf.String()}
}

func (p *parser) array() (*Object, error) {
	p.pos++
	var arr []*Object
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			break
		}
		if p.data[p.pos] == ']' {
			p.pos++
			break
		}
		obj, err := p.object()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
	return &Object{Kind: Array, Array: arr}, nil
}

// dict parses <<...>> and a following stream, if any. Streams whose
// /Length is an indirect reference are cut at "endstream".
func (p *parser) dict() (*Object, error) {
	p.pos += 2
	d := make(Dict)
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			break
		}
		if p.match(">>") {
			break
		}
		if p.data[p.pos] != '/' {
			p.pos++
			continue
		}
		key := p.name()
		val, err := p.object()
		if err != nil {
			return nil, err
		}
		d[key.Name] = val
	}

	p.skipSpace()
	if !p.match("stream") {
		return &Object{Kind: Dictionary, Dict: d}, nil
	}
	p.match("\r")
	p.match("\n")

	start := p.pos
	length := -1
	if n, ok := d["Length"]; ok && n.Kind == Int {
		length = int(n.Int)
	}
	if length < 0 || start+length > len(p.data) {
		length = bytes.Index(p.data[start:], []byte("endstream"))
		if length < 0 {
			length = len(p.data) - start
		}
	}
	p.pos = start + length
	p.skipSpace()
	p.match("endstream")
	return &Object{Kind: Stream, Dict: d, Stream: p.data[start : start+length]}, nil
}

// numberOrRef parses a number or an indirect reference (N G R).
func (p *parser) numberOrRef() *Object {
	tok := p.token()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return null
		}
		return &Object{Kind: Real, Real: f}
	}

	save := p.pos
	p.skipSpace()
	if g, err := strconv.ParseInt(p.token(), 10, 64); err == nil {
		p.skipSpace()
		if p.match("R") {
			return &Object{Kind: Ref, Ref: Reference{Number: int(n), Gen: int(g)}}
		}
	}
	p.pos = save
	return &Object{Kind: Int, Int: n}
}
