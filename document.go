package dompdf

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"slices"
)

// Document is the PDF produced by one conversion: an ordered list of pages,
// one per captured child, and the encoded file.
//
// A Document is immutable once returned. It is safe to call its methods
// multiple times; the underlying data is never modified.
type Document struct {
	id       string
	filename string
	pages    []Page
	data     []byte
}

// ID returns the identifier of the conversion that produced the document.
// It also appears in the log lines of that conversion.
func (d *Document) ID() string {
	return d.id
}

// Filename returns the name the document was opened or saved under. It is
// empty for documents returned by [MethodBuild] without an explicit filename.
func (d *Document) Filename() string {
	return d.filename
}

// Pages returns the pages in order.
func (d *Document) Pages() []Page {
	return slices.Clone(d.pages)
}

// PageCount returns the number of captured pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Bytes returns the raw PDF content.
func (d *Document) Bytes() []byte {
	return d.data
}

// Base64 returns the PDF encoded as a standard base64 string (RFC 4648).
func (d *Document) Base64() string {
	return base64.StdEncoding.EncodeToString(d.data)
}

// Reader returns an [*bytes.Reader] over the PDF content.
func (d *Document) Reader() *bytes.Reader {
	return bytes.NewReader(d.data)
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.data)
	return int64(n), err
}

// WriteToFile writes the PDF to the file at path, creating it if needed.
func (d *Document) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, d.data, perm)
}

// Len returns the size of the PDF in bytes.
func (d *Document) Len() int {
	return len(d.data)
}

// Result is the outcome of one conversion.
type Result struct {
	// Document is nil when no target element could be resolved.
	Document *Document

	// Warnings lists every non-fatal condition met, in order.
	Warnings Warnings
}
