package dompdf

import (
	"bytes"
	"fmt"
	"io"
	"maps"

	"codeberg.org/go-pdf/fpdf"
)

// Writer is the document-writer capability: it accumulates pages and
// encodes them as a PDF.
type Writer interface {
	// AddPage starts a new page; subsequent images are drawn on it.
	AddPage()
	// AddImage draws an encoded image on the current page, in writer units.
	AddImage(data []byte, format ImageFormat, x, y, w, h float64) error
	// PageCount returns the number of pages added so far.
	PageCount() int
	// Output writes the encoded document to w.
	Output(w io.Writer) error
}

// WriterFactory creates an empty [Writer] for one conversion.
type WriterFactory func(settings WriterSettings) (Writer, error)

// WriterSettings configure the document writer. They are computed from the
// writer overrides of [ConversionOptions].
type WriterSettings struct {
	// Unit of the placement coordinates: "mm" (default), "pt", "cm" or "in".
	Unit     string `json:"unit"`
	Compress bool   `json:"compress"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Creator  string `json:"creator"`
	Keywords string `json:"keywords"`

	// Raw is the merged settings map, including keys this package does not
	// interpret.
	Raw map[string]any `json:"-"`
}

func writerSettings(opts ConversionOptions) (WriterSettings, error) {
	merged := map[string]any{
		"unit":     "mm",
		"compress": true,
		"creator":  "dompdf",
	}
	maps.Copy(merged, opts.Overrides.Writer)

	var s WriterSettings
	if err := decodeSettings(merged, &s); err != nil {
		return WriterSettings{}, fmt.Errorf("%w: writer: %v", ErrInvalidOverride, err)
	}
	switch s.Unit {
	case "mm", "pt", "cm", "in":
	default:
		return WriterSettings{}, fmt.Errorf("%w: writer: unsupported unit %q", ErrInvalidOverride, s.Unit)
	}
	s.Raw = merged
	return s, nil
}

// fpdfWriter implements Writer on top of fpdf.
type fpdfWriter struct {
	pdf    *fpdf.Fpdf
	images int
}

var _ Writer = (*fpdfWriter)(nil)

// NewFPDFWriter returns an empty A4 portrait [Writer] backed by fpdf. It is
// the default [WriterFactory].
func NewFPDFWriter(settings WriterSettings) (Writer, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        settings.Unit,
		SizeStr:        "A4",
	})
	pdf.SetCompression(settings.Compress)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if settings.Title != "" {
		pdf.SetTitle(settings.Title, true)
	}
	if settings.Author != "" {
		pdf.SetAuthor(settings.Author, true)
	}
	if settings.Subject != "" {
		pdf.SetSubject(settings.Subject, true)
	}
	if settings.Creator != "" {
		pdf.SetCreator(settings.Creator, true)
	}
	if settings.Keywords != "" {
		pdf.SetKeywords(settings.Keywords, true)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("dompdf: creating document: %w", err)
	}
	return &fpdfWriter{pdf: pdf}, nil
}

func (w *fpdfWriter) AddPage() {
	w.pdf.AddPage()
}

func (w *fpdfWriter) AddImage(data []byte, format ImageFormat, x, y, width, height float64) error {
	w.images++
	name := fmt.Sprintf("page-%d", w.images)
	opts := fpdf.ImageOptions{ImageType: format.fpdfType()}

	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	w.pdf.ImageOptions(name, x, y, width, height, false, opts, 0, "")
	if err := w.pdf.Error(); err != nil {
		return fmt.Errorf("dompdf: embedding image: %w", err)
	}
	return nil
}

func (w *fpdfWriter) PageCount() int {
	return w.pdf.PageCount()
}

func (w *fpdfWriter) Output(out io.Writer) error {
	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("dompdf: encoding document: %w", err)
	}
	return nil
}
