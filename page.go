package dompdf

// PageSize represents paper dimensions in millimetres.
type PageSize struct {
	Width  float64 // Width in millimetres.
	Height float64 // Height in millimetres.
}

var a4 = PageSize{Width: 210, Height: 297}

// A4 returns the only page size produced: every page is A4 portrait.
func A4() PageSize { return a4 }

// Rect is a placement rectangle in millimetres, origin at the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

var imagePlacement = Rect{X: 0, Y: 0, Width: 180, Height: 180}

// ImagePlacement returns where every raster is drawn on its page. The size
// is fixed and does not follow the aspect ratio of the captured bitmap.
func ImagePlacement() Rect { return imagePlacement }

const pointsPerInch = 72.0

// mmToPoints converts millimetres to PDF points.
func mmToPoints(mm float64) float64 {
	return mm / 25.4 * pointsPerInch
}

// points returns the page size in PDF points.
func (s PageSize) points() (width, height float64) {
	return mmToPoints(s.Width), mmToPoints(s.Height)
}

// Page describes one page of a [Document].
type Page struct {
	// Index is the zero-based page number.
	Index int

	// Source is the 0-based position of the captured child in the list
	// returned by [Element.Children] for the target.
	Source int

	// Node is the DOM name of the captured child.
	Node string

	// Pixel size of the raster and the scale it was captured at.
	RasterWidth  int
	RasterHeight int
	Scale        float64

	// Image is where the raster was drawn, in millimetres.
	Image Rect
}
