package dompdf

import "errors"

// Sentinel errors returned by the library.
var (
	// ErrClosed is returned when attempting to use a closed [Converter] or [Session].
	ErrClosed = errors.New("dompdf: converter is closed")

	// ErrCaptureFailed is returned when a child could not be rasterized and
	// the conversion runs with [AbortOnFailure]. With [SkipPage] the same
	// condition is reported as a [WarnCaptureFailed] warning instead.
	ErrCaptureFailed = errors.New("dompdf: capture failed")

	// ErrNoImage is reported when the rasterizer returned no usable bitmap.
	ErrNoImage = errors.New("dompdf: rasterizer produced no image")

	// ErrSave wraps failures of the save sink.
	ErrSave = errors.New("dompdf: saving document")

	// ErrUnsafeFilename is returned when a relative save filename leaves the
	// output directory.
	ErrUnsafeFilename = errors.New("dompdf: filename escapes output directory")

	// ErrOpenUnsupported is returned by environments without a viewer.
	ErrOpenUnsupported = errors.New("dompdf: environment cannot open documents")

	// ErrInvalidOverride is returned when an override map cannot be decoded
	// into the settings it targets.
	ErrInvalidOverride = errors.New("dompdf: invalid override")

	// ErrUnsupportedNode is attached to warnings for children that are
	// neither element nor text nodes.
	ErrUnsupportedNode = errors.New("dompdf: unsupported node kind")
)
