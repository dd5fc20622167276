package dompdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder for DecodeConfig
	_ "image/png"  // register decoder for DecodeConfig
	"maps"

	"github.com/go-json-experiment/json"
)

// ImageFormat is the encoding of a captured raster.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// fpdfType returns the image type name understood by the PDF writer.
func (f ImageFormat) fpdfType() string {
	if f == FormatPNG {
		return "PNG"
	}
	return "JPG"
}

// CaptureSettings are the settings handed to a [Rasterizer] for one child.
// They are computed from [ConversionOptions] and the rasterizer overrides.
type CaptureSettings struct {
	UseCORS bool        `json:"useCORS"`
	Logging bool        `json:"logging"`
	Scale   float64     `json:"scale"`
	Format  ImageFormat `json:"format"`
	Quality int         `json:"quality"`

	// Raw is the merged settings map, including keys this package does not
	// interpret, for rasterizers that understand more settings.
	Raw map[string]any `json:"-"`
}

// PageRaster is the bitmap captured for one child.
type PageRaster struct {
	Data   []byte
	Format ImageFormat

	// Width and Height in pixels. Zero values are filled in from Data.
	Width  int
	Height int

	// Scale is the resolution the raster was captured at.
	Scale float64
}

// Rasterizer turns one rendered node into a bitmap.
//
// Returning a nil raster with a nil error means the node produced no
// usable bitmap; the pipeline treats both that and an error as a capture
// failure for that child.
type Rasterizer interface {
	Rasterize(ctx context.Context, node Node, settings CaptureSettings) (*PageRaster, error)
}

// RasterizerFunc adapts a function to the [Rasterizer] interface.
type RasterizerFunc func(ctx context.Context, node Node, settings CaptureSettings) (*PageRaster, error)

// Rasterize calls f.
func (f RasterizerFunc) Rasterize(ctx context.Context, node Node, settings CaptureSettings) (*PageRaster, error) {
	return f(ctx, node, settings)
}

// captureSettings computes the settings for one capture: the capture flags
// and resolution, shallow-merged with the rasterizer overrides.
func captureSettings(opts ConversionOptions) (CaptureSettings, error) {
	merged := map[string]any{
		"useCORS": opts.Capture.UseCORS,
		"logging": opts.Capture.Logging,
		"scale":   opts.Resolution,
		"format":  string(FormatJPEG),
		"quality": opts.Quality,
	}
	maps.Copy(merged, opts.Overrides.Rasterizer)

	var s CaptureSettings
	if err := decodeSettings(merged, &s); err != nil {
		return CaptureSettings{}, fmt.Errorf("%w: rasterizer: %v", ErrInvalidOverride, err)
	}
	if s.Scale <= 0 {
		return CaptureSettings{}, fmt.Errorf("%w: rasterizer: scale must be positive, got %v", ErrInvalidOverride, s.Scale)
	}
	switch s.Format {
	case FormatJPEG, FormatPNG:
	default:
		return CaptureSettings{}, fmt.Errorf("%w: rasterizer: unsupported format %q", ErrInvalidOverride, s.Format)
	}
	s.Raw = merged
	return s, nil
}

// decodeSettings decodes a settings map into a typed struct. Unknown keys
// are ignored; they stay available to capabilities through the raw map.
func decodeSettings(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// usable validates a raster and fills in a missing format or missing
// dimensions from the encoded data. The data must decode as the declared
// format so that the writer never sees an image it cannot embed.
func (r *PageRaster) usable() error {
	if r == nil || len(r.Data) == 0 {
		return ErrNoImage
	}
	cfg, name, err := image.DecodeConfig(bytes.NewReader(r.Data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoImage, err)
	}
	decoded := ImageFormat(name)
	if decoded != FormatJPEG && decoded != FormatPNG {
		return fmt.Errorf("%w: unsupported format %q", ErrNoImage, name)
	}
	if r.Format == "" {
		r.Format = decoded
	}
	if r.Format != decoded {
		return fmt.Errorf("%w: declared %s, data is %s", ErrNoImage, r.Format, decoded)
	}
	if r.Width <= 0 || r.Height <= 0 {
		r.Width, r.Height = cfg.Width, cfg.Height
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: empty %dx%d bitmap", ErrNoImage, r.Width, r.Height)
	}
	return nil
}
