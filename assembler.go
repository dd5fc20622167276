package dompdf

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
)

// assembler owns the in-progress document of one conversion.
type assembler struct {
	rasterizer Rasterizer
	writer     Writer
	logger     *log.Logger
	opts       ConversionOptions
	warn       func(Warning)
	pages      []Page
}

// settle waits for in-flight rendering inside the target before the first
// capture: the grace period (or a single scheduler yield), then the explicit
// ready signal if one is configured.
func settle(ctx context.Context, opts ConversionOptions) error {
	if opts.ReadyDelay > 0 {
		t := time.NewTimer(opts.ReadyDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	} else {
		runtime.Gosched()
	}
	if opts.Ready != nil {
		if err := opts.Ready(ctx); err != nil {
			return fmt.Errorf("dompdf: waiting for content: %w", err)
		}
	}
	return ctx.Err()
}

// captureAll walks the children of target in document order and adds one
// page per successfully captured child.
func (a *assembler) captureAll(ctx context.Context, target Element) error {
	children, err := target.Children(ctx)
	if err != nil {
		return fmt.Errorf("dompdf: listing children: %w", err)
	}
	a.logger.Debug("capturing children", "count", len(children))

	for i, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.capture(ctx, i, child); err != nil {
			return err
		}
	}
	return nil
}

// capture handles a single child. Unsupported nodes and failed captures are
// reported as warnings; only an abort policy or a broken writer stops the
// conversion.
func (a *assembler) capture(ctx context.Context, index int, child Node) error {
	name := child.Name()
	if !child.Kind().capturable() {
		a.warn(Warning{
			Kind:  WarnUnsupportedNode,
			Index: index,
			Node:  name,
			Err:   fmt.Errorf("%w: %s", ErrUnsupportedNode, child.Kind()),
		})
		return nil
	}

	raster, err := a.rasterize(ctx, child)
	if err != nil {
		if a.opts.OnCaptureFailure == AbortOnFailure {
			return fmt.Errorf("%w: child %d (%s): %w", ErrCaptureFailed, index, name, err)
		}
		a.warn(Warning{Kind: WarnCaptureFailed, Index: index, Node: name, Err: err})
		return nil
	}

	page := Page{
		Index:        len(a.pages),
		Source:       index,
		Node:         name,
		RasterWidth:  raster.Width,
		RasterHeight: raster.Height,
		Scale:        raster.Scale,
		Image:        ImagePlacement(),
	}
	a.writer.AddPage()
	r := page.Image
	if err := a.writer.AddImage(raster.Data, raster.Format, r.X, r.Y, r.Width, r.Height); err != nil {
		return err
	}
	a.pages = append(a.pages, page)

	level := log.DebugLevel
	if a.opts.Capture.Logging {
		level = log.InfoLevel
	}
	a.logger.Log(level, "captured page", "page", page.Index+1, "child", index, "node", name,
		"width", raster.Width, "height", raster.Height, "scale", raster.Scale)
	return nil
}

// rasterize runs the rasterizer with the merged capture settings and
// validates its output.
func (a *assembler) rasterize(ctx context.Context, child Node) (*PageRaster, error) {
	settings, err := captureSettings(a.opts)
	if err != nil {
		return nil, err
	}
	raster, err := a.rasterizer.Rasterize(ctx, child, settings)
	if err != nil {
		return nil, err
	}
	if err := raster.usable(); err != nil {
		return nil, err
	}
	if raster.Scale == 0 {
		raster.Scale = settings.Scale
	}
	return raster, nil
}

// finish serializes the document.
func (a *assembler) finish(id string) (*Document, error) {
	var buf bytes.Buffer
	if err := a.writer.Output(&buf); err != nil {
		return nil, err
	}
	return &Document{id: id, pages: a.pages, data: buf.Bytes()}, nil
}
