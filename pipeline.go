package dompdf

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Pipeline converts the children of a target element into a [Document]
// using pluggable capabilities. A Pipeline holds no per-conversion state and
// may run several conversions concurrently if its capabilities allow it.
type Pipeline struct {
	// Rasterizer captures one child per call. Required.
	Rasterizer Rasterizer

	// Environment receives documents for the open and save sinks. Nil means
	// a [DirEnvironment] writing into the working directory.
	Environment Environment

	// NewWriter creates the document writer. Nil means [NewFPDFWriter].
	NewWriter WriterFactory

	// Logger receives diagnostics. Nil discards them.
	Logger *log.Logger

	// Now is the clock used for default filenames. Nil means time.Now.
	Now func() time.Time
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.NewWithOptions(io.Discard, log.Options{})
}

// Generate runs one conversion.
//
// When the finder yields no element the result has a nil Document and a
// single [WarnMissingTarget] warning, and neither the rasterizer nor the
// writer is touched. Per-child problems are collected as warnings. Errors
// are returned for a failing finder, an unreadable target, an aborted
// capture under [AbortOnFailure], an encoding failure or a failed save.
func (p *Pipeline) Generate(ctx context.Context, finder TargetFinder, options *ConversionOptions) (*Result, error) {
	if p.Rasterizer == nil {
		return nil, errors.New("dompdf: pipeline has no rasterizer")
	}
	opts := options.resolved()
	id := uuid.NewString()
	logger := p.logger().With("conversion", id)
	res := &Result{}
	warn := func(w Warning) {
		res.Warnings = append(res.Warnings, w)
		logger.Warn(w.Kind.String(), "index", w.Index, "node", w.Node, "err", w.Err)
	}

	target, err := finder.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if target == nil {
		warn(Warning{Kind: WarnMissingTarget, Index: -1})
		return res, nil
	}

	if err := settle(ctx, opts); err != nil {
		return nil, err
	}

	settings, err := writerSettings(opts)
	if err != nil {
		return nil, err
	}
	newWriter := p.NewWriter
	if newWriter == nil {
		newWriter = NewFPDFWriter
	}
	w, err := newWriter(settings)
	if err != nil {
		return nil, err
	}

	a := &assembler{
		rasterizer: p.Rasterizer,
		writer:     w,
		logger:     logger,
		opts:       opts,
		warn:       warn,
	}
	if err := a.captureAll(ctx, target); err != nil {
		return nil, err
	}
	doc, err := a.finish(id)
	if err != nil {
		return nil, err
	}

	if err := p.dispatch(ctx, doc, opts, warn); err != nil {
		return nil, err
	}
	logger.Info("document ready", "pages", doc.PageCount(), "method", opts.Method.sink(),
		"filename", doc.Filename(), "warnings", len(res.Warnings))
	res.Document = doc
	return res, nil
}

func (p *Pipeline) environment() Environment {
	if p.Environment != nil {
		return p.Environment
	}
	return DirEnvironment{}
}

// PDFHandle pairs a stable target handle with a conversion trigger.
type PDFHandle struct {
	// TargetRef must be attached to the container element before ToPDF is
	// called.
	TargetRef *TargetRef

	// ToPDF converts the children of the attached element. The options given
	// when the handle was created take precedence; the options passed here
	// are only used when the handle was created with nil options.
	ToPDF func(ctx context.Context, options *ConversionOptions) (*Result, error)
}

// handleOptions picks the options of one ToPDF call.
func handleOptions(handle, call *ConversionOptions) *ConversionOptions {
	if handle != nil {
		return handle
	}
	return call
}

// UsePDF returns a handle whose ToPDF converts whatever element is attached
// to its TargetRef at call time.
func UsePDF(p *Pipeline, options *ConversionOptions) *PDFHandle {
	ref := &TargetRef{}
	return &PDFHandle{
		TargetRef: ref,
		ToPDF: func(ctx context.Context, callOptions *ConversionOptions) (*Result, error) {
			return p.Generate(ctx, FromRef(ref), handleOptions(options, callOptions))
		},
	}
}
