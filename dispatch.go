package dompdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Environment is the host side of the output sinks.
type Environment interface {
	// Open shows the document in a new viewing context. A refusal is
	// reported as a warning, never as a failed conversion.
	Open(ctx context.Context, doc *Document) error

	// Save persists the document under filename and returns once the data
	// is stored.
	Save(ctx context.Context, doc *Document, filename string) error
}

// DirEnvironment saves documents into a directory. It cannot open
// documents; use a [Session] for that.
type DirEnvironment struct {
	// Dir is the output directory, created on first save. Empty means the
	// current working directory.
	Dir string

	// Perm is the file mode of saved documents. Zero means 0o644.
	Perm os.FileMode
}

var _ Environment = DirEnvironment{}

// Open always fails with [ErrOpenUnsupported].
func (e DirEnvironment) Open(context.Context, *Document) error {
	return ErrOpenUnsupported
}

// Save writes the document to Dir/filename, creating missing directories.
// An absolute filename is used as is. A relative filename must stay inside
// Dir; names that climb out of it are rejected with [ErrUnsafeFilename].
func (e DirEnvironment) Save(ctx context.Context, doc *Document, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Clean(filename)
	if !filepath.IsAbs(path) {
		if !filepath.IsLocal(path) {
			return fmt.Errorf("%w: %q", ErrUnsafeFilename, filename)
		}
		path = filepath.Join(e.Dir, path)
	}
	perm := e.Perm
	if perm == 0 {
		perm = 0o644
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return doc.WriteToFile(path, perm)
}

// defaultFilename derives a document name from the current time in
// milliseconds since the Unix epoch.
func defaultFilename(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + ".pdf"
}

// dispatch hands the finished document to the sink selected by method.
// Only a failed save is returned as an error.
func (p *Pipeline) dispatch(ctx context.Context, doc *Document, opts ConversionOptions, warn func(Warning)) error {
	method := opts.Method.sink()
	if method == MethodBuild {
		if opts.Filename != "" {
			doc.filename = opts.Filename
		}
		return nil
	}

	doc.filename = opts.Filename
	if doc.filename == "" {
		doc.filename = defaultFilename(p.now())
	}

	switch method {
	case MethodOpen:
		if err := p.environment().Open(ctx, doc); err != nil {
			warn(Warning{Kind: WarnOpenFailed, Index: -1, Err: err})
		}
		return nil
	default:
		if err := p.environment().Save(ctx, doc, doc.filename); err != nil {
			return fmt.Errorf("%w %q: %w", ErrSave, doc.filename, err)
		}
		return nil
	}
}
