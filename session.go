package dompdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-json-experiment/json"
	"github.com/google/uuid"
)

// Remote object groups. Query results live in targetGroup for the life of
// the tab. Child handles and targets found by a Selector live in childGroup
// and are released after every conversion.
const (
	targetGroup = "dompdf-targets"
	childGroup  = "dompdf-children"
)

// Session is one loaded page in the browser of a [Converter]. It is the
// rendering environment of a conversion: it finds target elements,
// rasterizes their children, opens finished documents in a new tab and
// saves them into the converter's output directory.
//
// Conversions on one Session run one at a time.
type Session struct {
	conv      *Converter
	tabCtx    context.Context
	tabCancel context.CancelFunc
	pipeline  *Pipeline

	// convMu serializes conversions; mu guards the fields below it.
	convMu    sync.Mutex
	mu        sync.Mutex
	closed    bool
	tempFiles []string
	viewers   []context.CancelFunc
}

var _ Environment = (*Session)(nil)

func newSession(c *Converter, tabCtx context.Context, tabCancel context.CancelFunc) *Session {
	s := &Session{
		conv:      c,
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
	}
	s.pipeline = &Pipeline{
		Rasterizer:  &chromeRasterizer{s: s},
		Environment: s,
		Logger:      c.logger,
	}
	return s
}

// track registers a temporary file removed by Close.
func (s *Session) track(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		os.Remove(name)
		return ErrClosed
	}
	s.tempFiles = append(s.tempFiles, name)
	return nil
}

// Close closes the tab and any viewer tabs opened by the session and removes
// its temporary files. A conversion in progress fails. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, cancel := range s.viewers {
		cancel()
	}
	s.tabCancel()
	for _, name := range s.tempFiles {
		os.Remove(name)
	}
	return nil
}

// run executes actions on the session's tab. Cancelling ctx stops the
// actions without closing the tab.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Query returns the first element matching the CSS selector, or nil when
// nothing matches.
func (s *Session) Query(ctx context.Context, selector string) (Element, error) {
	return s.query(ctx, selector, targetGroup)
}

// query evaluates selector and keeps the result in the remote object group.
func (s *Session) query(ctx context.Context, selector, group string) (Element, error) {
	lit, err := json.Marshal(selector)
	if err != nil {
		return nil, fmt.Errorf("dompdf: encoding selector: %w", err)
	}
	expr := fmt.Sprintf("document.querySelector(%s)", lit)

	var el Element
	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expr).WithObjectGroup(group).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("querying %q: %s", selector, exc.Text)
		}
		if obj.ObjectID == "" {
			return nil
		}
		n, err := describe(ctx, s, obj.ObjectID)
		if err != nil {
			return err
		}
		el = n
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("dompdf: query %q: %w", selector, err)
	}
	return el, nil
}

// Selector returns a finder that queries selector at conversion time. The
// element it finds is only valid for that conversion.
func (s *Session) Selector(selector string) TargetFinder {
	return FromFunc(func(ctx context.Context) (Element, error) {
		return s.query(ctx, selector, childGroup)
	})
}

// Attach points ref at the first element matching selector. When nothing
// matches, ref is detached.
func (s *Session) Attach(ctx context.Context, ref *TargetRef, selector string) error {
	el, err := s.Query(ctx, selector)
	if err != nil {
		return err
	}
	ref.Attach(el)
	return nil
}

// WaitVisible returns a ready signal that waits until selector is visible.
// Use it as [ConversionOptions.Ready] for content that renders late.
func (s *Session) WaitVisible(selector string) ReadyFunc {
	return func(ctx context.Context) error {
		return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	}
}

// GeneratePDF converts the children of the element found by finder.
func (s *Session) GeneratePDF(ctx context.Context, finder TargetFinder, options *ConversionOptions) (*Result, error) {
	s.convMu.Lock()
	defer s.convMu.Unlock()
	if s.isClosed() {
		return nil, ErrClosed
	}
	if err := s.conv.checkClosed(); err != nil {
		return nil, err
	}

	ctx, cancel := s.conv.withTimeout(ctx)
	defer cancel()
	defer s.releaseObjects()
	return s.pipeline.Generate(ctx, finder, options)
}

// UsePDF returns a handle bound to this session. Attach its TargetRef with
// [Session.Attach] and call ToPDF to convert.
func (s *Session) UsePDF(options *ConversionOptions) *PDFHandle {
	ref := &TargetRef{}
	return &PDFHandle{
		TargetRef: ref,
		ToPDF: func(ctx context.Context, callOptions *ConversionOptions) (*Result, error) {
			return s.GeneratePDF(ctx, FromRef(ref), handleOptions(options, callOptions))
		},
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// releaseObjects drops the child handles created by the last conversion.
// Targets stay valid so an attached TargetRef survives across conversions.
func (s *Session) releaseObjects() {
	_ = s.run(context.Background(), chromedp.ActionFunc(func(ctx context.Context) error {
		return runtime.ReleaseObjectGroup(childGroup).Do(ctx)
	}))
}

// Open writes the document to a temporary file and shows it in a new tab.
func (s *Session) Open(ctx context.Context, doc *Document) error {
	name := filepath.Join(os.TempDir(), "dompdf-"+uuid.NewString()+".pdf")
	if err := doc.WriteToFile(name, 0o600); err != nil {
		return err
	}
	if err := s.track(name); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	viewerCtx, cancel := chromedp.NewContext(s.conv.browserCtx)
	s.viewers = append(s.viewers, cancel)
	s.mu.Unlock()
	if err := chromedp.Run(viewerCtx); err != nil {
		return fmt.Errorf("opening viewer tab: %w", err)
	}

	runCtx, stop := context.WithCancel(viewerCtx)
	defer stop()
	unlink := context.AfterFunc(ctx, stop)
	defer unlink()
	return chromedp.Run(runCtx, chromedp.Navigate("file://"+name))
}

// Save writes the document into the converter's output directory.
func (s *Session) Save(ctx context.Context, doc *Document, filename string) error {
	return DirEnvironment{Dir: s.conv.cfg.outputDir}.Save(ctx, doc, filename)
}
