package dompdf

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
)

// Converter manages a headless browser instance that is reused across
// sessions. It is safe for concurrent use.
//
// Call [Converter.Close] when the Converter is no longer needed to release
// browser resources.
type Converter struct {
	cfg           converterConfig
	logger        *log.Logger
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewConverter creates a Converter with the given options.
//
// It starts a headless browser in the background. The caller must call
// [Converter.Close] when finished.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.chromePath == "" && cfg.autoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.headless == "false" {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", cfg.headless))
	}
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	logger := cfg.logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("dompdf: starting browser: %w", err)
	}
	logger.Debug("browser started", "headless", cfg.headless, "exec", cfg.chromePath)

	return &Converter{
		cfg:           cfg,
		logger:        logger,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases all resources held by the Converter, including the
// browser process and every open session. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// OpenHTML loads an HTML string into a new [Session].
func (c *Converter) OpenHTML(ctx context.Context, html string) (*Session, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "dompdf-*.html")
	if err != nil {
		return nil, fmt.Errorf("dompdf: creating temp file: %w", err)
	}
	name := f.Name()

	if _, err := f.WriteString(html); err != nil {
		f.Close()
		os.Remove(name)
		return nil, fmt.Errorf("dompdf: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return nil, fmt.Errorf("dompdf: closing temp file: %w", err)
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		os.Remove(name)
		return nil, fmt.Errorf("dompdf: resolving path: %w", err)
	}
	s, err := c.open(ctx, "file://"+abs)
	if err != nil {
		os.Remove(name)
		return nil, err
	}
	if err := s.track(name); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenURL loads the web page at rawURL into a new [Session].
func (c *Converter) OpenURL(ctx context.Context, rawURL string) (*Session, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("dompdf: invalid URL %q: %w", rawURL, err)
	}
	return c.open(ctx, rawURL)
}

// OpenFile loads a local HTML file into a new [Session].
func (c *Converter) OpenFile(ctx context.Context, path string) (*Session, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("dompdf: resolving path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("dompdf: %w", err)
	}
	return c.open(ctx, "file://"+abs)
}

// open creates a tab and navigates it to targetURL.
func (c *Converter) open(ctx context.Context, targetURL string) (*Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)

	// Allocate the tab outside the caller's context so that a deadline on
	// ctx only bounds the load, not the lifetime of the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("dompdf: opening tab: %w", err)
	}

	s := newSession(c, tabCtx, tabCancel)
	loadCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := s.run(loadCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		s.Close()
		return nil, fmt.Errorf("dompdf: loading %s: %w", targetURL, err)
	}
	c.logger.Debug("page loaded", "url", targetURL)
	return s, nil
}

func (c *Converter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.timeout > 0 {
		return context.WithTimeout(ctx, c.cfg.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Converter) checkClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// --- Package-level convenience functions ---

// ConvertHTML loads an HTML string with a temporary [Converter] and
// converts the children of the first element matching selector.
// This is convenient for one-off conversions. For repeated use, create a
// [Converter] with [NewConverter] to reuse the browser instance.
func ConvertHTML(ctx context.Context, html, selector string, opts *ConversionOptions, options ...Option) (*Result, error) {
	return convertOnce(ctx, selector, opts, options, func(c *Converter) (*Session, error) {
		return c.OpenHTML(ctx, html)
	})
}

// ConvertURL converts the children of selector on a web page using a
// temporary [Converter].
func ConvertURL(ctx context.Context, rawURL, selector string, opts *ConversionOptions, options ...Option) (*Result, error) {
	return convertOnce(ctx, selector, opts, options, func(c *Converter) (*Session, error) {
		return c.OpenURL(ctx, rawURL)
	})
}

// ConvertFile converts the children of selector in a local HTML file using
// a temporary [Converter].
func ConvertFile(ctx context.Context, path, selector string, opts *ConversionOptions, options ...Option) (*Result, error) {
	return convertOnce(ctx, selector, opts, options, func(c *Converter) (*Session, error) {
		return c.OpenFile(ctx, path)
	})
}

func convertOnce(ctx context.Context, selector string, opts *ConversionOptions, options []Option, load func(*Converter) (*Session, error)) (*Result, error) {
	conv, err := NewConverter(options...)
	if err != nil {
		return nil, err
	}
	defer conv.Close()

	s, err := load(conv)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.GeneratePDF(ctx, s.Selector(selector), opts)
}
