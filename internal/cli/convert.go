package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	dompdf "github.com/porticus-lab/go-dom-pdf"
	"github.com/porticus-lab/go-dom-pdf/internal/config"
)

// ErrNoTarget is returned when the selector matches nothing on the page.
var ErrNoTarget = errors.New("no element matches the selector")

type convertFlags struct {
	config      string
	selector    string
	waitVisible string

	method     string
	output     string
	resolution float64
	quality    int
	cors       bool
	captureLog bool
	readyDelay time.Duration
	onFailure  string

	chrome       string
	headless     string
	noSandbox    bool
	autoDownload bool
	timeout      time.Duration
	outDir       string
}

func newConvertCmd() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert [flags] <file|url|->",
		Short: "Convert the children of an element into a PDF, one page each",
		Long: `Convert loads an HTML file, a URL or HTML from stdin ("-") in a headless
browser, finds the element matching --selector and captures each of its
children as one A4 page.

Settings are read from --config (YAML or TOML) first; flags given on the
command line take precedence.`,
		Example: `  dompdf convert --selector '#report' -o report.pdf page.html
  dompdf convert -s main --method build https://example.com > page.pdf
  cat page.html | dompdf convert -s '#slides' --resolution 2 -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd.Flags())
			if err != nil {
				return err
			}
			return runConvert(cmd, cfg, &f, args[0])
		},
	}

	f.bind(cmd.Flags())
	return cmd
}

func (f *convertFlags) bind(fl *pflag.FlagSet) {
	fl.StringVarP(&f.config, "config", "c", "", "config file (.yaml, .yml or .toml)")
	fl.StringVarP(&f.selector, "selector", "s", "body", "CSS selector of the element whose children become pages")
	fl.StringVar(&f.waitVisible, "wait-visible", "", "wait until this selector is visible before capturing")

	fl.StringVarP(&f.method, "method", "m", "save", "output: save, build (write to -o or stdout) or open")
	fl.StringVarP(&f.output, "output", "o", "", "document filename (default: <unix millis>.pdf for save)")
	fl.Float64VarP(&f.resolution, "resolution", "r", dompdf.DefaultResolution, "capture scale factor")
	fl.IntVarP(&f.quality, "quality", "q", dompdf.DefaultQuality, "JPEG quality (1-100)")
	fl.BoolVar(&f.cors, "cors", false, "allow cross-origin content in captures")
	fl.BoolVar(&f.captureLog, "capture-log", false, "log every capture at info level")
	fl.DurationVar(&f.readyDelay, "ready-delay", 0, "grace period before the first capture")
	fl.StringVar(&f.onFailure, "on-capture-failure", "skip", "skip or abort when a child cannot be captured")

	fl.StringVar(&f.chrome, "chrome", "", "path to the Chrome/Chromium executable")
	fl.StringVar(&f.headless, "headless", "new", "headless mode: new, old or false")
	fl.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (needed as root)")
	fl.BoolVar(&f.autoDownload, "auto-download", false, "download Chromium when none is configured")
	fl.DurationVar(&f.timeout, "timeout", 30*time.Second, "page load and conversion timeout (0 disables)")
	fl.StringVar(&f.outDir, "out-dir", "", "directory saved documents are written to")
}

// load reads the config file, if any, and applies the flags that were set
// explicitly on the command line.
func (f *convertFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, err
		}
	}

	b, o := &cfg.Browser, &cfg.Conversion
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("method", func() { o.Method = dompdf.Method(f.method) })
	set("output", func() { o.Filename = f.output })
	set("resolution", func() { o.Resolution = f.resolution })
	set("quality", func() { o.Quality = f.quality })
	set("cors", func() { o.Capture.UseCORS = f.cors })
	set("capture-log", func() { o.Capture.Logging = f.captureLog })
	set("ready-delay", func() { o.ReadyDelay = f.readyDelay })
	set("chrome", func() { b.ChromePath = f.chrome })
	set("headless", func() { b.Headless = f.headless })
	set("no-sandbox", func() { b.NoSandbox = f.noSandbox })
	set("auto-download", func() { b.AutoDownload = f.autoDownload })
	set("timeout", func() { b.Timeout = f.timeout })
	set("out-dir", func() { b.OutputDir = f.outDir })
	if fs.Changed("on-capture-failure") {
		if err := o.OnCaptureFailure.UnmarshalText([]byte(f.onFailure)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, cfg *config.Config, f *convertFlags, input string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	conv, err := dompdf.NewConverter(append(cfg.ConverterOptions(), dompdf.WithLogger(logger))...)
	if err != nil {
		return err
	}
	defer conv.Close()

	s, err := openInput(ctx, conv, input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer s.Close()

	options := dompdf.Resolve(&cfg.Conversion)
	if f.waitVisible != "" {
		options.Ready = s.WaitVisible(f.waitVisible)
	}
	if options.Method == dompdf.MethodOpen && cfg.Browser.Headless != "false" {
		logger.Warn("the document opens in a headless browser; use --headless=false to see it")
	}

	res, err := s.GeneratePDF(ctx, s.Selector(f.selector), &options)
	if err != nil {
		return err
	}
	doc := res.Document
	if doc == nil {
		return fmt.Errorf("%w: %q", ErrNoTarget, f.selector)
	}

	switch options.Method {
	case dompdf.MethodBuild:
		if options.Filename != "" {
			if err := os.MkdirAll(filepath.Dir(options.Filename), 0o755); err != nil {
				return err
			}
			if err := doc.WriteToFile(options.Filename, 0o644); err != nil {
				return err
			}
		} else if _, err := doc.WriteTo(cmd.OutOrStdout()); err != nil {
			return err
		}
	case dompdf.MethodOpen:
		logger.Info("document opened, press Ctrl+C to exit", "pages", doc.PageCount())
		<-ctx.Done()
		return nil
	}
	logger.Info("done", "pages", doc.PageCount(), "warnings", len(res.Warnings), "file", doc.Filename())
	return nil
}

// openInput loads a URL, a local file, or HTML read from stdin for "-".
func openInput(ctx context.Context, conv *dompdf.Converter, input string, stdin io.Reader) (*dompdf.Session, error) {
	switch {
	case input == "-":
		html, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return conv.OpenHTML(ctx, string(html))
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"), strings.HasPrefix(input, "file://"):
		return conv.OpenURL(ctx, input)
	default:
		return conv.OpenFile(ctx, input)
	}
}
