package dompdf

import (
	"time"

	"github.com/charmbracelet/log"
)

// converterConfig holds internal configuration for a Converter.
type converterConfig struct {
	chromePath   string
	timeout      time.Duration
	noSandbox    bool
	headless     string
	autoDownload bool
	outputDir    string
	logger       *log.Logger
}

func defaultConfig() converterConfig {
	return converterConfig{
		timeout:  30 * time.Second,
		headless: "new",
	}
}

// Option configures a [Converter].
type Option func(*converterConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the library searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *converterConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration for loading a page and for a single
// conversion. Defaults to 30 seconds. A zero or negative value disables the
// timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *converterConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *converterConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium build when no executable
// path is configured. The binary is cached between runs.
func WithAutoDownload() Option {
	return func(c *converterConfig) {
		c.autoDownload = true
	}
}

// WithHeadless sets Chrome's headless mode: "new" (default), "old" or
// "false" for a visible window, which makes [MethodOpen] useful on desktops.
func WithHeadless(mode string) Option {
	return func(c *converterConfig) {
		c.headless = mode
	}
}

// WithOutputDir sets the directory documents are saved into by
// [MethodSave]. Defaults to the working directory.
func WithOutputDir(dir string) Option {
	return func(c *converterConfig) {
		c.outputDir = dir
	}
}

// WithLogger sets the logger for conversion diagnostics. By default they
// are discarded.
func WithLogger(l *log.Logger) Option {
	return func(c *converterConfig) {
		c.logger = l
	}
}
