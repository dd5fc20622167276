package dompdf

import (
	"context"
	"fmt"
	"maps"
	"time"
)

// Method selects the output sink for a finished document.
type Method string

const (
	// MethodBuild returns the document without any side effect.
	MethodBuild Method = "build"
	// MethodOpen opens the document in a new viewing context.
	MethodOpen Method = "open"
	// MethodSave persists the document under its filename. It is the default,
	// and any unrecognized method is dispatched as save.
	MethodSave Method = "save"
)

// FailurePolicy decides what happens when a single child cannot be captured.
type FailurePolicy int

const (
	// SkipPage omits the page, records a warning and continues.
	SkipPage FailurePolicy = iota
	// AbortOnFailure stops the conversion and returns [ErrCaptureFailed].
	AbortOnFailure
)

// String returns "skip" or "abort".
func (p FailurePolicy) String() string {
	if p == AbortOnFailure {
		return "abort"
	}
	return "skip"
}

// MarshalText implements [encoding.TextMarshaler].
func (p FailurePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] for config files and flags.
func (p *FailurePolicy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "skip":
		*p = SkipPage
	case "abort":
		*p = AbortOnFailure
	default:
		return fmt.Errorf("dompdf: unknown capture failure policy %q", b)
	}
	return nil
}

// ReadyFunc blocks until the content inside the target is ready to be
// captured. It is called once, after the readiness grace period and before
// the first capture.
type ReadyFunc func(ctx context.Context) error

// Default option values.
const (
	DefaultResolution = 1.0
	DefaultMethod     = MethodSave
	DefaultQuality    = 92
)

// CaptureOptions are the capture flags passed to the rasterizer.
type CaptureOptions struct {
	// UseCORS lets cross-origin content inside the target render into the
	// capture. Disabled by default.
	UseCORS bool `yaml:"useCORS" toml:"use_cors"`

	// Logging enables verbose per-capture logging. Disabled by default.
	Logging bool `yaml:"logging" toml:"logging"`
}

// Overrides are passed verbatim to the capabilities they name and merged
// shallowly over the computed settings, so user keys win.
type Overrides struct {
	Rasterizer map[string]any `yaml:"rasterizer" toml:"rasterizer"`
	Writer     map[string]any `yaml:"writer" toml:"writer"`
}

// ConversionOptions configure one conversion.
//
// A nil ConversionOptions or zero-value fields use the defaults: no
// cross-origin capture, no verbose logging, resolution 1, method save, a
// timestamp-derived filename, JPEG quality 92 and [SkipPage].
type ConversionOptions struct {
	Capture CaptureOptions `yaml:"capture" toml:"capture"`

	// Resolution is the scale factor applied to every capture. Defaults to 1.
	Resolution float64 `yaml:"resolution" toml:"resolution"`

	// Method selects the output sink. Defaults to [MethodSave].
	Method Method `yaml:"method" toml:"method"`

	// Filename names the document for the open and save sinks. When empty a
	// name is derived from the current time, e.g. "1760889600000.pdf".
	Filename string `yaml:"filename" toml:"filename"`

	// Quality is the JPEG quality (1-100) requested from the rasterizer.
	Quality int `yaml:"quality" toml:"quality"`

	// ReadyDelay is a grace period before the first capture. Zero still
	// yields to the scheduler once.
	ReadyDelay time.Duration `yaml:"readyDelay" toml:"ready_delay"`

	// Ready is an optional explicit readiness signal awaited after ReadyDelay.
	Ready ReadyFunc `yaml:"-" toml:"-"`

	// OnCaptureFailure selects the policy for children that fail to capture.
	OnCaptureFailure FailurePolicy `yaml:"onCaptureFailure" toml:"on_capture_failure"`

	Overrides Overrides `yaml:"overrides" toml:"overrides"`
}

// Resolve merges partial over the documented defaults and returns a fully
// populated value. A nil partial yields the default configuration. Resolving
// an already resolved value returns it unchanged.
func Resolve(partial *ConversionOptions) ConversionOptions {
	return partial.resolved()
}

// DefaultConversionOptions returns the configuration used when no options are given.
func DefaultConversionOptions() ConversionOptions {
	return ConversionOptions{
		Resolution: DefaultResolution,
		Method:     DefaultMethod,
		Quality:    DefaultQuality,
	}
}

// resolved returns a copy with all zero values replaced by defaults. The
// override maps are copied so the result never aliases caller state.
func (o *ConversionOptions) resolved() ConversionOptions {
	d := DefaultConversionOptions()
	if o == nil {
		return d
	}
	r := *o
	if r.Resolution <= 0 {
		r.Resolution = d.Resolution
	}
	if r.Method == "" {
		r.Method = d.Method
	}
	if r.Quality <= 0 || r.Quality > 100 {
		r.Quality = d.Quality
	}
	if r.ReadyDelay < 0 {
		r.ReadyDelay = 0
	}
	r.Overrides.Rasterizer = maps.Clone(r.Overrides.Rasterizer)
	r.Overrides.Writer = maps.Clone(r.Overrides.Writer)
	return r
}

// sink maps a method to the sink that handles it.
func (m Method) sink() Method {
	switch m {
	case MethodBuild, MethodOpen:
		return m
	default:
		return MethodSave
	}
}
