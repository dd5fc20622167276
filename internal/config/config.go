// Package config loads converter and conversion settings from YAML or TOML
// files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	dompdf "github.com/porticus-lab/go-dom-pdf"
)

// MaxFileSize limits config input to prevent memory exhaustion.
const MaxFileSize = 1 << 20

// Sentinel errors for config operations.
var (
	ErrEmptyPath         = errors.New("config path cannot be empty")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrConfigParse       = errors.New("failed to parse config")
	ErrFileTooLarge      = errors.New("config file too large")
	ErrInvalidConfig     = errors.New("invalid config")
)

// Config holds everything a conversion run can be configured with.
type Config struct {
	Browser    BrowserConfig            `yaml:"browser" toml:"browser"`
	Conversion dompdf.ConversionOptions `yaml:"conversion" toml:"conversion"`
}

// BrowserConfig configures the headless browser behind a Converter.
type BrowserConfig struct {
	ChromePath   string        `yaml:"chromePath" toml:"chrome_path"`
	Headless     string        `yaml:"headless" toml:"headless"` // "new", "old" or "false"
	NoSandbox    bool          `yaml:"noSandbox" toml:"no_sandbox"`
	AutoDownload bool          `yaml:"autoDownload" toml:"auto_download"`
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"` // zero disables the timeout
	OutputDir    string        `yaml:"outputDir" toml:"output_dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless: "new",
			Timeout:  30 * time.Second,
		},
		Conversion: dompdf.DefaultConversionOptions(),
	}
}

// Load reads the config file at path. The format is chosen by extension:
// .yaml or .yml for YAML, .toml for TOML. Unknown keys are rejected, except
// inside the override maps which are passed through verbatim. Values not
// present in the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), MaxFileSize)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return yaml.UnmarshalWithOptions(data, cfg, yaml.Strict())
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks values that would otherwise be silently replaced by
// defaults or rejected late by the browser.
func (c *Config) Validate() error {
	switch c.Browser.Headless {
	case "", "new", "old", "false":
	default:
		return fmt.Errorf("%w: browser.headless must be new, old or false, got %q", ErrInvalidConfig, c.Browser.Headless)
	}
	if c.Browser.Timeout < 0 {
		return fmt.Errorf("%w: browser.timeout must not be negative", ErrInvalidConfig)
	}

	o := c.Conversion
	switch o.Method {
	case "", dompdf.MethodBuild, dompdf.MethodOpen, dompdf.MethodSave:
	default:
		return fmt.Errorf("%w: conversion.method must be build, open or save, got %q", ErrInvalidConfig, o.Method)
	}
	if o.Resolution < 0 {
		return fmt.Errorf("%w: conversion.resolution must be positive, got %v", ErrInvalidConfig, o.Resolution)
	}
	if o.Quality < 0 || o.Quality > 100 {
		return fmt.Errorf("%w: conversion.quality must be between 1 and 100, got %d", ErrInvalidConfig, o.Quality)
	}
	if o.ReadyDelay < 0 {
		return fmt.Errorf("%w: conversion.readyDelay must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ConverterOptions translates the browser section into converter options.
func (c *Config) ConverterOptions() []dompdf.Option {
	b := c.Browser
	opts := []dompdf.Option{dompdf.WithTimeout(b.Timeout)}
	if b.ChromePath != "" {
		opts = append(opts, dompdf.WithChromePath(b.ChromePath))
	}
	if b.Headless != "" {
		opts = append(opts, dompdf.WithHeadless(b.Headless))
	}
	if b.NoSandbox {
		opts = append(opts, dompdf.WithNoSandbox())
	}
	if b.AutoDownload {
		opts = append(opts, dompdf.WithAutoDownload())
	}
	if b.OutputDir != "" {
		opts = append(opts, dompdf.WithOutputDir(b.OutputDir))
	}
	return opts
}
