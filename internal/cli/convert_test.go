package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	dompdf "github.com/porticus-lab/go-dom-pdf"
	"github.com/porticus-lab/go-dom-pdf/internal/config"
)

func parseConvertFlags(t *testing.T, args ...string) (*convertFlags, *pflag.FlagSet) {
	t.Helper()
	var f convertFlags
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	f.bind(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return &f, fs
}

func TestConvertFlags_Defaults(t *testing.T) {
	f, fs := parseConvertFlags(t)
	cfg, err := f.load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := config.Default()
	if cfg.Browser != want.Browser {
		t.Errorf("Browser = %+v, want %+v", cfg.Browser, want.Browser)
	}
	if f.selector != "body" {
		t.Errorf("selector = %q, want body", f.selector)
	}
	if got := dompdf.Resolve(&cfg.Conversion).Method; got != dompdf.MethodSave {
		t.Errorf("Method = %q, want save", got)
	}
}

func TestConvertFlags_OverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dompdf.yaml")
	content := `
browser:
  noSandbox: true
  timeout: 10s
conversion:
  method: build
  resolution: 3
  quality: 80
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, fs := parseConvertFlags(t,
		"-c", path,
		"--resolution", "2",
		"--on-capture-failure", "abort",
		"--cors",
		"--ready-delay", "100ms",
		"--out-dir", "out",
	)
	cfg, err := f.load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	o := cfg.Conversion
	if o.Method != dompdf.MethodBuild {
		t.Errorf("Method = %q, want build from config", o.Method)
	}
	if o.Resolution != 2 {
		t.Errorf("Resolution = %v, want 2 from flag", o.Resolution)
	}
	if o.Quality != 80 {
		t.Errorf("Quality = %d, want 80 from config", o.Quality)
	}
	if o.OnCaptureFailure != dompdf.AbortOnFailure || !o.Capture.UseCORS || o.ReadyDelay != 100*time.Millisecond {
		t.Errorf("Conversion = %+v", o)
	}
	if !cfg.Browser.NoSandbox || cfg.Browser.Timeout != 10*time.Second || cfg.Browser.OutputDir != "out" {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
}

func TestConvertFlags_Invalid(t *testing.T) {
	tests := []struct {
		args []string
		want error
	}{
		{args: []string{"--method", "print"}, want: config.ErrInvalidConfig},
		{args: []string{"--headless", "sometimes"}, want: config.ErrInvalidConfig},
		{args: []string{"-c", "missing.yaml"}, want: config.ErrConfigNotFound},
	}
	for _, tt := range tests {
		f, fs := parseConvertFlags(t, tt.args...)
		if _, err := f.load(fs); !errors.Is(err, tt.want) {
			t.Errorf("load(%v) = %v, want %v", tt.args, err, tt.want)
		}
	}

	f, fs := parseConvertFlags(t, "--on-capture-failure", "retry")
	if _, err := f.load(fs); err == nil {
		t.Error("expected error for unknown capture failure policy")
	}
}
