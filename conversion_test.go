package dompdf

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_Nil(t *testing.T) {
	got := Resolve(nil)
	want := ConversionOptions{
		Resolution: 1,
		Method:     MethodSave,
		Quality:    92,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve(nil) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DefaultConversionOptions(), got); diff != "" {
		t.Errorf("Resolve(nil) differs from DefaultConversionOptions (-want +got):\n%s", diff)
	}
}

func TestResolve_Partial(t *testing.T) {
	got := Resolve(&ConversionOptions{Capture: CaptureOptions{UseCORS: true}, Filename: "x.pdf"})
	want := ConversionOptions{
		Capture:    CaptureOptions{UseCORS: true},
		Resolution: 1,
		Method:     MethodSave,
		Filename:   "x.pdf",
		Quality:    92,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_PreservesExplicit(t *testing.T) {
	in := &ConversionOptions{
		Capture:          CaptureOptions{UseCORS: true, Logging: true},
		Resolution:       2.5,
		Method:           MethodOpen,
		Filename:         "report.pdf",
		Quality:          70,
		ReadyDelay:       time.Second,
		OnCaptureFailure: AbortOnFailure,
		Overrides: Overrides{
			Rasterizer: map[string]any{"backgroundColor": "#fff"},
			Writer:     map[string]any{"title": "Report"},
		},
	}
	got := Resolve(in)
	if diff := cmp.Diff(*in, got); diff != "" {
		t.Errorf("Resolve changed explicit values (-want +got):\n%s", diff)
	}
}

func TestResolve_OutOfRangeValues(t *testing.T) {
	got := Resolve(&ConversionOptions{Resolution: -1, Quality: 101, ReadyDelay: -time.Second})
	if got.Resolution != 1 || got.Quality != 92 || got.ReadyDelay != 0 {
		t.Errorf("Resolve = %+v, want defaults for out-of-range values", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	inputs := []*ConversionOptions{
		nil,
		{},
		{Method: MethodBuild, Resolution: 3},
		{Overrides: Overrides{Writer: map[string]any{"unit": "pt"}}},
	}
	for _, in := range inputs {
		once := Resolve(in)
		twice := Resolve(&once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("Resolve(Resolve(%+v)) mismatch (-once +twice):\n%s", in, diff)
		}
	}
}

func TestResolve_DoesNotAliasOverrides(t *testing.T) {
	in := &ConversionOptions{Overrides: Overrides{
		Rasterizer: map[string]any{"a": 1},
		Writer:     map[string]any{"b": 2},
	}}
	got := Resolve(in)
	got.Overrides.Rasterizer["a"] = 10
	got.Overrides.Writer["c"] = 3

	if in.Overrides.Rasterizer["a"] != 1 {
		t.Error("resolved rasterizer overrides alias the input")
	}
	if _, ok := in.Overrides.Writer["c"]; ok {
		t.Error("resolved writer overrides alias the input")
	}
}

func TestMethodSink(t *testing.T) {
	tests := map[Method]Method{
		MethodBuild: MethodBuild,
		MethodOpen:  MethodOpen,
		MethodSave:  MethodSave,
		"":          MethodSave,
		"print":     MethodSave,
	}
	for in, want := range tests {
		if got := in.sink(); got != want {
			t.Errorf("Method(%q).sink() = %q, want %q", in, got, want)
		}
	}
}

func TestFailurePolicy_Text(t *testing.T) {
	tests := []struct {
		in      string
		want    FailurePolicy
		wantErr bool
	}{
		{in: "skip", want: SkipPage},
		{in: "", want: SkipPage},
		{in: "abort", want: AbortOnFailure},
		{in: "retry", wantErr: true},
	}
	for _, tt := range tests {
		var p FailurePolicy
		err := p.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("UnmarshalText(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && p != tt.want {
			t.Errorf("UnmarshalText(%q) = %v, want %v", tt.in, p, tt.want)
		}
	}

	b, err := AbortOnFailure.MarshalText()
	if err != nil || string(b) != "abort" {
		t.Errorf("MarshalText() = %q, %v, want abort", b, err)
	}
}
