package dompdf

import (
	"math"
	"testing"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMMToPoints(t *testing.T) {
	tests := []struct {
		mm   float64
		want float64
	}{
		{25.4, 72},
		{0, 0},
		{210, 595.28},
		{297, 841.89},
		{180, 510.24},
	}
	for _, tt := range tests {
		got := mmToPoints(tt.mm)
		if !almostEqual(got, tt.want, 0.01) {
			t.Errorf("mmToPoints(%v) = %v, want ~%v", tt.mm, got, tt.want)
		}
	}
}

func TestA4Points(t *testing.T) {
	w, h := A4().points()
	if !almostEqual(w, 595.28, 0.01) || !almostEqual(h, 841.89, 0.01) {
		t.Errorf("A4().points() = %vx%v, want ~595.28x841.89", w, h)
	}
}

func TestImagePlacement(t *testing.T) {
	want := Rect{X: 0, Y: 0, Width: 180, Height: 180}
	got := ImagePlacement()
	if got != want {
		t.Errorf("ImagePlacement() = %+v, want %+v", got, want)
	}
	if got.Width > A4().Width || got.Height > A4().Height {
		t.Error("ImagePlacement() does not fit on an A4 page")
	}
}
