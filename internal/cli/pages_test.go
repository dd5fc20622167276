package cli

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		spec    string
		total   int
		want    []int
		wantErr bool
	}{
		{spec: "", total: 3, want: []int{0, 1, 2}},
		{spec: "", total: 0, want: []int{}},
		{spec: "2", total: 3, want: []int{1}},
		{spec: "1-3", total: 5, want: []int{0, 1, 2}},
		{spec: "1,3,5", total: 5, want: []int{0, 2, 4}},
		{spec: "3, 1-2, 2", total: 5, want: []int{2, 0, 1}},
		{spec: "0", total: 3, wantErr: true},
		{spec: "4", total: 3, wantErr: true},
		{spec: "3-1", total: 3, wantErr: true},
		{spec: "1-9", total: 3, wantErr: true},
		{spec: "a", total: 3, wantErr: true},
		{spec: "1-b", total: 3, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parsePageRange(tt.spec, tt.total)
		if (err != nil) != tt.wantErr {
			t.Errorf("parsePageRange(%q, %d) error = %v, wantErr %v", tt.spec, tt.total, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parsePageRange(%q, %d) mismatch (-want +got):\n%s", tt.spec, tt.total, diff)
		}
	}
}
