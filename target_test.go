package dompdf

import (
	"context"
	"sync"
	"testing"
)

func TestTargetRef(t *testing.T) {
	var ref TargetRef
	if ref.Current() != nil {
		t.Fatal("zero TargetRef is attached")
	}

	el := elem("DIV")
	ref.Attach(el)
	if ref.Current() != el {
		t.Error("Current() did not return the attached element")
	}
	ref.Attach(nil)
	if ref.Current() != nil {
		t.Error("Attach(nil) did not detach")
	}

	var nilRef *TargetRef
	if nilRef.Current() != nil {
		t.Error("nil TargetRef returned an element")
	}
}

func TestTargetRef_Concurrent(t *testing.T) {
	ref := NewTargetRef(nil)
	a, b := elem("A"), elem("B")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ref.Attach(a)
			ref.Attach(b)
		}()
		go func() {
			defer wg.Done()
			if cur := ref.Current(); cur != nil && cur != Element(a) && cur != Element(b) {
				t.Errorf("Current() = %v", cur)
			}
		}()
	}
	wg.Wait()
}

func TestTargetFinder_Resolve(t *testing.T) {
	el := elem("DIV")
	ref := NewTargetRef(nil)
	calls := 0

	tests := []struct {
		name   string
		finder TargetFinder
		before func()
		want   Element
	}{
		{name: "element", finder: FromElement(el), want: el},
		{name: "ref attached late", finder: FromRef(ref), before: func() { ref.Attach(el) }, want: el},
		{name: "func", finder: FromFunc(func(context.Context) (Element, error) {
			calls++
			return el, nil
		}), want: el},
		{name: "zero", finder: TargetFinder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.before != nil {
				tt.before()
			}
			got, err := tt.finder.resolve(context.Background())
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolve() = %v, want %v", got, tt.want)
			}
		})
	}
	if calls != 1 {
		t.Errorf("finder func called %d times, want 1", calls)
	}
}
