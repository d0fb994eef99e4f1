package hasse

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/semiframes/pkg/family"
)

func TestCovers(t *testing.T) {
	tests := []struct {
		name string
		f    family.Family
		want []Edge
	}{
		{"empty", nil, nil},
		{"single", family.New(0), nil},
		{"chain skips transitive edge", family.New(0, 2, 3), []Edge{{0, 2}, {2, 3}}},
		{
			name: "triangle",
			f:    family.New(0, 3, 5, 6, 7),
			want: []Edge{{0, 3}, {0, 5}, {0, 6}, {3, 7}, {5, 7}, {6, 7}},
		},
		{"incomparable", family.New(1, 2), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Covers(tt.f)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Covers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(family.New(0, 2, 3), 2, Options{})

	if !strings.Contains(dot, "digraph Hasse") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	for _, want := range []string{`m0 [label="{}"]`, `m2 [label="{2}"]`, `m3 [label="{1, 2}"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing node %s", want)
		}
	}
	if !strings.Contains(dot, "m0 -> m2;") || !strings.Contains(dot, "m2 -> m3;") {
		t.Error("ToDOT() output missing cover edge")
	}
	if strings.Contains(dot, "m0 -> m3;") {
		t.Error("ToDOT() output has a transitive edge")
	}
}

func TestToDOT_Ranks(t *testing.T) {
	dot := ToDOT(family.New(0, 3, 5, 6, 7), 3, Options{})
	if !strings.Contains(dot, "{ rank=same; m3; m5; m6; }") {
		t.Errorf("ToDOT() missing rank group for two-element sets:\n%s", dot)
	}
}

func TestToDOT_Options(t *testing.T) {
	dot := ToDOT(family.New(0, 5), 3, Options{Masks: true, Highlight: []uint32{5}})

	if !strings.Contains(dot, `label="{1, 3}\n5"`) {
		t.Errorf("ToDOT() masks option missing bitmask in label:\n%s", dot)
	}
	if !strings.Contains(dot, `m5 [label="{1, 3}\n5", fillcolor="#ffd966"]`) {
		t.Error("ToDOT() highlight option missing accent fill")
	}
	if strings.Contains(dot, `m0 [label="{}\n0", fillcolor`) {
		t.Error("ToDOT() highlighted a member not in Highlight")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(family.New(0, 2, 3), 2, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output is not an SVG document")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10.00 20.00" width="10" height="20"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %q, want %q", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("normalizeViewBox() changed an SVG without a viewBox")
	}
}
