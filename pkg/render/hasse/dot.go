package hasse

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"math/bits"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/render"
)

// Options configures Hasse diagram rendering.
type Options struct {
	// Masks adds the member's bitmask to its label.
	Masks bool
	// Highlight lists members drawn with an accent fill.
	Highlight []uint32
}

// Edge is a cover relation: Lower ⊂ Upper with nothing in between.
type Edge struct {
	Lower, Upper uint32
}

// Covers returns the cover relation of f under inclusion, sorted by
// (Lower, Upper).
func Covers(f family.Family) []Edge {
	var edges []Edge
	for _, a := range f {
		for _, b := range f {
			if a == b || a&^b != 0 {
				continue
			}
			covered := true
			for _, c := range f {
				if c != a && c != b && a&^c == 0 && c&^b == 0 {
					covered = false
					break
				}
			}
			if covered {
				edges = append(edges, Edge{Lower: a, Upper: b})
			}
		}
	}
	slices.SortFunc(edges, func(x, y Edge) int {
		if x.Lower != y.Lower {
			return cmp.Compare(x.Lower, y.Lower)
		}
		return cmp.Compare(x.Upper, y.Upper)
	})
	return edges
}

// ToDOT converts f over {1..n} to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Members of equal cardinality share a rank.
func ToDOT(f family.Family, n int, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Hasse {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"SF Mono, Menlo, monospace\", fontsize=14];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ranks := make(map[int][]uint32)
	for _, m := range f {
		k := bits.OnesCount32(m)
		ranks[k] = append(ranks[k], m)

		attrs := fmt.Sprintf("label=%q", label(m, n, opts.Masks))
		if slices.Contains(opts.Highlight, m) {
			attrs += ", fillcolor=\"#ffd966\""
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(m), attrs)
	}

	buf.WriteString("\n")
	for k := 0; k <= n; k++ {
		if len(ranks[k]) < 2 {
			continue
		}
		buf.WriteString("  { rank=same;")
		for _, m := range ranks[k] {
			buf.WriteString(" " + nodeID(m) + ";")
		}
		buf.WriteString(" }\n")
	}

	for _, e := range Covers(f) {
		fmt.Fprintf(&buf, "  %s -> %s;\n", nodeID(e.Lower), nodeID(e.Upper))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(m uint32) string { return "m" + strconv.FormatUint(uint64(m), 10) }

func label(m uint32, n int, masks bool) string {
	s := family.RenderSet(m, n)
	if masks {
		s += "\n" + strconv.FormatUint(uint64(m), 10)
	}
	return s
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing scales from a zero
// origin at its natural size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
