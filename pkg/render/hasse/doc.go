// Package hasse renders a family of open sets as a Hasse diagram.
//
// # Overview
//
// Members are drawn bottom-up by cardinality, so the empty set sits at the
// bottom and the full ground set at the top. An edge joins A and B when
// A ⊂ B and no other member lies strictly between them.
//
// # Usage
//
//	dot := hasse.ToDOT(f, 3, hasse.Options{})
//	svg, err := hasse.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := hasse.RenderPDF(ctx, dot)
//	png, err := hasse.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Masks: also print each member's bitmask under its set label
//   - Highlight: members to fill with an accent colour, e.g. a witness
//
// RenderSVG needs the Graphviz library bundled by github.com/goccy/go-graphviz.
package hasse
