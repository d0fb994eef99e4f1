// Package render provides visualization rendering for semitopologies.
//
// # Overview
//
// A family of open sets ordered by inclusion is a lattice; drawing its Hasse
// diagram is the quickest way to eyeball what the search produced. This
// package provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Hasse diagrams (in [hasse] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := hasse.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Hasse Diagrams
//
// The [hasse] subpackage lays the members of a family out by cardinality,
// with an edge for every cover relation, and renders through Graphviz.
//
//	dot := hasse.ToDOT(f, n, hasse.Options{})
//	svg, err := hasse.RenderSVG(ctx, dot)
package render
