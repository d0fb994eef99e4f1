package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/errors"
	"github.com/matzehuels/semiframes/pkg/family"
	"github.com/matzehuels/semiframes/pkg/render/hasse"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPDF = "pdf"
	formatPNG = "png"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	family    string
	n         int
	output    string  // output file; the extension picks the format
	format    string  // explicit format, overrides the extension
	canonical bool    // draw the canonical form instead of the input
	masks     bool    // show bitmasks under set labels
	highlight string  // members to fill with an accent colour
	scale     float64 // PNG scale factor
}

// renderCommand creates the render command for drawing Hasse diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: 2.0}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a family as a Hasse diagram",
		Long: `Draw the members of a family ordered by inclusion. Without -o the DOT
source is printed; otherwise the output extension (.dot, .svg, .pdf, .png)
selects the format. PDF and PNG need rsvg-convert from librsvg.`,
		Example: `  semiframes render -f "{{}, {1}, {2}, {1, 2}}" -o square.svg
  semiframes render -f "{{2}, {1, 2}}" -n 3 --canonical --masks | dot -Tpng > h.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.family, "family", "f", "", "family to draw")
	cmd.Flags().IntVarP(&opts.n, "size", "n", 0, "number of points (inferred when 0)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (DOT to stdout if empty)")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: dot, svg, pdf, png (default from extension)")
	cmd.Flags().BoolVar(&opts.canonical, "canonical", false, "draw the canonical form")
	cmd.Flags().BoolVar(&opts.masks, "masks", false, "show bitmasks in labels")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", `members to highlight, e.g. "{{1}, {2}}"`)
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	_ = cmd.MarkFlagRequired("family")

	return cmd
}

func runRender(ctx context.Context, opts renderOpts) error {
	f, n, err := parseFamilyArg(opts.family, opts.n)
	if err != nil {
		return err
	}
	if opts.canonical {
		f = canon.CanonicalizeOnce(f, n)
	}
	hopts := hasse.Options{Masks: opts.masks}
	if opts.highlight != "" {
		marked, err := family.Parse(opts.highlight, n)
		if err != nil {
			return fmt.Errorf("highlight: %w", err)
		}
		hopts.Highlight = marked
	}
	dot := hasse.ToDOT(f, n, hopts)

	if opts.output == "" {
		fmt.Fprint(out, dot)
		return nil
	}

	format := opts.format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(opts.output)), ".")
	}

	var data []byte
	switch format {
	case formatDOT:
		data = []byte(dot)
	case formatSVG, formatPDF, formatPNG:
		spin := newSpinnerWithContext(ctx, "Rendering "+format)
		spin.Start()
		data, err = renderDOT(ctx, dot, format, opts.scale)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown output format %q (want dot, svg, pdf or png)", format)
	}

	if err := writeFile(data, opts.output); err != nil {
		return err
	}
	printSuccess("Hasse diagram with %d members", f.Len())
	printFile(opts.output)
	return nil
}

func renderDOT(ctx context.Context, dot, format string, scale float64) ([]byte, error) {
	switch format {
	case formatPDF:
		return hasse.RenderPDF(ctx, dot)
	case formatPNG:
		return hasse.RenderPNG(ctx, dot, scale)
	}
	return hasse.RenderSVG(ctx, dot)
}

// writeFile writes data to path, creating parent directories.
func writeFile(data []byte, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
