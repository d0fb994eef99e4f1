package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/pkg/formula"
)

// checkCommand creates the check command for evaluating one formula
// against one family.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		text    string
		famText string
		n       int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate a formula against a family",
		Long: `Evaluate a formula against a family. The empty set is added to the family
first, matching what find checks during a search. When the formula holds, the
values chosen by its existential quantifiers are printed as witnesses.`,
		Example: `  semiframes check -f "EP x. AO X. (nonempty X => x in X)" -s "{{1}, {1, 2}}"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			phi, err := formula.Parse(text)
			if err != nil {
				return err
			}
			f, size, err := parseFamilyArg(famText, n)
			if err != nil {
				return err
			}
			completed := f.Complete()

			res := formula.NewChecker(size, completed).Check(phi)
			printKeyValue("Formula", phi.String())
			printKeyValue("Family", formatFamily(completed, size))
			if !res.Satisfied {
				printWarning("not satisfied")
				return nil
			}
			printSuccess("satisfied")
			// Witnesses in quantifier order.
			var shown []string
			for _, v := range formula.Vars(phi) {
				if w, ok := res.Witnesses[v]; ok && !slices.Contains(shown, v) {
					printDetail("%s = %s", v, w.Format(size))
					shown = append(shown, v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "formula", "f", "", "formula to evaluate")
	cmd.Flags().StringVarP(&famText, "family", "s", "", "family to evaluate against")
	cmd.Flags().IntVarP(&n, "size", "n", 0, "number of points (inferred when 0)")
	_ = cmd.MarkFlagRequired("formula")
	_ = cmd.MarkFlagRequired("family")

	return cmd
}
