package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/semiframes/pkg/canon"
	"github.com/matzehuels/semiframes/pkg/family"
)

// canonCommand creates the canon command for computing canonical forms.
func (c *CLI) canonCommand() *cobra.Command {
	var (
		text string
		n    int
	)

	cmd := &cobra.Command{
		Use:   "canon",
		Short: "Print the canonical form of a family",
		Long: `Print the canonical representative of a family's isomorphism class, along
with its canonical parent in the search tree and a few structural checks.

The ground set is inferred from the largest point unless -n is given.`,
		Example: `  semiframes canon -f "{{}, {1}, {1, 2}, {1, 2, 3}}"
  semiframes canon -f "{{2}, {1, 2}}" -n 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, size, err := parseFamilyArg(text, n)
			if err != nil {
				return err
			}

			cz := canon.New(0)
			canonical := cz.Canonicalize(f, size)

			printSuccess("canonical form over %d points", size)
			printKeyValue("Input", formatFamily(f, size))
			printKeyValue("Canonical", formatFamily(canonical, size))
			if stripped := withoutEmpty(canonical); len(stripped) > 1 {
				printKeyValue("Parent", formatFamily(cz.CanonicalDelete(stripped, size), size))
			}
			printKeyValue("Members", fmt.Sprint(f.Len()))
			printKeyValue("Closed", yesNo(f.IsUnionClosed()))
			printKeyValue("Has top", yesNo(f.Contains(family.Universe(size))))
			printKeyValue("T0", yesNo(f.Distinguished(size)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "family", "f", "", `family such as "{{}, {1}, {1, 2}}"`)
	cmd.Flags().IntVarP(&n, "size", "n", 0, "number of points (inferred when 0)")
	_ = cmd.MarkFlagRequired("family")

	return cmd
}

func withoutEmpty(f family.Family) family.Family {
	if f.Len() > 0 && f[0] == 0 {
		return f[1:]
	}
	return f
}

func yesNo(b bool) string {
	if b {
		return StyleSuccess.Render("yes")
	}
	return StyleWarning.Render("no")
}
