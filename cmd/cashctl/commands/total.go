package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cashcount/internal/core"
)

var categoryNames = map[core.Category]string{
	core.Banknote: "Banknotes",
	core.Coin:     "Coins",
}

func totalCmd(opts *options) *cobra.Command {
	var units, bundles, loose []string

	cmd := &cobra.Command{
		Use:   "total",
		Short: "Compute subtotals and the grand total of a count",
		Example: "  cashctl total --bundles krw_10000=2 --loose krw_10000=5 --units krw_500=3\n" +
			"  cashctl total --units krw_1000=12",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			t := core.NewTally(c)

			for _, kv := range units {
				id, text, err := splitAssignment(kv)
				if err != nil {
					return err
				}
				if err := t.Set(id, core.SetFlatText(text)); err != nil {
					return err
				}
			}
			for _, step := range []struct {
				field core.Field
				pairs []string
			}{
				{core.FieldBundle, bundles},
				{core.FieldLoose, loose},
			} {
				for _, kv := range step.pairs {
					id, text, err := splitAssignment(kv)
					if err != nil {
						return err
					}
					if _, err := t.Apply(id, core.Intent{Field: step.field, Op: core.OpSet, Text: text}); err != nil {
						return err
					}
				}
			}

			return printSummary(cmd, opts, t.Summary())
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&units, "units", nil, "total units for a denomination, as id=N (repeatable)")
	f.StringArrayVar(&bundles, "bundles", nil, "bundle count for a denomination, as id=N (repeatable)")
	f.StringArrayVar(&loose, "loose", nil, "loose units for a denomination, as id=N (repeatable)")
	return cmd
}

func splitAssignment(kv string) (id, value string, err error) {
	id, value, ok := strings.Cut(kv, "=")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return "", "", fmt.Errorf("expected id=N, got %q", kv)
	}
	return id, value, nil
}

func printSummary(cmd *cobra.Command, opts *options, s core.Summary) error {
	f := opts.formatter
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, l := range s.Lines {
		if l.Units == 0 {
			continue
		}
		split := ""
		if l.Denomination.HasBundles() {
			split = fmt.Sprintf("%d bundles + %d loose", l.Pair.Bundles, l.Pair.Loose)
		}
		fmt.Fprintf(tw, "%s\t%s units\t%s\t%s\t\n", l.Denomination.Label, f.Number(l.Units), split, f.Format(l.Subtotal))
	}
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "%s\t\t\t%s\t\n", categoryNames[c.Category], f.Format(c.Amount))
	}
	fmt.Fprintf(tw, "Total\t\t\t%s\t\n", f.Format(s.Total))
	return tw.Flush()
}
