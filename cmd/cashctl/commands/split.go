package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"cashcount/internal/core"
)

func splitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "split ID UNITS",
		Short: "Show how a unit total splits into bundles and loose units",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			d, ok := c.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", core.ErrUnknownDenomination, args[0])
			}
			units, err := core.ParseCount(args[1])
			if err != nil {
				return fmt.Errorf("units %q: %w", args[1], err)
			}

			out := cmd.OutOrStdout()
			if !d.HasBundles() {
				fmt.Fprintf(out, "%s: %d units, no bundles\n", d.ID, units)
				return nil
			}
			p := core.Project(units, d.BundleSize)
			fmt.Fprintf(out, "%s: %d units = %d bundles of %d + %d loose\n", d.ID, units, p.Bundles, d.BundleSize, p.Loose)
			return nil
		},
	}
}
