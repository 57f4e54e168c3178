package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cashcount/internal/catalog/yamlfile"
	"cashcount/internal/core"
	"cashcount/internal/storage"
)

func catalogCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the denominations of the selected catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVALUE\tCATEGORY\tBUNDLE\tLABEL")
			for _, d := range c.All() {
				bundle := "-"
				if d.HasBundles() {
					bundle = fmt.Sprint(d.BundleSize)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, opts.formatter.Format(d.Value), d.Category, bundle, d.Label)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(catalogImportCmd(opts))
	return cmd
}

// catalogImportCmd copies a YAML catalog into the SQLite database, adding
// new denominations and updating existing ones.
func catalogImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a YAML catalog into the SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			denoms, err := yamlfile.New(args[0]).Load(ctx)
			if err != nil {
				return err
			}
			// Validate the whole file before touching the database.
			if _, err := core.NewCatalog(denoms); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			repo, err := storage.NewSQLiteRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.UpsertAll(ctx, denoms); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d denominations into %s\n", len(denoms), opts.dbPath)
			return nil
		},
	}
}
