package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cashcount/internal/backend"
	"cashcount/internal/cli"
	"cashcount/internal/core"
	"cashcount/internal/currency"
	applog "cashcount/internal/log"
)

// options are the persistent flags shared by every command.
type options struct {
	source      string
	catalogFile string
	dbPath      string
	locale      string
	code        string
	symbol      string

	formatter *currency.Formatter
	logger    *applog.Logger
}

func Execute() error {
	cli.LoadEnvFile()
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

// NewRootCmd builds the command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "cashctl",
		Short:        "Inspect the denomination catalog and count cash from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			f, err := currency.New(opts.locale, opts.code, opts.symbol)
			if err != nil {
				return err
			}
			opts.formatter = f
			opts.logger = applog.New(applog.Config{
				Level:     applog.ParseLevel(envOr("LOG_LEVEL", "warn")),
				Format:    envOr("LOG_FORMAT", "text"),
				Component: applog.ComponentCatalog,
				Output:    errOut,
			})
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.source, "catalog", envOr("CATALOG_SOURCE", string(backend.BuiltinBackend)),
		"catalog source ("+strings.Join(backend.GetBackendTypeStrings(), "|")+")")
	pf.StringVar(&opts.catalogFile, "catalog-file", os.Getenv("CATALOG_FILE"), "YAML catalog file for --catalog yaml")
	pf.StringVar(&opts.dbPath, "db", envOr("SQLITE_DB_PATH", "./data/cashcount.db"), "SQLite database for --catalog sqlite")
	pf.StringVar(&opts.locale, "locale", envOr("LOCALE", "ko-KR"), "BCP 47 locale for number formatting")
	pf.StringVar(&opts.code, "currency", envOr("CURRENCY_CODE", "KRW"), "ISO 4217 currency code")
	pf.StringVar(&opts.symbol, "symbol", envOr("CURRENCY_SYMBOL", "₩"), "currency symbol prefix")

	root.AddCommand(catalogCmd(opts), splitCmd(opts), totalCmd(opts))
	return root
}

// loadCatalog opens the selected source, builds the catalog and closes the
// source again.
func (o *options) loadCatalog(ctx context.Context) (*core.Catalog, error) {
	factory := backend.NewFactory(o.logger.Logger)
	res, err := factory.CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(o.source),
		CatalogFile:  o.catalogFile,
		SQLiteDBPath: o.dbPath,
	})
	if err != nil {
		return nil, err
	}
	if err := res.Close(); err != nil {
		return nil, fmt.Errorf("close catalog source: %w", err)
	}
	return res.Catalog, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
