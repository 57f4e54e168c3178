package catalog

import (
	"context"
	"fmt"

	"cashcount/internal/core"
)

// Source supplies the denomination records the catalog is built from.
// It is read once at startup.
type Source interface {
	Load(ctx context.Context) ([]core.Denomination, error)
}

// Build loads the records from src and validates them into a catalog.
func Build(ctx context.Context, src Source) (*core.Catalog, error) {
	denoms, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c, err := core.NewCatalog(denoms)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return c, nil
}
