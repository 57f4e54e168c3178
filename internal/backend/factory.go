package backend

import (
	"context"
	"fmt"
	"log/slog"

	"cashcount/internal/catalog"
	"cashcount/internal/catalog/builtin"
	"cashcount/internal/catalog/yamlfile"
	"cashcount/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured source and builds the catalog from it.
// The source is closed again if the catalog cannot be built.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		src     catalog.Source
		cleanup CleanupFunc
	)

	switch config.Type {
	case BuiltinBackend:
		src = builtin.NewKRW()
	case YAMLBackend:
		src = yamlfile.New(config.CatalogFile)
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		src, cleanup = repo, repo.Close
	default:
		return nil, fmt.Errorf("unsupported catalog source: %s", config.Type)
	}

	cat, err := catalog.Build(ctx, src)
	if err != nil {
		if cleanup != nil {
			_ = cleanup()
		}
		return nil, err
	}

	f.logger.Info("Initialized catalog",
		"catalog_source", config.Type.String(),
		"denominations", cat.Len())

	return &BackendResult{
		Source:  src,
		Catalog: cat,
		Cleanup: cleanup,
	}, nil
}
