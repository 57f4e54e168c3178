package backend

import (
	"context"

	"cashcount/internal/catalog"
	"cashcount/internal/core"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the loaded catalog, the source it came from and an
// optional cleanup function for that source.
type BackendResult struct {
	Source  catalog.Source
	Catalog *core.Catalog
	Cleanup CleanupFunc
}

// Close runs the cleanup function if one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory opens catalog sources based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for catalog source creation
type Config struct {
	Type BackendType

	// yaml source
	CatalogFile string

	// sqlite source
	SQLiteDBPath string
}

// BackendType names where the denomination catalog is read from
type BackendType string

const (
	BuiltinBackend BackendType = "builtin"
	YAMLBackend    BackendType = "yaml"
	SQLiteBackend  BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case BuiltinBackend, YAMLBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
