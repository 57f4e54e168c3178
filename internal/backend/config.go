package backend

import (
	"fmt"

	"cashcount/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.CatalogSource)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid catalog source in config: %s", appConfig.CatalogSource)
	}

	return Config{
		Type:         backendType,
		CatalogFile:  appConfig.CatalogFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid catalog source: %s", c.Type)
	}

	switch c.Type {
	case YAMLBackend:
		if c.CatalogFile == "" {
			return fmt.Errorf("catalog file is required for yaml source")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite source")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{BuiltinBackend, YAMLBackend, SQLiteBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
