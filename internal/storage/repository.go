package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cashcount/internal/core"

	_ "modernc.org/sqlite"
)

const listDenominations = `
SELECT id, value, category, bundle_size, label, short_label, color, image_url
FROM denominations
ORDER BY position`

// SQLiteRepository serves the denomination catalog from a SQLite file.
// Counts are never written here; only catalog rows live in the database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements catalog.Source.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Denomination, error) {
	rows, err := r.db.QueryContext(ctx, listDenominations)
	if err != nil {
		return nil, fmt.Errorf("query denominations: %w", err)
	}
	defer rows.Close()

	var out []core.Denomination
	for rows.Next() {
		var (
			d   core.Denomination
			cat string
		)
		if err := rows.Scan(&d.ID, &d.Value, &cat, &d.BundleSize, &d.Label, &d.ShortLabel, &d.Color, &d.ImageURL); err != nil {
			return nil, fmt.Errorf("scan denomination: %w", err)
		}
		if d.Category, err = core.ParseCategory(cat); err != nil {
			return nil, fmt.Errorf("denomination %s: %w", d.ID, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate denominations: %w", err)
	}

	slog.DebugContext(ctx, "Catalog loaded from SQLite", "denominations", len(out))
	return out, nil
}

const upsertDenomination = `
INSERT INTO denominations (id, position, value, category, bundle_size, label, short_label, color, image_url)
VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM denominations), ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    value = excluded.value,
    category = excluded.category,
    bundle_size = excluded.bundle_size,
    label = excluded.label,
    short_label = excluded.short_label,
    color = excluded.color,
    image_url = excluded.image_url`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Upsert writes a denomination row, placing new ids after the existing ones.
func (r *SQLiteRepository) Upsert(ctx context.Context, d core.Denomination) error {
	if err := upsert(ctx, r.db, d); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Denomination saved to SQLite", "id", d.ID, "value", d.Value)
	return nil
}

// UpsertAll writes every denomination in one transaction. Nothing is kept
// when any row fails.
func (r *SQLiteRepository) UpsertAll(ctx context.Context, denoms []core.Denomination) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range denoms {
		if err := upsert(ctx, tx, d); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	slog.InfoContext(ctx, "Catalog saved to SQLite", "denominations", len(denoms))
	return nil
}

// upsert stores a non-positive bundle size as 0, the flat marker.
func upsert(ctx context.Context, ex execer, d core.Denomination) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.BundleSize < 0 {
		d.BundleSize = 0
	}
	_, err := ex.ExecContext(ctx, upsertDenomination,
		d.ID, d.Value, string(d.Category), d.BundleSize, d.Label, d.ShortLabel, d.Color, d.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert denomination %s: %w", d.ID, err)
	}
	return nil
}
