package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"pedidos/internal/model"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	nome TEXT NOT NULL,
	categoria TEXT NOT NULL,
	unidade TEXT NOT NULL,
	peso_por_unidade_kg REAL,
	tipo_chocolate TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteRepository keeps the catalog in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	r := &SQLiteRepository{db: db}
	if err := r.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, nome, categoria, unidade, peso_por_unidade_kg, tipo_chocolate FROM products`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var id, name, cat, unit, choc string
		var weight sql.NullFloat64
		if err := rows.Scan(&id, &name, &cat, &unit, &weight, &choc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		var w *float64
		if weight.Valid {
			w = &weight.Float64
		}
		p, err := productFromRow(id, name, cat, unit, choc, w)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	Sort(out)
	return out, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	p := v.Product(NewID())
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = r.db.ExecContext(ctx, `INSERT INTO products
		(id, nome, categoria, unidade, peso_por_unidade_kg, tipo_chocolate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Category), string(p.Unit), nullable(p.UnitWeightKg), p.ChocolateType.Wire(), now, now)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	p := v.Product(id)
	res, err := r.db.ExecContext(ctx, `UPDATE products
		SET nome = ?, categoria = ?, unidade = ?, peso_por_unidade_kg = ?, tipo_chocolate = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(p.Category), string(p.Unit), nullable(p.UnitWeightKg), p.ChocolateType.Wire(),
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullable(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
