package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pedidos/internal/model"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	nome TEXT NOT NULL,
	categoria TEXT NOT NULL,
	unidade TEXT NOT NULL,
	peso_por_unidade_kg DOUBLE PRECISION,
	tipo_chocolate TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// pgxConn is the subset of *pgxpool.Pool the repository needs.
type pgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository keeps the catalog in a PostgreSQL products table.
type PostgresRepository struct {
	db pgxConn
}

// NewPostgresRepository wraps an existing pool (or any pgxConn).
func NewPostgresRepository(db pgxConn) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres connects to dsn and ensures the products table exists.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, *PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	r := NewPostgresRepository(pool)
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, r, nil
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, nome, categoria, unidade, peso_por_unidade_kg, tipo_chocolate
		FROM products
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var id, name, cat, unit, choc string
		var weight *float64
		if err := rows.Scan(&id, &name, &cat, &unit, &weight, &choc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p, err := productFromRow(id, name, cat, unit, choc, weight)
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

func (r *PostgresRepository) Create(ctx context.Context, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	p := v.Product(NewID())
	_, err = r.db.Exec(ctx, `
		INSERT INTO products (id, nome, categoria, unidade, peso_por_unidade_kg, tipo_chocolate)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, string(p.Category), string(p.Unit), p.UnitWeightKg, p.ChocolateType.Wire())
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in model.ProductInput) (model.Product, error) {
	v, err := in.Validate()
	if err != nil {
		return model.Product{}, err
	}
	p := v.Product(id)
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET nome = $1, categoria = $2, unidade = $3, peso_por_unidade_kg = $4, tipo_chocolate = $5, updated_at = NOW()
		WHERE id = $6
	`, p.Name, string(p.Category), string(p.Unit), p.UnitWeightKg, p.ChocolateType.Wire(), id)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
