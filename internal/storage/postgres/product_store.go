// Package postgres provides a Postgres-backed product store.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/adforge/internal/product"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const uniqueViolation = "23505"

// Config controls the Postgres connection pool used for product rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// ProductStore keeps each product as a JSONB document next to the columns
// used for lookups and ordering.
type ProductStore struct {
	pool  pool
	table string
}

// NewProductStore connects a pool, creates the table if needed and returns
// the store.
func NewProductStore(ctx context.Context, cfg Config) (*ProductStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &ProductStore{pool: p, table: table}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewProductStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProductStoreWithPool(p pool, table string) (*ProductStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProductStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the products table and its indexes.
func (s *ProductStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	amazon_url TEXT UNIQUE,
	title TEXT NOT NULL,
	category TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	doc JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_category_created_idx ON %[1]s (category, created_at DESC);
CREATE INDEX IF NOT EXISTS %[1]s_title_idx ON %[1]s (title)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

// List returns products newest first.
func (s *ProductStore) List(ctx context.Context, filter product.Filter) ([]product.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = product.DefaultLimit
	}
	query := fmt.Sprintf(`SELECT doc FROM %s
WHERE ($1 = '' OR category = $1)
ORDER BY created_at DESC, id DESC
LIMIT $2`, s.table)
	rows, err := s.pool.Query(ctx, query, filter.Category, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]product.Product, 0, limit)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

// Get fetches a product by id.
func (s *ProductStore) Get(ctx context.Context, id string) (product.Product, error) {
	return s.queryOne(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, s.table), id)
}

// FindBySourceURL fetches the product scraped from url.
func (s *ProductStore) FindBySourceURL(ctx context.Context, url string) (product.Product, error) {
	return s.queryOne(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE amazon_url = $1`, s.table), url)
}

// FindByTitle returns the oldest product with an exact title match.
func (s *ProductStore) FindByTitle(ctx context.Context, title string) (product.Product, error) {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE title = $1 ORDER BY created_at ASC LIMIT 1`, s.table)
	return s.queryOne(ctx, query, title)
}

func (s *ProductStore) queryOne(ctx context.Context, query string, arg any) (product.Product, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, query, arg).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, fmt.Errorf("query product: %w", err)
	}
	return decode(doc)
}

// Insert stores a new product.
func (s *ProductStore) Insert(ctx context.Context, p *product.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, amazon_url, title, category, created_at, updated_at, doc)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, s.table)
	args := []any{p.ID, nullable(p.AmazonURL), p.Title, p.Category, p.CreatedAt, p.UpdatedAt, doc}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return product.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Replace overwrites the row with the same id.
func (s *ProductStore) Replace(ctx context.Context, p product.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	query := fmt.Sprintf(`
UPDATE %s SET amazon_url = $2, title = $3, category = $4, updated_at = $5, doc = $6
WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, p.ID, nullable(p.AmazonURL), p.Title, p.Category, p.UpdatedAt, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return product.ErrDuplicate
		}
		return fmt.Errorf("replace product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Ping checks connectivity.
func (s *ProductStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

func decode(doc []byte) (product.Product, error) {
	var p product.Product
	if err := json.Unmarshal(doc, &p); err != nil {
		return product.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
