package product

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no product matches a lookup.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicate is returned when a product with the same source URL exists.
	ErrDuplicate = errors.New("product already exists")
)

// Store persists Product records.
type Store interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	FindBySourceURL(ctx context.Context, url string) (Product, error)
	FindByTitle(ctx context.Context, title string) (Product, error)
	Insert(ctx context.Context, p *Product) error
	Replace(ctx context.Context, p Product) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
