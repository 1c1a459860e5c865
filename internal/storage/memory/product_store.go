package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/adforge/internal/product"
)

// ProductStore keeps products in-memory for development and tests.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]product.Product
	bySource map[string]string
}

// NewProductStore constructs an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{
		products: make(map[string]product.Product),
		bySource: make(map[string]string),
	}
}

// List returns products newest first, optionally filtered by category.
func (s *ProductStore) List(_ context.Context, filter product.Filter) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit := filter.Limit
	if limit <= 0 {
		limit = product.DefaultLimit
	}
	out := make([]product.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get fetches a product by ID.
func (s *ProductStore) Get(_ context.Context, id string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

// FindBySourceURL fetches the product scraped from url.
func (s *ProductStore) FindBySourceURL(_ context.Context, url string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySource[url]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return s.products[id], nil
}

// FindByTitle returns the oldest product with an exact title match.
func (s *ProductStore) FindByTitle(_ context.Context, title string) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found product.Product
		ok    bool
	)
	for _, p := range s.products {
		if p.Title != title {
			continue
		}
		if !ok || p.CreatedAt.Before(found.CreatedAt) {
			found, ok = p, true
		}
	}
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return found, nil
}

// Insert stores a new product, enforcing source URL uniqueness.
func (s *ProductStore) Insert(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return product.ErrDuplicate
	}
	if p.AmazonURL != "" {
		if _, exists := s.bySource[p.AmazonURL]; exists {
			return product.ErrDuplicate
		}
		s.bySource[p.AmazonURL] = p.ID
	}
	s.products[p.ID] = *p
	return nil
}

// Replace overwrites the stored document with the same ID.
func (s *ProductStore) Replace(_ context.Context, p product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	if p.AmazonURL != "" && p.AmazonURL != current.AmazonURL {
		if owner, exists := s.bySource[p.AmazonURL]; exists && owner != p.ID {
			return product.ErrDuplicate
		}
	}
	if current.AmazonURL != "" {
		delete(s.bySource, current.AmazonURL)
	}
	if p.AmazonURL != "" {
		s.bySource[p.AmazonURL] = p.ID
	}
	s.products[p.ID] = p
	return nil
}

// Ping always succeeds.
func (s *ProductStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *ProductStore) Close(context.Context) error { return nil }
