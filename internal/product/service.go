package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
)

// SaveRequest describes a product to persist and the source URL, if any, used
// to detect an existing record.
type SaveRequest struct {
	Product   Product
	SourceURL string
}

// Service implements the insert-or-reuse save path on top of a Store.
type Service struct {
	store    Store
	idGen    adforge.IDGenerator
	clock    adforge.Clock
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(store Store, idGen adforge.IDGenerator, clock adforge.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		idGen:    idGen,
		clock:    clock,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() Store {
	return s.store
}

// Validate checks the fields a stored product must carry.
func (s *Service) Validate(p Product) error {
	if err := s.validate.Struct(p); err != nil {
		return fmt.Errorf("invalid product: %w", err)
	}
	return nil
}

// Save returns the existing product matching the request's source URL (or
// title when no URL is given), or inserts a new one. The boolean reports
// whether a record was created.
func (s *Service) Save(ctx context.Context, req SaveRequest) (Product, bool, error) {
	draft := req.Product
	draft.Normalize()

	existing, err := s.lookup(ctx, req.SourceURL, draft.Title)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return Product{}, false, err
	}

	if err := s.Validate(draft); err != nil {
		return Product{}, false, err
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return Product{}, false, fmt.Errorf("generate product id: %w", err)
	}
	now := s.clock.Now()
	draft.ID = id
	draft.CreatedAt = now
	draft.UpdatedAt = now

	if err := s.store.Insert(ctx, &draft); err != nil {
		if errors.Is(err, ErrDuplicate) && draft.AmazonURL != "" {
			s.logger.Debug("concurrent insert detected, returning stored product",
				zap.String("amazon_url", draft.AmazonURL))
			stored, findErr := s.store.FindBySourceURL(ctx, draft.AmazonURL)
			if findErr == nil {
				return stored, false, nil
			}
		}
		return Product{}, false, fmt.Errorf("insert product: %w", err)
	}
	s.logger.Info("product created", zap.String("id", draft.ID), zap.String("title", draft.Title))
	return draft, true, nil
}

// Overwrite replaces an existing product document wholesale. CreatedAt is
// preserved from the stored record.
func (s *Service) Overwrite(ctx context.Context, id string, p Product) (Product, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p.Normalize()
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.clock.Now()
	if err := s.Validate(p); err != nil {
		return Product{}, err
	}
	if err := s.store.Replace(ctx, p); err != nil {
		return Product{}, fmt.Errorf("replace product: %w", err)
	}
	return p, nil
}

func (s *Service) lookup(ctx context.Context, sourceURL, title string) (Product, error) {
	if sourceURL = strings.TrimSpace(sourceURL); sourceURL != "" {
		p, err := s.store.FindBySourceURL(ctx, sourceURL)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return Product{}, fmt.Errorf("find by source url: %w", err)
		}
		return p, err
	}
	p, err := s.store.FindByTitle(ctx, title)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Product{}, fmt.Errorf("find by title: %w", err)
	}
	return p, err
}
