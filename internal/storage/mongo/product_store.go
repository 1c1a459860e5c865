// Package mongo stores products in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JakeFAU/adforge/internal/product"
)

// Config controls the Mongo connection used for products.
type Config struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// ProductStore implements product.Store on a single collection. Documents use
// the product id as _id.
type ProductStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to Mongo, verifies the deployment and ensures indexes.
func Open(ctx context.Context, cfg Config) (*ProductStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo.uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "adforge"
	}
	if cfg.Collection == "" {
		cfg.Collection = "products"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	store := &ProductStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewProductStoreWithCollection wraps an existing collection. The store does
// not own the client and Close leaves it connected.
func NewProductStoreWithCollection(coll *mongo.Collection) (*ProductStore, error) {
	if coll == nil {
		return nil, fmt.Errorf("collection is required")
	}
	return &ProductStore{coll: coll}, nil
}

// EnsureIndexes creates the source URL uniqueness, text search and listing
// indexes.
func (s *ProductStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "amazonUrl", Value: 1}},
			Options: options.Index().SetName("amazonUrl_unique").SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("title_description_text"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("category_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "brand", Value: 1}},
			Options: options.Index().SetName("brand"),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

// List returns products newest first.
func (s *ProductStore) List(ctx context.Context, filter product.Filter) ([]product.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = product.DefaultLimit
	}
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]product.Product, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// Get fetches a product by id.
func (s *ProductStore) Get(ctx context.Context, id string) (product.Product, error) {
	return s.findOne(ctx, bson.M{"_id": id}, nil)
}

// FindBySourceURL fetches the product scraped from url.
func (s *ProductStore) FindBySourceURL(ctx context.Context, url string) (product.Product, error) {
	return s.findOne(ctx, bson.M{"amazonUrl": url}, nil)
}

// FindByTitle returns the oldest product with an exact title match.
func (s *ProductStore) FindByTitle(ctx context.Context, title string) (product.Product, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return s.findOne(ctx, bson.M{"title": title}, opts)
}

func (s *ProductStore) findOne(ctx context.Context, query bson.M, opts *options.FindOneOptions) (product.Product, error) {
	var p product.Product
	var err error
	if opts != nil {
		err = s.coll.FindOne(ctx, query, opts).Decode(&p)
	} else {
		err = s.coll.FindOne(ctx, query).Decode(&p)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return product.Product{}, product.ErrNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// Insert stores a new product. A unique index violation maps to
// product.ErrDuplicate.
func (s *ProductStore) Insert(ctx context.Context, p *product.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return product.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Replace overwrites the document with the same id.
func (s *ProductStore) Replace(ctx context.Context, p product.Product) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return product.ErrDuplicate
		}
		return fmt.Errorf("replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Ping checks the deployment is reachable.
func (s *ProductStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return s.coll.Database().Client().Ping(ctx, readpref.Primary())
	}
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client when the store opened it.
func (s *ProductStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
