package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/metrics"
	"github.com/JakeFAU/adforge/internal/product"
)

// Result sources reported by the chain.
const (
	SourceCache    = "cache"
	SourceApify    = "apify"
	SourceHTML     = "html"
	SourceHeadless = "headless"
	SourceDemo     = "demo"
)

// ErrNoTitle is returned when a page carries no recognizable product title.
var ErrNoTitle = errors.New("could not find product title")

// Result is a scraped product and the tier that produced it.
type Result struct {
	Product product.Scraped `json:"product"`
	Source  string          `json:"source"`
	Demo    bool            `json:"demo"`
}

// Tier is one step of the fallback chain.
type Tier interface {
	Name() string
	Scrape(ctx context.Context, url string) (Result, error)
}

// Cache stores serialized results by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ChainConfig wires a Chain.
type ChainConfig struct {
	Tiers    []Tier
	Cache    Cache
	Hasher   adforge.Hasher
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Chain runs tiers in order and never fails.
type Chain struct {
	tiers  []Tier
	cache  Cache
	hasher adforge.Hasher
	ttl    time.Duration
	logger *zap.Logger
}

// NewChain builds a Chain. Nil tiers are skipped.
func NewChain(cfg ChainConfig) *Chain {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tiers := make([]Tier, 0, len(cfg.Tiers))
	for _, tier := range cfg.Tiers {
		if tier != nil {
			tiers = append(tiers, tier)
		}
	}
	return &Chain{
		tiers:  tiers,
		cache:  cfg.Cache,
		hasher: cfg.Hasher,
		ttl:    cfg.CacheTTL,
		logger: logger.Named("scraper"),
	}
}

// Scrape returns the cached result for url, the first tier that succeeds, or
// the demo product.
func (c *Chain) Scrape(ctx context.Context, url string) Result {
	key := c.cacheKey(url)
	if cached, ok := c.lookup(ctx, key); ok {
		metrics.ObserveScrape(SourceCache)
		return cached
	}

	for _, tier := range c.tiers {
		res, err := tier.Scrape(ctx, url)
		if err != nil {
			c.logger.Warn("scrape tier failed, falling back",
				zap.String("tier", tier.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			continue
		}
		if res.Source == "" {
			res.Source = tier.Name()
		}
		metrics.ObserveScrape(res.Source)
		c.store(ctx, key, res)
		return res
	}

	c.logger.Warn("all scrape tiers failed, using demo product", zap.String("url", url))
	metrics.ObserveScrape(SourceDemo)
	metrics.ObserveFallback("scrape")
	return Result{Product: DemoProduct(url), Source: SourceDemo, Demo: true}
}

func (c *Chain) cacheKey(url string) string {
	if c.cache == nil || c.hasher == nil {
		return ""
	}
	key, err := c.hasher.Hash([]byte(url))
	if err != nil {
		c.logger.Warn("hash cache key", zap.Error(err))
		return ""
	}
	return key
}

func (c *Chain) lookup(ctx context.Context, key string) (Result, bool) {
	if key == "" {
		return Result{}, false
	}
	raw, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("scrape cache read failed", zap.Error(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		c.logger.Warn("discarding undecodable cache entry", zap.Error(err))
		return Result{}, false
	}
	res.Source = SourceCache
	return res, true
}

func (c *Chain) store(ctx context.Context, key string, res Result) {
	if key == "" || res.Demo {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("encode cache entry", zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("scrape cache write failed", zap.Error(err))
	}
}
