package news

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/metrics"
)

const (
	// DefaultQuery is searched when the caller gives none.
	DefaultQuery = "marketing advertising AI"

	placeholderImage = "https://via.placeholder.com/400x200"
	maxArticles      = 20
	demoTotal        = 10
)

// Source names the publisher of an article.
type Source struct {
	Name string `json:"name"`
}

// Article is a news item enriched with marketing signals.
type Article struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	URLToImage     string   `json:"urlToImage"`
	Source         Source   `json:"source"`
	PublishedAt    string   `json:"publishedAt"`
	MarketingHooks []string `json:"marketingHooks"`
	Sentiment      string   `json:"sentiment"`
	TrendScore     int      `json:"trendScore"`
}

// Result is the response of a news lookup.
type Result struct {
	Success      bool      `json:"success"`
	Articles     []Article `json:"articles"`
	TotalResults int       `json:"totalResults"`
	Demo         bool      `json:"-"`
}

// Searcher fetches a SERP page for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (SERPPage, error)
}

// Cache stores serialized results by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Searcher Searcher
	Cache    Cache
	CacheTTL time.Duration
	Clock    adforge.Clock
	Logger   *zap.Logger
}

// Service looks up news and falls back to demo articles on any failure.
type Service struct {
	searcher Searcher
	cache    Cache
	ttl      time.Duration
	clock    adforge.Clock
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{searcher: cfg.Searcher, cache: cfg.Cache, ttl: cfg.CacheTTL, clock: cfg.Clock, logger: cfg.Logger}
	if s.clock == nil {
		s.clock = system.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("news")
	return s
}

// Search returns scored articles for query. It never fails.
func (s *Service) Search(ctx context.Context, query string) Result {
	if query == "" {
		query = DefaultQuery
	}
	key := "news:" + query
	if cached, ok := s.lookup(ctx, key); ok {
		return cached
	}

	page, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.Warn("news lookup failed, using demo articles", zap.String("query", query), zap.Error(err))
		metrics.ObserveFallback("news")
		return Result{Success: true, Articles: DemoArticles(s.clock.Now()), TotalResults: demoTotal, Demo: true}
	}

	now := s.clock.Now()
	articles := ExtractArticles(page, now)
	for i := range articles {
		Enrich(&articles[i], now)
	}
	res := Result{Success: true, Articles: articles, TotalResults: len(articles)}
	s.store(ctx, key, res)
	return res
}

func (s *Service) lookup(ctx context.Context, key string) (Result, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return Result{}, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("news cache read failed", zap.Error(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (s *Service) store(ctx context.Context, key string, res Result) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("news cache write failed", zap.Error(err))
	}
}

// ExtractArticles maps organic then news results into articles, keeping at
// most twenty.
func ExtractArticles(page SERPPage, now time.Time) []Article {
	articles := make([]Article, 0, len(page.OrganicResults)+len(page.NewsResults))
	for _, results := range [][]SERPResult{page.OrganicResults, page.NewsResults} {
		for _, r := range results {
			articles = append(articles, Article{
				Title:       r.Title,
				Description: r.Snippet,
				URL:         r.Link,
				URLToImage:  valueOr(r.Thumbnail, placeholderImage),
				Source:      Source{Name: valueOr(r.Source, "Unknown")},
				PublishedAt: valueOr(r.Date, now.UTC().Format(time.RFC3339Nano)),
			})
		}
	}
	if len(articles) > maxArticles {
		articles = articles[:maxArticles]
	}
	return articles
}

// Enrich computes hooks, sentiment and trend score for a.
func Enrich(a *Article, now time.Time) {
	text := a.Title + " " + a.Description
	a.MarketingHooks = MarketingHooks(text)
	a.Sentiment = Sentiment(text)
	a.TrendScore = TrendScore(*a, now)
}

// DemoArticles returns the fixed articles served when the lookup fails.
func DemoArticles(now time.Time) []Article {
	return []Article{
		{
			Title:          "Revolutionary AI Marketing Tool Transforms Advertising Industry",
			Description:    "New breakthrough technology enables personalized ads at scale with 300% better performance",
			PublishedAt:    now.UTC().Format(time.RFC3339Nano),
			Source:         Source{Name: "Marketing Today"},
			URL:            "#",
			URLToImage:     placeholderImage,
			MarketingHooks: []string{"revolutionary", "breakthrough", "personalized"},
			Sentiment:      SentimentPositive,
			TrendScore:     95,
		},
		{
			Title:          "Social Media Advertising Trends: What's Working in 2025",
			Description:    "Latest insights on viral content strategies and engagement tactics",
			PublishedAt:    now.Add(-2 * time.Hour).UTC().Format(time.RFC3339Nano),
			Source:         Source{Name: "Ad Week"},
			URL:            "#",
			URLToImage:     placeholderImage,
			MarketingHooks: []string{"trending", "viral", "latest"},
			Sentiment:      SentimentPositive,
			TrendScore:     88,
		},
	}
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
