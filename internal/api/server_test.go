package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/analytics"
	"github.com/JakeFAU/adforge/internal/config"
	"github.com/JakeFAU/adforge/internal/copywriter"
	"github.com/JakeFAU/adforge/internal/creative"
	"github.com/JakeFAU/adforge/internal/genai/fal"
	"github.com/JakeFAU/adforge/internal/genai/gemini"
	"github.com/JakeFAU/adforge/internal/id/uuid"
	"github.com/JakeFAU/adforge/internal/jobs"
	"github.com/JakeFAU/adforge/internal/news"
	"github.com/JakeFAU/adforge/internal/product"
	pubmemory "github.com/JakeFAU/adforge/internal/publisher/memory"
	queuememory "github.com/JakeFAU/adforge/internal/queue/memory"
	"github.com/JakeFAU/adforge/internal/scraper"
	"github.com/JakeFAU/adforge/internal/storage/memory"
)

var fixedNow = time.Date(2025, 7, 4, 10, 30, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type fakeScraper struct {
	mu   sync.Mutex
	urls []string
	res  scraper.Result
}

func (f *fakeScraper) Scrape(_ context.Context, url string) scraper.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return f.res
}

type fakeNews struct {
	query string
}

func (f *fakeNews) Search(_ context.Context, query string) news.Result {
	f.query = query
	return news.Result{Success: true, Articles: []news.Article{{Title: "AI ads"}}, TotalResults: 1}
}

type fakeWriter struct {
	err     error
	lastReq copywriter.GenerationRequest
	lastAd  copywriter.AdProduct
}

func (f *fakeWriter) Generate(_ context.Context, req copywriter.GenerationRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return "fresh copy", nil
}

func (f *fakeWriter) GenerateAd(_ context.Context, adType string, p copywriter.AdProduct, opts copywriter.AdOptions) (copywriter.Ad, error) {
	f.lastAd = p
	if f.err != nil {
		return copywriter.Ad{}, f.err
	}
	return copywriter.Ad{Type: adType, Content: "ad for " + p.Title, Metadata: copywriter.AdMetadataFor(adType, opts)}, nil
}

type fakeCreative struct {
	last creative.Request
}

func (f *fakeCreative) Static(_ context.Context, req creative.Request) creative.StaticResult {
	f.last = req
	prod := creative.Normalize(req.ProductData)
	return creative.StaticResult{Success: true, AdConcepts: []creative.Concept{{Concept: "Professional"}}, ProductInfo: prod.Info(), Note: "static"}
}

func (f *fakeCreative) Video(_ context.Context, req creative.Request) creative.VideoResult {
	f.last = req
	return creative.VideoResult{Success: true, StaticAdConcepts: []creative.Concept{}, VideoAdConcepts: []creative.VideoConcept{}, Note: "video"}
}

func (f *fakeCreative) Specs(_ context.Context, req creative.Request) creative.StaticResult {
	f.last = req
	return creative.StaticResult{Success: true, AdConcepts: []creative.Concept{}, Note: "specs"}
}

type fakeGemini struct {
	configured bool
	health     gemini.Health
}

func (f fakeGemini) Configured() bool                      { return f.configured }
func (f fakeGemini) Health(context.Context) gemini.Health { return f.health }

type fakeFal struct {
	configured bool
	health     fal.Health
}

func (f fakeFal) Configured() bool                   { return f.configured }
func (f fakeFal) Health(context.Context) fal.Health { return f.health }

type failingStore struct {
	product.Store
}

func (failingStore) List(context.Context, product.Filter) ([]product.Product, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

type testEnv struct {
	server    *Server
	store     *memory.ProductStore
	scraper   *fakeScraper
	news      *fakeNews
	writer    *fakeWriter
	creative  *fakeCreative
	publisher *pubmemory.Publisher
	queue     *queuememory.Queue
}

func newTestEnv(t *testing.T, mutate func(*Deps, *config.Config)) *testEnv {
	t.Helper()
	clock := &fakeClock{now: fixedNow}
	env := &testEnv{
		store:     memory.NewProductStore(),
		scraper:   &fakeScraper{res: scraper.Result{Product: product.Scraped{Title: "Echo Dot", Description: "Smart speaker", Category: "Electronics"}, Source: scraper.SourceApify}},
		news:      &fakeNews{},
		writer:    &fakeWriter{},
		creative:  &fakeCreative{},
		publisher: pubmemory.New(),
		queue:     queuememory.NewQueue(4),
	}
	deps := Deps{
		Products: product.NewService(env.store, uuid.New(), clock, zap.NewNop()),
		Store:    env.store,
		Scraper:  env.scraper,
		News:     env.news,
		Writer:   env.writer,
		Creative: env.creative,
		Tracker:  analytics.NewTracker(env.publisher, "analytics", clock, zap.NewNop()),
		Gemini:   fakeGemini{configured: true, health: gemini.Health{Status: "healthy", Model: "gemini-2.5-flash", Response: "ok..."}},
		Fal:      fakeFal{configured: true, health: fal.Health{Status: "healthy", Service: "fal-ai", Model: "nano-banana/edit + veo3/fast/image-to-video", RequestID: "req-1"}},
		Jobs:     jobs.NewService(jobs.Config{Store: memory.NewJobStore(), Enqueuer: env.queue, IDs: uuid.New(), Clock: clock}),
		Clock:    clock,
		Rand:     constRand(0.5),
	}
	cfg := config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}}
	cfg.Scraper.KeepRaw = true
	if mutate != nil {
		mutate(&deps, &cfg)
	}
	env.server = NewServer(deps, cfg, zap.NewNop())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	down := newTestEnv(t, func(d *Deps, _ *config.Config) { d.Store = failingStore{} })
	rec = down.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Deps, cfg *config.Config) {
		cfg.Auth = config.AuthConfig{Enabled: true, APIKey: "secret"}
	})
	require.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/news", "").Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/news?api_key=secreT", "").Code)
	require.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/news?api_key=secret-longer", "").Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/news?api_key=secret", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestCreateProductFromProductURL(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/products", `{"productUrl":"https://www.amazon.com/dp/B0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Product created successfully", body["message"])
	created := body["product"].(map[string]any)
	require.Equal(t, "Echo Dot", created["title"])
	require.Equal(t, "https://www.amazon.com/dp/B0", created["amazonUrl"])
	require.NotEmpty(t, created["_id"])
	require.NotEmpty(t, created["scrapedData"])

	rec = env.do(t, http.MethodPost, "/api/products", `{"productUrl":"https://www.amazon.com/dp/B0"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	again := decodeBody(t, rec)
	require.Equal(t, "Product already exists", again["message"])
	require.Equal(t, created["_id"], again["product"].(map[string]any)["_id"])
}

func TestCreateProductShapes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/products", `{"productUrl":"https://www.ebay.com/itm/1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"Currently only Amazon URLs are supported"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/products", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products",
		`{"amazonUrl":"https://amazon.com/dp/X","productData":{"title":"Lamp","description":"Warm light","category":"Home"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Home", decodeBody(t, rec)["product"].(map[string]any)["category"])

	rec = env.do(t, http.MethodPost, "/api/products",
		`{"manualData":{"title":"Mug","description":"Ceramic","category":"Kitchen","price":12.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Product created successfully", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/products", `{"manualData":{"title":"","description":""}}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "Failed to save product to database", body["error"])
	require.NotEmpty(t, body["details"])

	require.Len(t, env.scraper.urls, 0)
}

func TestListGetAndReplaceProducts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/products", `{"manualData":{"title":"Mug","description":"Ceramic","category":"Kitchen"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decodeBody(t, rec)["product"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodGet, "/api/products?category=Kitchen&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["products"], 1)

	rec = env.do(t, http.MethodGet, "/api/products?category=Garden", "")
	require.JSONEq(t, `{"success":true,"products":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/products/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/products/"+id, `{"title":"Big Mug","description":"Ceramic","category":"Kitchen"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Big Mug", decodeBody(t, rec)["product"].(map[string]any)["title"])

	rec = env.do(t, http.MethodPut, "/api/products/"+id, `{"title":"","description":"Ceramic","category":"Kitchen"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplaceProductWithTakenSourceURL(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/products", `{"manualData":{"title":"Mug","description":"Ceramic","category":"Kitchen","amazonUrl":"https://www.amazon.com/dp/MUG"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/products", `{"manualData":{"title":"Lamp","description":"Warm light","category":"Home","amazonUrl":"https://www.amazon.com/dp/LAMP"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	lampID := decodeBody(t, rec)["product"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodPut, "/api/products/"+lampID, `{"title":"Lamp","description":"Warm light","category":"Home","amazonUrl":"https://www.amazon.com/dp/MUG"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestListProductsStoreFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(d *Deps, _ *config.Config) { d.Store = failingStore{} })
	rec := env.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, []any{}, body["products"])
}

func TestScrapeProduct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/scrape-product", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "URL is required", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/scrape-product", `{"url":"https://walmart.com/x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Only Amazon URLs are supported", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/scrape-product", `{"url":"https://amzn.to/abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "apify", body["source"])
	require.Equal(t, "Echo Dot", body["productData"].(map[string]any)["title"])
	require.Equal(t, []string{"https://amzn.to/abc"}, env.scraper.urls)
}

func TestSearchNews(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, news.DefaultQuery, env.news.query)
	require.EqualValues(t, 1, decodeBody(t, rec)["totalResults"])

	env.do(t, http.MethodGet, "/api/news?q=sneakers", "")
	require.Equal(t, "sneakers", env.news.query)
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/generate", `{"type":"ad-copy","prompt":"summer sale","marketingHooks":["hot"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"content":"fresh copy","timestamp":"2025-07-04T10:30:00.000Z"}`, rec.Body.String())
	require.Equal(t, []string{"hot"}, env.writer.lastReq.MarketingHooks)

	rec = env.do(t, http.MethodPost, "/api/generate", `{"type":"haiku"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid generation type", decodeBody(t, rec)["error"])

	env.writer.err = errors.New("quota")
	rec = env.do(t, http.MethodPost, "/api/generate", `{"type":"social-post"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to generate content", decodeBody(t, rec)["error"])

	unconfigured := newTestEnv(t, func(d *Deps, _ *config.Config) { d.Gemini = fakeGemini{} })
	rec = unconfigured.do(t, http.MethodPost, "/api/generate", `{"type":"ad-copy"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Gemini API key not configured", decodeBody(t, rec)["error"])
}

func TestGenerateTextAd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/products", `{"manualData":{"title":"Mug","description":"Ceramic","category":"Kitchen","features":["dishwasher safe"]}}`)
	id := decodeBody(t, rec)["product"].(map[string]any)["_id"].(string)

	rec = env.do(t, http.MethodPost, "/api/ads-generate", `{"productId":"`+id+`","adType":"banner-ad","platform":"Google"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, map[string]any{"id": id, "title": "Mug", "category": "Kitchen"}, body["product"])
	ad := body["ad"].(map[string]any)
	require.Equal(t, "banner-ad", ad["type"])
	require.Equal(t, []string{"dishwasher safe"}, env.writer.lastAd.Features)

	rec = env.do(t, http.MethodPost, "/api/ads-generate", `{"productId":"gone","productData":{"_id":"p-9","title":"Kettle","description":"Steel","category":"Kitchen","features":[]},"adType":"video-script"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "p-9", decodeBody(t, rec)["product"].(map[string]any)["id"])

	rec = env.do(t, http.MethodPost, "/api/ads-generate", `{"productId":"gone","adType":"banner-ad"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found and no product data provided", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/ads-generate", `{"productId":"`+id+`","adType":"poster"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid ad type", decodeBody(t, rec)["error"])

	env.writer.err = errors.New("model down")
	rec = env.do(t, http.MethodPost, "/api/ads-generate", `{"productId":"`+id+`","adType":"social-media"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreativeRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/generate-ad", `{"productData":[{"title":"Lamp","description":"Warm","image":"https://img/l.jpg"}],"platform":"tiktok"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "static", body["note"])
	require.Equal(t, map[string]any{"title": "Lamp", "category": "General"}, body["productInfo"])
	require.Equal(t, "professional", env.creative.last.AdType)
	require.Equal(t, "tiktok", env.creative.last.Platform)

	rec = env.do(t, http.MethodPost, "/api/generate-video-ad", `{"productData":{"title":"Lamp","description":"Warm"},"videoOptions":{"resolution":"1080p"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	require.Equal(t, []any{}, body["videoAdConcepts"])
	require.Equal(t, "1080p", env.creative.last.VideoOptions.Resolution)

	rec = env.do(t, http.MethodPost, "/api/ad-specs", `{"productData":{"title":"Lamp","description":"Warm"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "specs", decodeBody(t, rec)["note"])

	rec = env.do(t, http.MethodPost, "/api/generate-ad", `{"productData":{"title":"Lamp"},"adType":"poster"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "invalid creative request")

	noFal := newTestEnv(t, func(d *Deps, _ *config.Config) { d.Fal = fakeFal{} })
	rec = noFal.do(t, http.MethodPost, "/api/generate-video-ad", `{"productData":{"title":"Lamp","description":"Warm"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, falMissing, decodeBody(t, rec)["error"])
}

func TestAnalyticsRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got analyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "7d", got.TimeRange)
	require.Len(t, got.Data.Timeline, 8)
	require.Equal(t, "2025-07-04", got.Data.Timeline[7].Date)
	require.Equal(t, "2025-07-04T10:30:00.000Z", got.GeneratedAt)

	rec = env.do(t, http.MethodGet, "/api/analytics?range=1y", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Data.Timeline, 91)

	rec = env.do(t, http.MethodPost, "/api/analytics", `{"event":"ad_click","data":{"id":"7"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"message":"Event tracked successfully"}`, rec.Body.String())
	require.Len(t, env.publisher.Topic("analytics"), 1)

	rec = env.do(t, http.MethodPost, "/api/analytics", `not json`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Failed to track event", decodeBody(t, rec)["error"])
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/health/gemini", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"status":"healthy","model":"gemini-2.5-flash","response":"ok...","timestamp":"2025-07-04T10:30:00.000Z","apiKeyConfigured":true}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/health/fal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "fal-ai", body["service"])
	require.Equal(t, "req-1", body["requestId"])

	broken := newTestEnv(t, func(d *Deps, _ *config.Config) {
		d.Gemini = fakeGemini{health: gemini.Health{Status: "error", Error: "gemini API key is not configured"}}
	})
	rec = broken.do(t, http.MethodGet, "/api/health/gemini", "")
	body = decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, false, body["apiKeyConfigured"])
}

func TestJobRoutes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/api/jobs", `{"kind":"video-ads","request":{"productData":{"title":"Lamp","description":"Warm","image":"https://img/l.jpg"}}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted jobAccepted
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.Equal(t, adforge.JobStatusQueued, accepted.Status)

	item, err := env.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, accepted.JobID, item.JobID)
	require.Equal(t, adforge.JobKindVideoAds, item.Kind)

	rec = env.do(t, http.MethodGet, "/api/jobs/"+accepted.JobID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"queued"`)

	rec = env.do(t, http.MethodPost, "/api/jobs/"+accepted.JobID+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"canceled"`)

	rec = env.do(t, http.MethodPost, "/api/jobs/"+accepted.JobID+"/cancel", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs", `{"kind":"banner","request":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/jobs", `{"kind":"static-ads","request":{"productData":[]}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.True(t, strings.HasPrefix(decodeBody(t, rec)["error"].(string), "invalid job request"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	handler := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())
}

type mockJobs struct {
	mock.Mock
}

func (m *mockJobs) Submit(ctx context.Context, kind adforge.JobKind, request json.RawMessage) (adforge.Job, error) {
	args := m.Called(ctx, kind, request)
	return args.Get(0).(adforge.Job), args.Error(1)
}

func (m *mockJobs) Get(ctx context.Context, id string) (adforge.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(adforge.Job), args.Error(1)
}

func (m *mockJobs) Cancel(ctx context.Context, id string) (adforge.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(adforge.Job), args.Error(1)
}

func TestJobRoutesMapServiceErrors(t *testing.T) {
	t.Parallel()

	svc := &mockJobs{}
	svc.On("Submit", mock.Anything, adforge.JobKindStaticAds, mock.Anything).
		Return(adforge.Job{}, fmt.Errorf("enqueue job: %w", context.DeadlineExceeded)).Once()
	svc.On("Submit", mock.Anything, adforge.JobKindVideoAds, mock.Anything).
		Return(adforge.Job{}, errors.New("create job: disk full")).Once()
	svc.On("Get", mock.Anything, "job-1").Return(adforge.Job{}, errors.New("connection reset")).Once()

	env := newTestEnv(t, func(d *Deps, _ *config.Config) { d.Jobs = svc })

	rec := env.do(t, http.MethodPost, "/api/jobs", `{"kind":"static-ads","request":{}}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "job queue is full", decodeBody(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/jobs", `{"kind":"video-ads","request":{}}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/jobs/job-1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	svc.AssertExpectations(t)
}
