package api

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/analytics"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/config"
	"github.com/JakeFAU/adforge/internal/copywriter"
	"github.com/JakeFAU/adforge/internal/creative"
	"github.com/JakeFAU/adforge/internal/genai/fal"
	"github.com/JakeFAU/adforge/internal/genai/gemini"
	"github.com/JakeFAU/adforge/internal/metrics"
	"github.com/JakeFAU/adforge/internal/news"
	"github.com/JakeFAU/adforge/internal/product"
	"github.com/JakeFAU/adforge/internal/scraper"
)

// ProductService saves and overwrites products.
type ProductService interface {
	Save(ctx context.Context, req product.SaveRequest) (product.Product, bool, error)
	Overwrite(ctx context.Context, id string, p product.Product) (product.Product, error)
}

// Scraper turns a product URL into a scraped record. It never fails.
type Scraper interface {
	Scrape(ctx context.Context, url string) scraper.Result
}

// NewsSearcher looks up marketing news. It never fails.
type NewsSearcher interface {
	Search(ctx context.Context, query string) news.Result
}

// Copywriter produces text content and ads.
type Copywriter interface {
	Generate(ctx context.Context, req copywriter.GenerationRequest) (string, error)
	GenerateAd(ctx context.Context, adType string, p copywriter.AdProduct, opts copywriter.AdOptions) (copywriter.Ad, error)
}

// Creative runs the image, video and spec pipelines.
type Creative interface {
	Static(ctx context.Context, req creative.Request) creative.StaticResult
	Video(ctx context.Context, req creative.Request) creative.VideoResult
	Specs(ctx context.Context, req creative.Request) creative.StaticResult
}

// EventTracker records analytics events.
type EventTracker interface {
	Track(ctx context.Context, event string, data json.RawMessage)
}

// GeminiProbe reports the text model's health.
type GeminiProbe interface {
	Configured() bool
	Health(ctx context.Context) gemini.Health
}

// FalProbe reports the media model's health.
type FalProbe interface {
	Configured() bool
	Health(ctx context.Context) fal.Health
}

// JobService submits and controls asynchronous creative jobs.
type JobService interface {
	Submit(ctx context.Context, kind adforge.JobKind, request json.RawMessage) (adforge.Job, error)
	Get(ctx context.Context, id string) (adforge.Job, error)
	Cancel(ctx context.Context, id string) (adforge.Job, error)
}

// Deps are the collaborators behind the HTTP handlers. Nil members disable
// the routes that need them with a 503.
type Deps struct {
	Products ProductService
	Store    product.Store
	Scraper  Scraper
	News     NewsSearcher
	Writer   Copywriter
	Creative Creative
	Tracker  EventTracker
	Gemini   GeminiProbe
	Fal      FalProbe
	Jobs     JobService
	Clock    adforge.Clock
	Rand     analytics.Rand
}

// Server wires HTTP handlers to the product, creative and job services.
type Server struct {
	router chi.Router
	deps   Deps
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(deps Deps, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Server{
		deps:   deps,
		cfg:    cfg,
		logger: logger.Named("api"),
	}
	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoverMiddleware(s.logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(timeout))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Post("/", s.createProduct)
			r.Get("/{id}", s.getProduct)
			r.Put("/{id}", s.replaceProduct)
		})
		r.Post("/scrape-product", s.scrapeProduct)
		r.Get("/news", s.searchNews)
		r.Post("/generate", s.generateContent)
		r.Post("/ads-generate", s.generateTextAd)
		r.Post("/generate-ad", s.generateStaticAds)
		r.Post("/generate-video-ad", s.generateVideoAds)
		r.Post("/ad-specs", s.generateAdSpecs)
		r.Get("/analytics", s.getAnalytics)
		r.Post("/analytics", s.trackEvent)
		r.Get("/health/gemini", s.geminiHealth)
		r.Get("/health/fal", s.falHealth)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.submitJob)
			r.Route("/{job_id}", func(r chi.Router) {
				r.Get("/", s.getJob)
				r.Post("/cancel", s.cancelJob)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": "product store not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) now() string {
	return creative.Timestamp(s.deps.Clock.Now())
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", requestID(r.Context())),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

// errorBody is the failure envelope shared by every route.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func unavailable(w http.ResponseWriter, what string) {
	writeError(w, http.StatusServiceUnavailable, what+" is not configured")
}
