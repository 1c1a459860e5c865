// Package metrics exposes Prometheus collectors for the adforge service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	scrapeResultsTotal         *prometheus.CounterVec
	vendorRequestsTotal        *prometheus.CounterVec
	vendorRequestDuration      *prometheus.HistogramVec
	fallbacksTotal             *prometheus.CounterVec
	conceptsGeneratedTotal     *prometheus.CounterVec
	analyticsEventsTotal       *prometheus.CounterVec
	jobsTotal                  *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method, route and code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60, 180},
			},
			[]string{"method", "route"},
		)

		scrapeResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_scrape_results_total",
				Help: "Scrape results served, labeled by the tier that produced them.",
			},
			[]string{"source"},
		)

		vendorRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_vendor_requests_total",
				Help: "Outbound vendor requests, labeled by vendor host and outcome.",
			},
			[]string{"vendor", "outcome"},
		)

		vendorRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adforge_vendor_request_duration_seconds",
				Help:    "Histogram of outbound vendor request latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"vendor"},
		)

		fallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_fallbacks_total",
				Help: "Responses served from a fallback path, labeled by surface.",
			},
			[]string{"surface"},
		)

		conceptsGeneratedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_concepts_generated_total",
				Help: "Ad concepts attempted, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		analyticsEventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_analytics_events_total",
				Help: "Tracked analytics events, labeled by event name.",
			},
			[]string{"event"},
		)

		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adforge_jobs_total",
				Help: "Async creative jobs processed, labeled by kind and terminal status.",
			},
			[]string{"kind", "status"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "adforge_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adforge_rate_limit_delays_seconds",
				Help:    "Histogram of outbound rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveScrape counts a scrape result by source tier.
func ObserveScrape(source string) {
	Init()
	scrapeResultsTotal.WithLabelValues(source).Inc()
}

// ObserveVendorRequest records one outbound vendor round trip.
func ObserveVendorRequest(vendor, outcome string, duration time.Duration) {
	Init()
	vendorRequestsTotal.WithLabelValues(vendor, outcome).Inc()
	vendorRequestDuration.WithLabelValues(vendor).Observe(duration.Seconds())
}

// ObserveFallback counts a response served from demo or secondary content.
func ObserveFallback(surface string) {
	Init()
	fallbacksTotal.WithLabelValues(surface).Inc()
}

// ObserveConcept counts a generated (or failed) ad concept.
func ObserveConcept(kind, outcome string) {
	Init()
	conceptsGeneratedTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveAnalyticsEvent counts a tracked analytics event.
func ObserveAnalyticsEvent(event string) {
	Init()
	analyticsEventsTotal.WithLabelValues(event).Inc()
}

// ObserveJob increments the job counter for the given kind and status.
func ObserveJob(kind, status string) {
	Init()
	jobsTotal.WithLabelValues(kind, status).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}
