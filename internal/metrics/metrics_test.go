package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Queue.Fal.Run/fal-ai/nano-banana/edit", "queue.fal.run"},
		{"no scheme", "api.apify.com/v2", "api.apify.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := scrapeResultsTotal
	Init()
	if scrapeResultsTotal == nil || scrapeResultsTotal != first {
		t.Fatal("Init() did not keep a single set of collectors")
	}
}

func TestObserveHelpers(t *testing.T) {
	Init()

	before := testutil.ToFloat64(scrapeResultsTotal.WithLabelValues("demo"))
	ObserveScrape("demo")
	if got := testutil.ToFloat64(scrapeResultsTotal.WithLabelValues("demo")); got != before+1 {
		t.Errorf("expected demo scrape counter to increase by 1, got %f -> %f", before, got)
	}

	beforeFallback := testutil.ToFloat64(fallbacksTotal.WithLabelValues("news"))
	ObserveFallback("news")
	ObserveFallback("news")
	if got := testutil.ToFloat64(fallbacksTotal.WithLabelValues("news")); got != beforeFallback+2 {
		t.Errorf("expected news fallback counter to increase by 2, got %f", got)
	}

	ObserveVendorRequest("queue.fal.run", "success", 150*time.Millisecond)
	if got := testutil.ToFloat64(vendorRequestsTotal.WithLabelValues("queue.fal.run", "success")); got < 1 {
		t.Errorf("expected vendor request to be counted, got %f", got)
	}

	ObserveConcept("static", "success")
	ObserveAnalyticsEvent("ad_click")
	ObserveJob("video-ads", "succeeded")
	if got := testutil.ToFloat64(jobsTotal.WithLabelValues("video-ads", "succeeded")); got < 1 {
		t.Errorf("expected job counter to be incremented, got %f", got)
	}

	IncActiveWorkers()
	IncActiveWorkers()
	DecActiveWorkers()
	if got := testutil.ToFloat64(activeWorkers); got < 1 {
		t.Errorf("expected active workers gauge >= 1, got %f", got)
	}
	DecActiveWorkers()

	ObserveRateLimitDelay("api.apify.com", 200*time.Millisecond)
	if got := testutil.CollectAndCount(rateLimitDelaysSeconds); got < 1 {
		t.Errorf("expected rate limit histogram to be observed, got %d", got)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://api.brightdata.com/request", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		sanitized := SanitizeSite(orig)
		if sanitized == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
