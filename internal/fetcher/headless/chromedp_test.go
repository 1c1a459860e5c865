package headless

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/JakeFAU/adforge/internal/adforge"
)

func TestNewChromedpDefaults(t *testing.T) {
	t.Parallel()

	if _, err := NewChromedp(Config{MaxParallel: -1}); err == nil {
		t.Fatal("expected error for negative max parallel")
	}
	fetcher, err := NewChromedp(Config{MaxParallel: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fetcher.Close()
	if cap(fetcher.slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", cap(fetcher.slots))
	}
	if fetcher.cfg.NavigationTimeout != defaultNavTimeout || fetcher.cfg.SettleDelay != defaultSettleDelay {
		t.Fatalf("expected default timings, got %+v", fetcher.cfg)
	}
	if fetcher.cfg.WaitSelector != "body" {
		t.Fatalf("expected body wait selector, got %q", fetcher.cfg.WaitSelector)
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	t.Parallel()

	fetcher := &Fetcher{slots: make(chan struct{}, 1)}
	if err := fetcher.acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := fetcher.acquire(ctx); err == nil {
		t.Fatal("expected second acquire to block until the deadline")
	}
	fetcher.release()
	if err := fetcher.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
}

func TestNetworkHeaders(t *testing.T) {
	t.Parallel()

	netHeaders := networkHeaders(http.Header{"X-Test": {"a", "b"}, "X-One": {"1"}, "X-None": {}})
	if v, ok := netHeaders["X-Test"].([]string); !ok || len(v) != 2 {
		t.Fatalf("expected two entries, got %v", netHeaders["X-Test"])
	}
	if netHeaders["X-One"] != "1" {
		t.Fatalf("expected single value, got %v", netHeaders["X-One"])
	}
	if _, ok := netHeaders["X-None"]; ok {
		t.Fatal("expected empty header to be skipped")
	}
}

func TestDocumentResponseFallbacks(t *testing.T) {
	t.Parallel()

	doc := &documentResponse{}
	doc.observe(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 404, URL: "https://m.media-amazon.com/x.jpg"},
	})
	doc.observe(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  203,
			URL:     "https://www.amazon.com/dp/B0",
			Headers: network.Headers{"X-Amz-Rid": "abc"},
		},
	})
	status, headers, url := doc.result("https://req", "")
	if status != 203 || headers.Get("X-Amz-Rid") != "abc" || url != "https://www.amazon.com/dp/B0" {
		t.Fatalf("unexpected result: status=%d headers=%v url=%s", status, headers, url)
	}

	empty := &documentResponse{}
	status, headers, url = empty.result("https://req", "https://final")
	if status != http.StatusOK || url != "https://final" || headers == nil {
		t.Fatalf("expected fallback values, got status=%d url=%s", status, url)
	}
	_, _, url = empty.result("https://req", "")
	if url != "https://req" {
		t.Fatalf("expected request url fallback, got %s", url)
	}
}

func TestNoopFetcherError(t *testing.T) {
	t.Parallel()

	_, err := NewNoop().Fetch(context.Background(), adforge.FetchRequest{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
