// Package news looks up recent news through a SERP API and scores articles
// for marketing relevance.
package news

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JakeFAU/adforge/internal/vendorhttp"
)

// DefaultEndpoint is the Bright Data request API.
const DefaultEndpoint = "https://api.brightdata.com/request"

// ErrNotConfigured is returned when the SERP client has no API key.
var ErrNotConfigured = errors.New("bright data API key is not configured")

// BrightDataConfig configures the SERP client.
type BrightDataConfig struct {
	APIKey   string
	Zone     string
	Endpoint string
}

// BrightData fetches Google News result pages through the Bright Data SERP
// zone.
type BrightData struct {
	client   *http.Client
	apiKey   string
	zone     string
	endpoint string
}

// NewBrightData constructs a client.
func NewBrightData(client *http.Client, cfg BrightDataConfig) *BrightData {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &BrightData{client: client, apiKey: cfg.APIKey, zone: cfg.Zone, endpoint: endpoint}
}

type serpRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// SERPResult is one entry of the parsed result page.
type SERPResult struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Source    string `json:"source"`
	Date      string `json:"date"`
}

// SERPPage is the subset of the parsed result page that carries articles.
type SERPPage struct {
	OrganicResults []SERPResult `json:"organic_results"`
	NewsResults    []SERPResult `json:"news_results"`
}

// SearchURL is the Google News URL requested for query.
func SearchURL(query string) string {
	return "https://www.google.com/search?q=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20") + "&tbm=nws&hl=en&gl=us"
}

// Search fetches the news result page for query.
func (b *BrightData) Search(ctx context.Context, query string) (SERPPage, error) {
	if b.apiKey == "" {
		return SERPPage{}, ErrNotConfigured
	}
	body, err := json.Marshal(serpRequest{Zone: b.zone, URL: SearchURL(query), Format: "json"})
	if err != nil {
		return SERPPage{}, fmt.Errorf("marshal serp request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return SERPPage{}, fmt.Errorf("create serp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return SERPPage{}, fmt.Errorf("serp request: %w", err)
	}
	defer resp.Body.Close()
	if err := vendorhttp.CheckResponse("brightdata", resp); err != nil {
		return SERPPage{}, err
	}

	var page SERPPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return SERPPage{}, fmt.Errorf("decode serp response: %w", err)
	}
	return page, nil
}
