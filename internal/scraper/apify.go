package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JakeFAU/adforge/internal/product"
	"github.com/JakeFAU/adforge/internal/vendorhttp"
)

const (
	defaultApifyBaseURL = "https://api.apify.com/v2"
	defaultApifyActor   = "misceres~amazon-product-scraper"
)

// ApifyConfig configures the API tier.
type ApifyConfig struct {
	Token   string
	BaseURL string
	Actor   string
}

// ApifyTier runs an Apify actor synchronously and maps its first dataset item.
type ApifyTier struct {
	client  *http.Client
	token   string
	baseURL string
	actor   string
}

// NewApifyTier returns nil when no token is configured; callers leave the
// tier out of the chain in that case.
func NewApifyTier(client *http.Client, cfg ApifyConfig) *ApifyTier {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ApifyTier{
		client:  client,
		token:   cfg.Token,
		baseURL: strings.TrimRight(valueOrDefault(cfg.BaseURL, defaultApifyBaseURL), "/"),
		actor:   valueOrDefault(cfg.Actor, defaultApifyActor),
	}
}

// Name implements Tier.
func (t *ApifyTier) Name() string { return SourceApify }

type apifyInput struct {
	StartURLs          []apifyStartURL `json:"startUrls"`
	MaxItems           int             `json:"maxItems"`
	ProxyConfiguration apifyProxy      `json:"proxyConfiguration"`
}

type apifyStartURL struct {
	URL string `json:"url"`
}

type apifyProxy struct {
	UseApifyProxy bool `json:"useApifyProxy"`
}

// Scrape implements Tier.
func (t *ApifyTier) Scrape(ctx context.Context, pageURL string) (Result, error) {
	body, err := json.Marshal(apifyInput{
		StartURLs:          []apifyStartURL{{URL: pageURL}},
		MaxItems:           1,
		ProxyConfiguration: apifyProxy{UseApifyProxy: true},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal apify input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?token=%s",
		t.baseURL, url.PathEscape(t.actor), url.QueryEscape(t.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create apify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("apify request: %w", err)
	}
	defer resp.Body.Close()
	if err := vendorhttp.CheckResponse("apify", resp); err != nil {
		return Result{}, err
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return Result{}, fmt.Errorf("decode apify dataset: %w", err)
	}
	if len(items) == 0 {
		return Result{}, errors.New("no product data found")
	}
	return Result{Product: mapApifyItem(items[0], pageURL), Source: SourceApify}, nil
}

func mapApifyItem(item map[string]any, pageURL string) product.Scraped {
	title := firstString(item, "title", "name")
	if title == "" {
		title = "Unknown Product"
	}

	featureList := stringSlice(item["feature"])
	description := stringField(item, "description")
	if description == "" {
		description = strings.Join(featureList, ". ")
	}
	if description == "" {
		description = valueOrDefault(stringField(item, "overview"), "No description available")
	}

	images := stringSlice(item["images"])
	if len(images) > maxImages {
		images = images[:maxImages]
	}
	if len(images) == 0 {
		if image := stringField(item, "image"); image != "" {
			images = []string{image}
		}
	}
	if images == nil {
		images = []string{}
	}

	category := stringField(item, "category")
	if category == "" {
		if crumbs := stringSlice(item["breadcrumbs"]); len(crumbs) > 1 {
			category = crumbs[1]
		}
	}
	if category == "" {
		category = CategoryFromURL(pageURL)
	}

	brand := firstString(item, "brand", "manufacturer")
	if brand == "" {
		brand = BrandFromTitle(title)
	}

	features := featureList
	if len(features) == 0 {
		features = stringSlice(item["features"])
	}
	if features == nil {
		features = []string{}
	}

	specs := map[string]string{}
	mergeSpecs(specs, item["specifications"])
	mergeSpecs(specs, item["details"])

	scraped := product.Scraped{
		Title:          title,
		Description:    description,
		Currency:       valueOrDefault(stringField(item, "currency"), product.DefaultCurrency),
		Images:         images,
		Category:       category,
		Brand:          brand,
		Features:       features,
		Specifications: specs,
		TargetAudience: InferAudience(title, description, category),
		Keywords:       ExtractKeywords(title, description, features),
	}
	if v, ok := apifyPrice(item["price"]); ok {
		scraped.Price = product.NewPrice(v)
	}
	return scraped
}

func apifyPrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, v >= 0
	case map[string]any:
		return apifyPrice(v["value"])
	default:
		return product.ParsePrice(fmt.Sprint(v))
	}
}

func stringField(item map[string]any, key string) string {
	switch v := item[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringField(item, key); v != "" {
			return v
		}
	}
	return ""
}

func stringSlice(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		case map[string]any:
			// breadcrumb objects carry {name, url}
			if name, ok := v["name"].(string); ok && name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func mergeSpecs(dst map[string]string, raw any) {
	switch v := raw.(type) {
	case map[string]any:
		for key, value := range v {
			dst[key] = fmt.Sprint(value)
		}
	case []any:
		for _, entry := range v {
			row, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name, _ := row["name"].(string)
			if name == "" {
				continue
			}
			dst[name] = fmt.Sprint(row["value"])
		}
	}
}
