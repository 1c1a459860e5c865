package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/product"
)

const (
	maxImages   = 5
	maxFeatures = 10
)

// HTMLTier fetches the product page and parses it with goquery. When a
// detector and headless fetcher are configured, script-rendered pages are
// re-fetched through the browser.
type HTMLTier struct {
	fetcher  adforge.Fetcher
	headless adforge.Fetcher
	detector adforge.HeadlessDetector
	logger   *zap.Logger
}

// NewHTMLTier builds an HTMLTier. headless and detector may be nil.
func NewHTMLTier(fetcher adforge.Fetcher, headless adforge.Fetcher, detector adforge.HeadlessDetector, logger *zap.Logger) *HTMLTier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLTier{
		fetcher:  fetcher,
		headless: headless,
		detector: detector,
		logger:   logger.Named("html"),
	}
}

// Name implements Tier.
func (t *HTMLTier) Name() string { return SourceHTML }

// Scrape implements Tier.
func (t *HTMLTier) Scrape(ctx context.Context, url string) (Result, error) {
	resp, err := t.fetcher.Fetch(ctx, adforge.FetchRequest{URL: url})
	if err != nil {
		return Result{}, fmt.Errorf("fetch page: %w", err)
	}

	if t.canPromote() && t.detector.ShouldPromote(resp) {
		resp = t.promote(ctx, url, resp)
	}

	scraped, err := Parse(resp.Body, url)
	if errors.Is(err, ErrNoTitle) && t.canPromote() && !resp.UsedHeadless {
		if rendered := t.promote(ctx, url, resp); rendered.UsedHeadless {
			resp = rendered
			scraped, err = Parse(resp.Body, url)
		}
	}
	if err != nil {
		return Result{}, err
	}

	source := SourceHTML
	if resp.UsedHeadless {
		source = SourceHeadless
	}
	return Result{Product: scraped, Source: source}, nil
}

func (t *HTMLTier) canPromote() bool {
	return t.headless != nil && t.detector != nil
}

func (t *HTMLTier) promote(ctx context.Context, url string, static adforge.FetchResponse) adforge.FetchResponse {
	rendered, err := t.headless.Fetch(ctx, adforge.FetchRequest{URL: url})
	if err != nil {
		t.logger.Warn("headless render failed, keeping static page", zap.String("url", url), zap.Error(err))
		return static
	}
	return rendered
}

var imageSize = regexp.MustCompile(`_\w+_\.`)

// Parse extracts a product from an Amazon product page.
func Parse(body []byte, pageURL string) (product.Scraped, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return product.Scraped{}, fmt.Errorf("parse html: %w", err)
	}

	title := firstText(doc, "#productTitle", "h1.a-size-large", "h1", `[data-automation-id="product-title"]`)
	if title == "" {
		return product.Scraped{}, ErrNoTitle
	}

	description := joinedSpans(doc, "#feature-bullets ul li span")
	if description == "" {
		description = joinedSpans(doc, ".a-unordered-list.a-nostyle.a-vertical.a-spacing-none li span")
	}
	if description == "" {
		description = joinedSpans(doc, "#featurebullets_feature_div ul li span")
	}

	features := parseFeatures(doc)
	category := parseCategory(doc, pageURL)

	scraped := product.Scraped{
		Title:          title,
		Description:    valueOrDefault(description, "No description available"),
		Currency:       product.DefaultCurrency,
		Images:         parseImages(doc),
		Category:       category,
		Brand:          valueOrDefault(parseBrand(doc, title), "Unknown"),
		Features:       features,
		Specifications: parseSpecifications(doc),
		TargetAudience: InferAudience(title, description, category),
		Keywords:       ExtractKeywords(title, description, features),
	}
	if v, ok := product.ParsePrice(parsePriceText(doc)); ok {
		scraped.Price = product.NewPrice(v)
	}
	return scraped, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		var text string
		if sel == "h1" {
			text = strings.TrimSpace(doc.Find(sel).First().Text())
		} else {
			text = strings.TrimSpace(doc.Find(sel).Text())
		}
		if text != "" {
			return text
		}
	}
	return ""
}

func joinedSpans(doc *goquery.Document, selector string) string {
	var parts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, ". ")
}

func parsePriceText(doc *goquery.Document) string {
	for _, sel := range []string{".a-price-whole", ".a-offscreen", ".a-price"} {
		if text := doc.Find(sel).First().Text(); text != "" {
			return text
		}
	}
	return doc.Find("span.a-price-symbol").Parent().Text()
}

func parseImages(doc *goquery.Document) []string {
	seen := map[string]bool{}
	var images []string
	add := func(src string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, src)
	}

	if src, ok := doc.Find("#landingImage").Attr("src"); ok {
		add(src)
	}
	doc.Find("img[data-a-image-name]").Each(func(_ int, s *goquery.Selection) {
		src := s.AttrOr("src", "")
		if src == "" {
			src = s.AttrOr("data-src", "")
		}
		if src == "" || seen[src] {
			return
		}
		add(resizeImage(src))
	})

	if len(images) > maxImages {
		images = images[:maxImages]
	}
	if images == nil {
		return []string{}
	}
	return images
}

// resizeImage rewrites the first Amazon size token to the 1500px variant.
func resizeImage(src string) string {
	loc := imageSize.FindStringIndex(src)
	if loc == nil {
		return src
	}
	return src[:loc[0]] + "_AC_SL1500_." + src[loc[1]:]
}

func parseCategory(doc *goquery.Document, pageURL string) string {
	var crumbs []string
	doc.Find(".a-breadcrumb li a, #wayfinding-breadcrumbs_feature_div ul li a").Each(func(_ int, s *goquery.Selection) {
		crumbs = append(crumbs, strings.TrimSpace(s.Text()))
	})
	category := ""
	if len(crumbs) > 1 {
		category = crumbs[1]
	} else {
		category = CategoryFromURL(pageURL)
	}
	return valueOrDefault(category, "General")
}

var bylinePrefix = regexp.MustCompile(`^.*?by\s+`)

func parseBrand(doc *goquery.Document, title string) string {
	if brand := strings.TrimSpace(doc.Find(".po-brand .po-break-word").Text()); brand != "" {
		return brand
	}
	if byline := strings.TrimSpace(bylinePrefix.ReplaceAllString(doc.Find("#bylineInfo").Text(), "")); byline != "" {
		return byline
	}
	if brand := strings.TrimSpace(doc.Find(`[data-feature-name="brand"]`).Text()); brand != "" {
		return brand
	}
	return BrandFromTitle(title)
}

func parseFeatures(doc *goquery.Document) []string {
	features := []string{}
	doc.Find("#feature-bullets ul li span").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.Contains(text, "Make sure") || strings.Contains(text, "Customer Reviews") {
			return
		}
		features = append(features, text)
	})
	if len(features) > maxFeatures {
		features = features[:maxFeatures]
	}
	return features
}

func parseSpecifications(doc *goquery.Document) map[string]string {
	specs := map[string]string{}
	doc.Find(".po-brand, .po-color, .po-size, .po-material, .po-weight").Each(func(_ int, s *goquery.Selection) {
		label := strings.TrimSpace(s.Find(".po-attribute-list-label").Text())
		value := strings.TrimSpace(s.Find(".po-break-word").Text())
		if label != "" && value != "" {
			specs[strings.Replace(label, ":", "", 1)] = value
		}
	})
	doc.Find("#productDetails_techSpec_section_1 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		label := strings.TrimSpace(cells.First().Text())
		value := strings.TrimSpace(cells.Last().Text())
		if label != "" && value != "" && label != value {
			specs[label] = value
		}
	})
	return specs
}

func valueOrDefault[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}
