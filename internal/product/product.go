package product

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is applied when a record carries no currency.
const DefaultCurrency = "USD"

// Product is the persisted marketing product record.
type Product struct {
	ID             string            `json:"_id" bson:"_id"`
	Title          string            `json:"title" bson:"title" validate:"required"`
	Description    string            `json:"description" bson:"description" validate:"required"`
	Price          *Price            `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,gte=0"`
	Currency       string            `json:"currency" bson:"currency"`
	Images         []string          `json:"images" bson:"images"`
	Category       string            `json:"category" bson:"category" validate:"required"`
	Brand          string            `json:"brand,omitempty" bson:"brand,omitempty"`
	Features       []string          `json:"features" bson:"features"`
	Specifications map[string]string `json:"specifications" bson:"specifications"`
	TargetAudience []string          `json:"targetAudience" bson:"targetAudience"`
	Keywords       []string          `json:"keywords" bson:"keywords"`
	AmazonURL      string            `json:"amazonUrl,omitempty" bson:"amazonUrl,omitempty"`
	ScrapedData    map[string]any    `json:"scrapedData" bson:"scrapedData"`
	CreatedAt      time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Scraped is a normalized record extracted from a product page or its demo
// substitute.
type Scraped struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Price          *Price            `json:"price,omitempty"`
	Currency       string            `json:"currency,omitempty"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Brand          string            `json:"brand,omitempty"`
	Features       []string          `json:"features"`
	Specifications map[string]string `json:"specifications"`
	TargetAudience []string          `json:"targetAudience"`
	Keywords       []string          `json:"keywords"`
}

// Filter narrows List results.
type Filter struct {
	Category string
	Limit    int
}

// DefaultLimit is the page size used when a filter does not set one.
const DefaultLimit = 20

// FromScraped converts a scraped record into a product draft. When keepRaw is
// set the scraped payload is also retained as scrapedData.
func FromScraped(s Scraped, sourceURL string, keepRaw bool) Product {
	p := Product{
		Title:          s.Title,
		Description:    s.Description,
		Price:          s.Price,
		Currency:       s.Currency,
		Images:         s.Images,
		Category:       s.Category,
		Brand:          s.Brand,
		Features:       s.Features,
		Specifications: s.Specifications,
		TargetAudience: s.TargetAudience,
		Keywords:       s.Keywords,
		AmazonURL:      sourceURL,
	}
	if keepRaw {
		p.ScrapedData = s.Map()
	}
	return p
}

// Map renders the scraped record as a generic document.
func (s Scraped) Map() map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// Normalize trims string fields and fills collection defaults so that every
// backend stores the same document shape.
func (p *Product) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	p.Features = trimAll(p.Features)
	p.TargetAudience = trimAll(p.TargetAudience)
	p.Keywords = trimAll(p.Keywords)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Specifications == nil {
		p.Specifications = map[string]string{}
	}
	if p.ScrapedData == nil {
		p.ScrapedData = map[string]any{}
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}

// Price is a non-negative amount that also decodes from numeric strings such
// as "$1,299.99".
type Price float64

// NewPrice returns a pointer to p.
func NewPrice(v float64) *Price {
	p := Price(v)
	return &p
}

// Float64 returns the amount, or zero for a nil price.
func (p *Price) Float64() float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}

// UnmarshalJSON accepts numbers and numeric strings.
func (p *Price) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Price(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("price must be a number or string: %w", err)
	}
	v, ok := ParsePrice(s)
	if !ok {
		return fmt.Errorf("price %q is not numeric", s)
	}
	*p = Price(v)
	return nil
}

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.]`)
	leadingFloat = regexp.MustCompile(`^\d*\.?\d+|^\d+\.?`)
)

// ParsePrice strips every character other than digits and dots and parses
// the leading decimal number, so "1,299.99" yields 1299.99 and "12.34.56"
// yields 12.34.
func ParsePrice(text string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	match := leadingFloat.FindString(cleaned)
	if match == "" || match == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
