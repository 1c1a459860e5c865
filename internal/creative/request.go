package creative

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JakeFAU/adforge/internal/product"
)

// Ad types accepted by creative requests.
const (
	AdTypeProfessional = "professional"
	AdTypeSocial       = "social"
	AdTypeLifestyle    = "lifestyle"
	AdTypeFeature      = "feature"
)

// ProductInput is one product as posted by a client.
type ProductInput struct {
	Title       string         `json:"title" validate:"required"`
	Description string         `json:"description" validate:"required"`
	Price       *product.Price `json:"price,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Image       string         `json:"image,omitempty"`
	Images      []string       `json:"images,omitempty"`
	Features    []string       `json:"features,omitempty"`
	Category    string         `json:"category,omitempty"`
	Brand       string         `json:"brand,omitempty"`
}

// ProductData holds the posted product, which may be a single object or an
// array of objects. An empty array is accepted and normalizes to the default
// product.
type ProductData []ProductInput

// UnmarshalJSON accepts an object or an array.
func (d *ProductData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*d = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []ProductInput
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("productData: %w", err)
		}
		*d = items
		return nil
	default:
		var item ProductInput
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return fmt.Errorf("productData: %w", err)
		}
		*d = ProductData{item}
		return nil
	}
}

// VideoOptions tunes image-to-video generation.
type VideoOptions struct {
	Resolution    string `json:"resolution" validate:"oneof=720p 1080p"`
	GenerateAudio *bool  `json:"generateAudio,omitempty"`
	AspectRatio   string `json:"aspectRatio" validate:"oneof=auto 16:9 9:16"`
}

// Audio reports whether generated videos carry sound. Defaults to true.
func (o VideoOptions) Audio() bool {
	return o.GenerateAudio == nil || *o.GenerateAudio
}

// Request is the body of a static or video creative request.
type Request struct {
	ProductData  ProductData   `json:"productData" validate:"required,dive"`
	AdType       string        `json:"adType" validate:"oneof=professional social lifestyle feature"`
	Platform     string        `json:"platform"`
	Style        string        `json:"style"`
	CustomPrompt string        `json:"customPrompt,omitempty"`
	VideoOptions *VideoOptions `json:"videoOptions,omitempty"`
}

// Options are the presentation settings carried into generated metadata.
type Options struct {
	AdType       string
	Platform     string
	Style        string
	CustomPrompt string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ApplyDefaults fills unset fields.
func (r *Request) ApplyDefaults() {
	if r.AdType == "" {
		r.AdType = AdTypeProfessional
	}
	if r.Platform == "" {
		r.Platform = "instagram"
	}
	if r.Style == "" {
		r.Style = "modern"
	}
	if r.VideoOptions == nil {
		r.VideoOptions = &VideoOptions{}
	}
	if r.VideoOptions.Resolution == "" {
		r.VideoOptions.Resolution = "720p"
	}
	if r.VideoOptions.AspectRatio == "" {
		r.VideoOptions.AspectRatio = "16:9"
	}
}

// Validate applies defaults and checks the request.
func (r *Request) Validate() error {
	r.ApplyDefaults()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid creative request: %w", err)
	}
	return nil
}

// Options returns the presentation settings of the request.
func (r Request) Options() Options {
	return Options{AdType: r.AdType, Platform: r.Platform, Style: r.Style, CustomPrompt: r.CustomPrompt}
}

// Product is the normalized product used by every creative path.
type Product struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       *product.Price `json:"price,omitempty"`
	Currency    string         `json:"currency"`
	Image       string         `json:"image"`
	Images      []string       `json:"images"`
	Features    []string       `json:"features"`
	Category    string         `json:"category"`
	Brand       string         `json:"brand"`
}

// Normalize takes the first posted product and fills its defaults.
func Normalize(data ProductData) Product {
	var in ProductInput
	if len(data) > 0 {
		in = data[0]
	}
	p := Product{
		Title:       valueOr(in.Title, "Premium Product"),
		Description: valueOr(in.Description, "High-quality product with premium features"),
		Currency:    valueOr(in.Currency, product.DefaultCurrency),
		Image:       in.Image,
		Images:      in.Images,
		Features:    in.Features,
		Category:    valueOr(in.Category, "General"),
		Brand:       valueOr(in.Brand, "Premium Brand"),
	}
	if in.Price != nil && *in.Price != 0 {
		p.Price = in.Price
	}
	if p.Image == "" && len(in.Images) > 0 {
		p.Image = in.Images[0]
	}
	if p.Images == nil {
		p.Images = []string{}
		if in.Image != "" {
			p.Images = []string{in.Image}
		}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	return p
}

// ProductInfo is the short product summary returned alongside concepts.
type ProductInfo struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Info summarises the product.
func (p Product) Info() ProductInfo {
	return ProductInfo{Title: p.Title, Category: p.Category}
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
