package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JakeFAU/adforge/internal/assets"
)

// AdSpecInput is the product context for a creative-director prompt.
type AdSpecInput struct {
	Title       string
	Description string
	Price       *float64
	Category    string
	Brand       string
	Features    []string
	Platform    string
	Style       string
	Focus       string
}

var adSpecTemplate = template.Must(template.New("adspec").Parse(
	`You are a world-class advertising creative director with expertise in visual design, psychology, and brand communication. Create a detailed JSON specification for a professional advertisement.

MASTER RULES FOR AD GENERATION:
1. TYPOGRAPHY: Use maximum 8 words for headlines, 6 words for subtext
2. VISUAL HIERARCHY: Create clear focal points and reading flow
3. COLOR PSYCHOLOGY: Choose colors that evoke the right emotions for {{.CategoryOr "this product"}}
4. BRAND CONSISTENCY: Maintain professional brand standards
5. PRODUCT FOCUS: The product must be the hero element
6. AUTHENTICITY: No fake testimonials or contact information
7. PLATFORM OPTIMIZATION: Designed for {{.PlatformOr "social media"}}
8. CALL TO ACTION: Clear, compelling, action-oriented
9. WHITE SPACE: Use negative space effectively for premium feel
10. READABILITY: Ensure text is legible across all devices
11. EMOTIONAL RESONANCE: Connect with target audience needs

PRODUCT INFORMATION:
- Title: {{.Title}}
- Description: {{.Description}}
- Price: {{.PriceText}}
- Category: {{.CategoryOr "Premium product"}}
- Brand: {{.BrandText}}
- Key Features: {{.FeatureText}}
{{- if .Focus}}
- Creative Focus: {{.Focus}} ({{.Style}})
{{- end}}

Generate a JSON response with this EXACT structure:
{
  "headline": "compelling 6-8 word headline",
  "subtext": "supporting 4-6 words",
  "visualDescription": "detailed scene description for AI image generation including lighting, composition, background, mood",
  "colorPalette": {
    "primary": "dominant color with psychology reasoning",
    "secondary": "supporting color",
    "accent": "highlight color for CTA",
    "background": "backdrop color"
  },
  "composition": {
    "layout": "visual arrangement description",
    "productPlacement": "how product should be positioned",
    "textPlacement": "where text elements go",
    "visualFlow": "eye movement pattern"
  },
  "style": "photography style (professional, lifestyle, technical, artistic)",
  "backgroundContext": "appropriate setting description",
  "ctaText": "2-4 word call to action",
  "targetEmotion": "primary emotion to evoke",
  "brandPersonality": "brand voice and feel"
}`))

// CategoryOr returns the category or def.
func (in AdSpecInput) CategoryOr(def string) string { return orDefault(in.Category, def) }

// PlatformOr returns the platform or def.
func (in AdSpecInput) PlatformOr(def string) string { return orDefault(in.Platform, def) }

// PriceText renders the price or a premium placeholder.
func (in AdSpecInput) PriceText() string {
	if in.Price == nil || *in.Price == 0 {
		return "Premium pricing"
	}
	return strconv.FormatFloat(*in.Price, 'f', -1, 64)
}

// BrandText renders the brand or a generic placeholder.
func (in AdSpecInput) BrandText() string { return orDefault(in.Brand, "Quality brand") }

// FeatureText joins the features.
func (in AdSpecInput) FeatureText() string {
	if in.Features == nil {
		return "Premium features"
	}
	return strings.Join(in.Features, ", ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// AdSpecPrompt renders the creative-director prompt.
func AdSpecPrompt(in AdSpecInput) (string, error) {
	var buf bytes.Buffer
	if err := adSpecTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render ad spec prompt: %w", err)
	}
	return buf.String(), nil
}

// GenerateAdSpec asks the spec model for a structured ad specification and
// returns it as indented JSON.
func (c *Client) GenerateAdSpec(ctx context.Context, in AdSpecInput) (string, error) {
	prompt, err := AdSpecPrompt(in)
	if err != nil {
		return "", err
	}
	raw, err := c.Generate(ctx, c.cfg.SpecModel, prompt, 0.8)
	if err != nil {
		return "", fmt.Errorf("ad prompt generation failed: %w", err)
	}
	spec, err := ParseModelJSON(raw)
	if err != nil {
		return "", fmt.Errorf("ad prompt generation failed: %w", err)
	}
	return spec, nil
}

var (
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)(\w+):`)
)

// StripFences removes markdown code fences from a model reply.
func StripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseModelJSON cleans a model reply, repairs trailing commas and unquoted
// keys when the first parse fails, and returns two-space indented JSON with
// the model's key order preserved.
func ParseModelJSON(raw string) (string, error) {
	cleaned := StripFences(raw)
	if !json.Valid([]byte(cleaned)) {
		cleaned = trailingComma.ReplaceAllString(cleaned, "$1")
		cleaned = bareKey.ReplaceAllString(cleaned, `${1}"${2}":`)
		if !json.Valid([]byte(cleaned)) {
			return "", errors.New("model reply is not valid JSON")
		}
	}
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(cleaned), "", "  "); err != nil {
		return "", fmt.Errorf("indent model JSON: %w", err)
	}
	return out.String(), nil
}

const analysisPromptFormat = `As an expert advertising creative director, analyze this product image and create a comprehensive advertisement specification.

CURRENT AD SPECIFICATION:
%s

VISUAL ANALYSIS TASK:
1. Analyze the product image details, colors, lighting, and composition
2. Identify key visual elements that should be highlighted
3. Suggest optimal background and styling based on the product
4. Create specific design recommendations for professional advertisement

Provide a detailed response in this JSON format:
{
  "productAnalysis": {
    "colors": "dominant colors in the product",
    "style": "product aesthetic (modern, classic, premium, etc.)",
    "keyFeatures": "visually prominent features",
    "backgroundSuggestion": "ideal background for this product"
  },
  "adEnhancements": {
    "visualHierarchy": "how to arrange elements for maximum impact",
    "colorHarmony": "color scheme that complements the product",
    "lightingRecommendation": "lighting style for professional look",
    "compositionTips": "specific layout recommendations"
  },
  "imageGenerationPrompt": "detailed prompt for AI image generators like DALL-E, Midjourney, or Stable Diffusion to create this advertisement",
  "designSpecs": {
    "dimensions": "recommended aspect ratios",
    "typography": "font style recommendations",
    "brandingPlacement": "where to place logos and text"
  }
}`

// EnhancedSpec is the document returned by AnalyzeProductImage.
type EnhancedSpec struct {
	OriginalSpec         json.RawMessage `json:"originalSpec"`
	VisualAnalysis       string          `json:"visualAnalysis"`
	ImageGenerationReady bool            `json:"imageGenerationReady"`
	Timestamp            string          `json:"timestamp"`
}

// AnalyzeProductImage sends the product image and the ad specification to
// the vision model. The result is an EnhancedSpec encoded as a
// data:application/json;base64 URI.
func (c *Client) AnalyzeProductImage(ctx context.Context, adSpecJSON, imageURL string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", errors.New("product image URL is required for advertisement generation")
	}
	if c.api == nil {
		return "", ErrNotConfigured
	}
	if !json.Valid([]byte(adSpecJSON)) {
		return "", errors.New("advertisement analysis failed: ad specification is not valid JSON")
	}
	image, err := assets.Fetch(ctx, c.httpClient, imageURL)
	if err != nil {
		return "", fmt.Errorf("image processing failed: %w", err)
	}

	text, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: fmt.Sprintf(analysisPromptFormat, adSpecJSON)},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    image.DataURI(),
					Detail: openai.ImageURLDetailAuto,
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("advertisement analysis failed: %w", err)
	}

	doc, err := json.MarshalIndent(EnhancedSpec{
		OriginalSpec:         json.RawMessage(adSpecJSON),
		VisualAnalysis:       StripFences(text),
		ImageGenerationReady: true,
		Timestamp:            c.now().Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode enhanced spec: %w", err)
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(doc), nil
}
