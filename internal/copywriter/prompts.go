// Package copywriter renders the marketing prompts sent to the text model and
// wraps the model calls that produce ad copy.
package copywriter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned for an unsupported generation or ad type.
var ErrUnknownType = errors.New("unknown generation type")

// Generation types accepted by GenerationPrompt.
const (
	TypeAdCopy            = "ad-copy"
	TypeSocialPost        = "social-post"
	TypeCampaignStrategy  = "campaign-strategy"
	TypeVisualDescription = "visual-description"
)

// GenerationRequest is a free-form copy request grounded on recent news.
type GenerationRequest struct {
	Type           string            `json:"type"`
	Prompt         string            `json:"prompt"`
	NewsContext    []json.RawMessage `json:"newsContext"`
	MarketingHooks []string          `json:"marketingHooks"`
	TargetAudience string            `json:"targetAudience"`
}

type generationTemplate struct {
	newsItems       int
	defaultHooks    string
	defaultAudience string
	body            string
}

var generationTemplates = map[string]generationTemplate{
	TypeAdCopy: {
		newsItems:       3,
		defaultHooks:    "innovative, trending, exclusive",
		defaultAudience: "general consumers",
		body: `
You are an expert copywriter specializing in high-converting ad copy.
Generate compelling advertising copy based on the latest market trends and news insights.

Latest News Context: %s
Marketing Hooks: %s
Target Audience: %s

Create 3 different ad copy variations with:
1. Headline (max 60 characters)
2. Description (max 150 characters)
3. Call-to-action (max 20 characters)

Focus on incorporating trending hooks and current market sentiment.
`,
	},
	TypeSocialPost: {
		newsItems:       3,
		defaultHooks:    "viral, trending, engaging",
		defaultAudience: "social media users",
		body: `
You are a social media expert creating viral content.
Generate engaging social media posts based on current trends and news.

Latest News Context: %s
Marketing Hooks: %s
Target Audience: %s

Create posts for:
1. Instagram (with hashtags)
2. Twitter/X (max 280 characters)
3. LinkedIn (professional tone)

Make them shareable and incorporate current trends.
`,
	},
	TypeCampaignStrategy: {
		newsItems:       5,
		defaultHooks:    "strategic, data-driven, results-focused",
		defaultAudience: "business decision makers",
		body: `
You are a marketing strategist developing comprehensive campaign strategies.
Create detailed marketing campaign plans based on current market conditions.

Latest News Context: %s
Marketing Hooks: %s
Target Audience: %s

Provide:
1. Campaign Overview
2. Target Audience Analysis
3. Key Messages
4. Channel Strategy
5. Success Metrics
6. Timeline
7. Budget Considerations

Base recommendations on current market trends and news insights.
`,
	},
	TypeVisualDescription: {
		newsItems:       3,
		defaultHooks:    "visually striking, memorable, impactful",
		defaultAudience: "visual content consumers",
		body: `
You are a creative director specializing in visual advertising concepts.
Create detailed descriptions for visual ads and creative assets.

Latest News Context: %s
Marketing Hooks: %s
Target Audience: %s

Describe:
1. Visual Concept
2. Color Palette
3. Typography Style
4. Key Visual Elements
5. Composition Layout
6. Mood and Tone
7. Call-to-action Placement

Make descriptions detailed enough for designers or AI image generators.
`,
	},
}

// ValidGenerationType reports whether t is a known generation type.
func ValidGenerationType(t string) bool {
	_, ok := generationTemplates[t]
	return ok
}

// GenerationPrompt renders the full prompt for req.
func GenerationPrompt(req GenerationRequest) (string, error) {
	tmpl, ok := generationTemplates[req.Type]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	system := fmt.Sprintf(tmpl.body,
		newsJSON(req.NewsContext, tmpl.newsItems),
		joinOr(req.MarketingHooks, tmpl.defaultHooks),
		orDefault(req.TargetAudience, tmpl.defaultAudience),
	)
	return system + "\n\nUser Request: " + req.Prompt, nil
}

func newsJSON(items []json.RawMessage, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func joinOr(values []string, def string) string {
	if joined := strings.Join(values, ", "); joined != "" {
		return joined
	}
	return def
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
