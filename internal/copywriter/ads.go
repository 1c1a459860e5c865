package copywriter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Ad types accepted by AdPrompt.
const (
	AdImageDescription = "image-description"
	AdVideoScript      = "video-script"
	AdSocialMedia      = "social-media"
	AdBannerAd         = "banner-ad"
)

// AdProduct is the product context used in ad prompts.
type AdProduct struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Brand          string   `json:"brand,omitempty"`
	Features       []string `json:"features"`
	TargetAudience []string `json:"targetAudience"`
}

// AdOptions tunes an ad prompt.
type AdOptions struct {
	TargetAudience string            `json:"targetAudience"`
	AdStyle        string            `json:"adStyle"`
	Platform       string            `json:"platform"`
	CustomPrompt   string            `json:"customPrompt"`
	NewsContext    []json.RawMessage `json:"newsContext"`
	MarketingHooks []string          `json:"marketingHooks"`
}

// AdMetadata describes a generated ad.
type AdMetadata struct {
	Platform string   `json:"platform,omitempty"`
	Style    string   `json:"style,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Audience string   `json:"audience,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Sizes    []string `json:"sizes,omitempty"`
	Fallback bool     `json:"fallback,omitempty"`
}

// Ad is a generated advertisement.
type Ad struct {
	Type     string     `json:"type"`
	Content  string     `json:"content"`
	Metadata AdMetadata `json:"metadata"`
}

// ValidAdType reports whether t is a known ad type.
func ValidAdType(t string) bool {
	switch t {
	case AdImageDescription, AdVideoScript, AdSocialMedia, AdBannerAd:
		return true
	default:
		return false
	}
}

// AdMetadataFor returns the metadata block attached to an ad of adType.
func AdMetadataFor(adType string, opts AdOptions) AdMetadata {
	switch adType {
	case AdImageDescription:
		return AdMetadata{Platform: opts.Platform, Style: opts.AdStyle, Audience: opts.TargetAudience}
	case AdVideoScript:
		return AdMetadata{Platform: opts.Platform, Duration: "30 seconds", Audience: opts.TargetAudience}
	case AdSocialMedia:
		return AdMetadata{Platform: opts.Platform, Audience: opts.TargetAudience, Formats: []string{"feed", "story", "carousel"}}
	case AdBannerAd:
		return AdMetadata{
			Platform: opts.Platform,
			Sizes:    []string{"728x90", "300x250", "160x600", "320x50"},
			Audience: opts.TargetAudience,
		}
	default:
		return AdMetadata{}
	}
}

func productBlock(p AdProduct, audience string, withBrand bool) string {
	var b strings.Builder
	b.WriteString("Product Information:\n")
	fmt.Fprintf(&b, "- Title: %s\n", p.Title)
	fmt.Fprintf(&b, "- Description: %s\n", p.Description)
	fmt.Fprintf(&b, "- Category: %s\n", p.Category)
	if withBrand {
		fmt.Fprintf(&b, "- Brand: %s\n", orDefault(p.Brand, "Generic"))
	}
	fmt.Fprintf(&b, "- Key Features: %s\n", strings.Join(p.Features, ", "))
	fmt.Fprintf(&b, "- Target Audience: %s", audience)
	return b.String()
}

func customRequirements(opts AdOptions) string {
	if opts.CustomPrompt == "" {
		return ""
	}
	return "Additional Requirements: " + opts.CustomPrompt
}

// AdPrompt renders the prompt for adType.
func AdPrompt(adType string, p AdProduct, opts AdOptions) (string, error) {
	audience := orDefault(opts.TargetAudience, strings.Join(p.TargetAudience, ", "))
	switch adType {
	case AdImageDescription:
		return fmt.Sprintf(`
You are a professional advertising creative director and AI image generation specialist. Create detailed image ad descriptions for AI image generators.

%s

Market Context:
- Latest News Hooks: %s
- Platform: %s
- Ad Style: %s

Generate 4 different image ad concepts with:

For each concept provide:
1. **Visual Description**: Detailed scene description for AI image generation
2. **Composition**: Layout, angles, lighting details
3. **Color Palette**: Specific colors that match the brand/product
4. **Text Overlay**: Headlines and call-to-action text (max 8 words each)
5. **Style Notes**: Photography/illustration style, mood, atmosphere
6. **Technical Specs**: Aspect ratio recommendations, resolution notes
7. **Variation Theme**: Professional, Social Media, E-commerce, or Lifestyle focused

Make each concept unique and optimized for high engagement and conversion.
Include current market trends and hooks in the visual storytelling.
Ensure each ad has a distinct approach and target different customer motivations.

%s
`,
			productBlock(p, orDefault(audience, "General consumers"), true),
			joinOr(opts.MarketingHooks, "innovative, trending, premium quality"),
			orDefault(opts.Platform, "Multiple platforms"),
			orDefault(opts.AdStyle, "Modern and professional"),
			customRequirements(opts),
		), nil
	case AdVideoScript:
		return fmt.Sprintf(`
You are a professional video advertising script writer specializing in high-converting video ads.

%s

Market Trends: %s
Platform: %s
Video Style: %s

Create a compelling video ad script with:

**HOOK (0-3 seconds)**
- Attention-grabbing opening
- Pattern interrupt or curiosity gap

**PROBLEM/DESIRE (3-8 seconds)**
- Identify target audience pain point
- Create emotional connection

**SOLUTION/PRODUCT (8-20 seconds)**
- Introduce product as solution
- Highlight key benefits and features
- Show product in action

**PROOF/CREDIBILITY (20-25 seconds)**
- Social proof, testimonials, or stats
- Build trust and credibility

**CALL TO ACTION (25-30 seconds)**
- Clear, compelling CTA
- Create urgency or exclusivity

Include:
- Scene descriptions and visual cues
- Voiceover/dialogue text
- Music and sound effect suggestions
- Pacing and timing notes
- Platform-specific optimization tips

%s
`,
			productBlock(p, audience, false),
			joinOr(opts.MarketingHooks, "engaging, viral, authentic"),
			orDefault(opts.Platform, "Social Media"),
			orDefault(opts.AdStyle, "Engaging and dynamic"),
			customRequirements(opts),
		), nil
	case AdSocialMedia:
		platform := orDefault(opts.Platform, "Instagram")
		return fmt.Sprintf(`
You are a social media advertising expert specializing in platform-specific ad creation.

%s

Platform: %s
Current Trends: %s

Create platform-optimized social media ads:

**PRIMARY AD**
- Caption (platform-appropriate length)
- Hashtag strategy (relevant and trending)
- Visual concept description
- CTA integration

**CAROUSEL VERSION** (if applicable)
- Multi-slide concept
- Each slide content and purpose
- Swipe-worthy progression

**STORY VERSION**
- Story-specific format
- Interactive elements (polls, stickers, etc.)
- Urgency and FOMO tactics

**PLATFORM OPTIMIZATIONS**
- %s-specific best practices
- Audience targeting suggestions
- Posting time recommendations
- Engagement strategies

Include:
- Hook mechanisms for each format
- Social proof integration
- User-generated content ideas
- Community building elements

%s
`,
			productBlock(p, audience, false),
			platform,
			joinOr(opts.MarketingHooks, "authentic, relatable, engaging"),
			platform,
			customRequirements(opts),
		), nil
	case AdBannerAd:
		return fmt.Sprintf(`
You are a display advertising specialist creating high-converting banner ads.

%s

Platform: %s
Market Hooks: %s

Create banner ad designs for multiple sizes:

**LEADERBOARD (728x90)**
- Horizontal layout optimization
- Text hierarchy and readability
- CTA button placement
- Visual element positioning

**MEDIUM RECTANGLE (300x250)**
- Square format design
- Balance of text and visuals
- Compact messaging strategy
- Eye-catching elements

**SKYSCRAPER (160x600)**
- Vertical layout design
- Progressive information flow
- Visual storytelling approach
- Bottom CTA placement

**MOBILE BANNER (320x50)**
- Mobile-first design
- Thumb-friendly CTA
- Minimal text approach
- High contrast elements

For each size include:
- Layout specifications
- Color scheme
- Typography recommendations
- Image/graphic requirements
- CTA text and styling
- Animation suggestions (if applicable)

Design Principles:
- F-pattern reading flow
- 5-second rule compliance
- Brand consistency
- A/B testing variations

%s
`,
			productBlock(p, audience, false),
			orDefault(opts.Platform, "Google Display Network"),
			joinOr(opts.MarketingHooks, "compelling, click-worthy, professional"),
			customRequirements(opts),
		), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, adType)
	}
}

// DemoImageAd is the markdown returned when image-description generation is
// unavailable.
func DemoImageAd(p AdProduct, opts AdOptions) string {
	platform := orDefault(opts.Platform, "Instagram")
	style := orDefault(opts.AdStyle, "modern")
	audience := orDefault(opts.TargetAudience, "General consumers")

	firstFeature := "Premium Quality"
	if len(p.Features) > 0 && p.Features[0] != "" {
		firstFeature = p.Features[0]
	}
	featurePair := "Premium • Advanced"
	if len(p.Features) > 0 {
		n := min(2, len(p.Features))
		if joined := strings.Join(p.Features[:n], " • "); joined != "" {
			featurePair = joined
		}
	}

	return fmt.Sprintf(`## 4 Professional Ad Concepts for %[1]s

### Ad Concept 1: Premium Professional
**Visual Description**: Clean studio setup with %[1]s as hero product. Soft directional lighting, 45-degree angle placement on premium white surface.

**Text Overlay**: "%[2]s Redefined" | CTA: "Shop Now"

**Style**: Professional product photography, high-end commercial aesthetic

---

### Ad Concept 2: Lifestyle Integration
**Visual Description**: %[3]s lifestyle shot showing natural product usage in modern setting with authentic lighting.

**Text Overlay**: "Your Daily Game Changer" | CTA: "Discover More"

**Style**: %[4]s lifestyle photography appealing to %[5]s

---

### Ad Concept 3: Feature Showcase
**Visual Description**: Dynamic multi-angle composition highlighting key features with technical overlays.

**Text Overlay**: "Innovation Meets Performance" | Features: "%[6]s"

**Style**: Technical feature-focused with clean graphics

---

### Ad Concept 4: Social Proof
**Visual Description**: User-generated content style showing community satisfaction across scenarios.

**Text Overlay**: "Join Thousands Who Love It" | "★★★★★ 4.9/5 Rating" | CTA: "Join Community"

**Style**: Authentic social media aesthetic

---

**Campaign Strategy**: 4 concepts targeting different motivations - quality seekers, lifestyle integrators, feature enthusiasts, and community-driven buyers. Perfect for A/B testing on %[3]s with %[5]s audience.

**Demo Mode**: AI generation temporarily unavailable - using structured demo content.`,
		p.Title, firstFeature, platform, style, audience, featurePair)
}
