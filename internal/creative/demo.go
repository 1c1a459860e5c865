package creative

import (
	"encoding/base64"
	"fmt"
	"strings"
)

func placeholderImage(text string) string {
	return "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte(text))
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// DemoConcepts returns the four placeholder concepts served when image
// generation is unavailable.
func DemoConcepts(p Product, opts Options) []Concept {
	featureLine := "Advanced Features"
	if n := min(2, len(p.Features)); n > 0 {
		if joined := strings.Join(p.Features[:n], " • "); joined != "" {
			featureLine = joined
		}
	}
	demo := func(name, style, image string, brief conceptPrompt) Concept {
		brief.Concept = name
		return Concept{
			Concept:     name,
			Prompt:      brief.String(),
			ImageBase64: placeholderImage(image),
			Metadata:    Metadata{Platform: opts.Platform, Style: style, Type: "demo"},
		}
	}
	return []Concept{
		demo(ConceptProfessional, "professional",
			fmt.Sprintf("Professional ad concept for %s - Clean studio photography", p.Title),
			conceptPrompt{
				Headline:          fmt.Sprintf("%s %s Excellence", p.Brand, firstWord(p.Title)),
				Subtext:           "Premium Quality Guaranteed",
				VisualDescription: fmt.Sprintf("Clean studio setup with %s as hero product on premium white surface with soft directional lighting", p.Title),
				ColorPalette:      []string{"white", "silver", "brand-blue"},
				Composition:       "Center-focused with rule of thirds text placement",
				Style:             "Professional product photography",
				BackgroundContext: fmt.Sprintf("Premium %s studio environment", p.Category),
				CtaText:           "Shop Now",
				ProductPlacement:  "Hero position with 45-degree angle",
			}),
		demo(ConceptLifestyle, "lifestyle",
			fmt.Sprintf("Lifestyle ad concept for %s - Natural daily usage scenario", p.Title),
			conceptPrompt{
				Headline:          "Your Daily Game Changer",
				Subtext:           "Life Made Better",
				VisualDescription: fmt.Sprintf("%s lifestyle shot showing %s in natural daily use with authentic lighting", opts.Platform, p.Title),
				ColorPalette:      []string{"natural-tones", "earth-brown", "soft-green"},
				Composition:       "Environmental portrait with natural integration",
				Style:             "Lifestyle photography",
				BackgroundContext: "Modern home or outdoor setting",
				CtaText:           "Discover More",
				ProductPlacement:  "Naturally integrated in lifestyle scene",
			}),
		demo(ConceptFeatureHighlight, "technical",
			fmt.Sprintf("Feature highlight ad for %s - Technical specifications focus", p.Title),
			conceptPrompt{
				Headline:          "Innovation Meets Performance",
				Subtext:           featureLine,
				VisualDescription: fmt.Sprintf("Technical showcase of %s with feature callouts and specification overlays", p.Title),
				ColorPalette:      []string{"tech-blue", "electric-green", "carbon-black"},
				Composition:       "Multi-angle view with technical annotations",
				Style:             "Technical feature photography",
				BackgroundContext: "High-tech laboratory or clean workspace",
				CtaText:           "Learn More",
				ProductPlacement:  "Multiple angles showing key features",
			}),
		demo(ConceptSocialProof, "social",
			fmt.Sprintf("Social proof ad for %s - Community testimonials and ratings", p.Title),
			conceptPrompt{
				Headline:          "Join Thousands Who Love It",
				Subtext:           "★★★★★ 4.9/5 Rating",
				VisualDescription: fmt.Sprintf("User-generated content style showing community satisfaction with %s", p.Title),
				ColorPalette:      []string{"vibrant-colors", "community-orange", "trust-blue"},
				Composition:       "Collage of user scenarios and testimonials",
				Style:             "Social media aesthetic",
				BackgroundContext: "Diverse community usage scenarios",
				CtaText:           "Join Community",
				ProductPlacement:  "Featured in authentic user scenarios",
			}),
	}
}

// DemoVideoConcepts returns two placeholder static concepts and their demo
// videos.
func DemoVideoConcepts(p Product, opts Options) ([]Concept, []VideoConcept) {
	static := []Concept{
		{
			Concept: ConceptProfessional,
			Prompt: conceptPrompt{
				Concept:           ConceptProfessional,
				Headline:          fmt.Sprintf("%s %s Excellence", p.Brand, firstWord(p.Title)),
				Subtext:           "Premium Quality Guaranteed",
				VisualDescription: fmt.Sprintf("Clean studio setup with %s as hero product on premium white surface", p.Title),
				AnimationStyle:    "Smooth 360-degree rotation with elegant lighting effects",
			}.String(),
			ImageBase64: placeholderImage("Professional static ad for " + p.Title),
			Metadata:    Metadata{Platform: opts.Platform, Style: "professional", Type: "demo"},
		},
		{
			Concept: ConceptLifestyle,
			Prompt: conceptPrompt{
				Concept:           ConceptLifestyle,
				Headline:          "Your Daily Game Changer",
				Subtext:           "Life Made Better",
				VisualDescription: fmt.Sprintf("%s lifestyle shot showing %s in natural daily use", opts.Platform, p.Title),
				AnimationStyle:    "Natural interaction with smooth camera movements",
			}.String(),
			ImageBase64: placeholderImage("Lifestyle static ad for " + p.Title),
			Metadata:    Metadata{Platform: opts.Platform, Style: "lifestyle", Type: "demo"},
		},
	}

	videos := make([]VideoConcept, 0, len(static))
	for _, sc := range static {
		meta := sc.Metadata
		meta.VideoGeneration = "demo-veo3"
		meta.AnimationType = strings.ToLower(sc.Concept)
		meta.Type = "demo-video"
		videos = append(videos, VideoConcept{
			Concept:         sc.Concept,
			StaticImage:     sc.ImageBase64,
			VideoURL:        "demo:video:" + strings.ToLower(sc.Concept),
			AnimationPrompt: fmt.Sprintf("Demo %s animation for %s - 8 second professional video showcase", sc.Concept, p.Title),
			Prompt:          sc.Prompt,
			Metadata:        meta,
		})
	}
	return static, videos
}
