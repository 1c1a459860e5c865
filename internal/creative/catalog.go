// Package creative turns a product into advertisement concepts: static
// images edited from the product photo, short videos animated from those
// images, and the demo content served when generation is unavailable.
package creative

import (
	"fmt"
	"strings"
)

// Concept names, in catalog order.
const (
	ConceptProfessional     = "Professional"
	ConceptLifestyle        = "Lifestyle"
	ConceptFeatureHighlight = "Feature Highlight"
	ConceptSocialProof      = "Social Proof"
)

// Blueprint is a named creative variant.
type Blueprint struct {
	Name  string
	Focus string
	Style string
}

var catalog = []Blueprint{
	{Name: ConceptProfessional, Focus: "Clean studio photography with premium branding", Style: "professional"},
	{Name: ConceptLifestyle, Focus: "Natural usage in everyday scenarios", Style: "lifestyle"},
	{Name: ConceptFeatureHighlight, Focus: "Technical specifications and key benefits", Style: "technical"},
	{Name: ConceptSocialProof, Focus: "Community engagement and user testimonials", Style: "social"},
}

// Catalog returns the concept blueprints in generation order.
func Catalog() []Blueprint {
	out := make([]Blueprint, len(catalog))
	copy(out, catalog)
	return out
}

// ImagePrompt is the image-edit instruction for the blueprint.
func (b Blueprint) ImagePrompt(p Product) string {
	switch b.Name {
	case ConceptProfessional:
		return fmt.Sprintf(`Create a professional advertisement for %[1]s. Clean studio setup with premium white background, soft directional lighting, modern typography showing "%[1]s" prominently. Professional product photography style with elegant branding elements. High-end commercial aesthetic.`, p.Title)
	case ConceptLifestyle:
		return fmt.Sprintf(`Transform this into a lifestyle advertisement showing %s in natural daily use. Modern home or outdoor setting, authentic lighting, people using the product naturally. Instagram-worthy lifestyle photography with warm, inviting atmosphere.`, p.Title)
	case ConceptFeatureHighlight:
		features := "premium features"
		if n := min(3, len(p.Features)); n > 0 {
			features = strings.Join(p.Features[:n], ", ")
		}
		return fmt.Sprintf(`Create a feature-focused advertisement for %s highlighting key features: %s. Technical showcase with feature callouts, specification overlays, multi-angle views. High-tech laboratory or clean workspace background.`, p.Title, features)
	case ConceptSocialProof:
		return fmt.Sprintf(`Design a social proof advertisement for %s showing community satisfaction. User-generated content style with diverse usage scenarios, testimonials aesthetic, vibrant community colors, 5-star rating elements. Social media optimized design.`, p.Title)
	default:
		return fmt.Sprintf("Create an advertisement for %s.", p.Title)
	}
}

// Subtext returns the supporting line printed under a concept headline.
func Subtext(concept string) string {
	switch concept {
	case ConceptProfessional:
		return "Premium Quality Guaranteed"
	case ConceptLifestyle:
		return "Life Made Better"
	case ConceptFeatureHighlight:
		return "Innovation Meets Performance"
	case ConceptSocialProof:
		return "★★★★★ 4.9/5 Rating"
	default:
		return "Exceptional Quality"
	}
}

// AnimationPrompt describes how a concept's still image should move.
func AnimationPrompt(concept, productTitle string) string {
	name := productTitle
	if name == "" {
		name = "product"
	}
	switch concept {
	case ConceptProfessional:
		return fmt.Sprintf("Professional product showcase: The %s slowly rotates 360 degrees on a premium white background. Soft lighting creates elegant shadows that dance around the product. Text elements fade in gracefully with smooth typography animations. Camera gently zooms in to highlight premium details. Clean, sophisticated motion emphasizing luxury and quality.", name)
	case ConceptLifestyle:
		return fmt.Sprintf("Lifestyle story: Scene comes to life showing the %s in natural daily use. People interact naturally with the product in a modern, warm environment. Smooth camera movements follow the action. Background elements like plants or home decor gently sway. Warm lighting shifts subtly to create an inviting atmosphere. Authentic, relatable motion that shows real-world benefits.", name)
	case ConceptFeatureHighlight:
		return fmt.Sprintf("Technical showcase: Dynamic feature callouts animate in sequence highlighting key benefits of %s. The product rotates to show different angles while specification overlays appear with smooth transitions. High-tech particle effects and subtle glows emphasize innovation. Camera moves with precision to focus on specific features. Modern, tech-forward animation style.", name)
	case ConceptSocialProof:
		return fmt.Sprintf("Community celebration: Multiple usage scenarios of %s blend together seamlessly. Happy customers appear using the product in various settings. Star ratings and testimonial text animate in with energetic transitions. Vibrant colors pulse gently. Camera movements are dynamic and engaging, showing diverse community satisfaction. Social media aesthetic with authentic energy.", name)
	default:
		return fmt.Sprintf("The %s comes to life with smooth, professional animation. Elegant camera movements showcase the product from multiple angles. Text elements appear with smooth transitions. Background elements subtly animate to create visual interest while maintaining focus on the product.", name)
	}
}

// AnimationType labels the motion used for a concept's video.
func AnimationType(concept string) string {
	switch concept {
	case ConceptProfessional:
		return "product-rotation"
	case ConceptLifestyle:
		return "lifestyle-story"
	case ConceptFeatureHighlight:
		return "feature-showcase"
	case ConceptSocialProof:
		return "community-montage"
	default:
		return "general-animation"
	}
}
