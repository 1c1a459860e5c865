package creative

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/JakeFAU/adforge/internal/clock/system"
)

var (
	// ErrNoProductImage is returned when a product has no image to edit.
	ErrNoProductImage = errors.New("product image required for AI generation")
	// ErrAllConceptsFailed is returned when no concept could be generated.
	ErrAllConceptsFailed = errors.New("all concept generation attempts failed")
)

// Metadata describes how a concept was produced.
type Metadata struct {
	Platform        string `json:"platform,omitempty"`
	Style           string `json:"style,omitempty"`
	Focus           string `json:"focus,omitempty"`
	Type            string `json:"type,omitempty"`
	GeneratedAt     string `json:"generatedAt,omitempty"`
	Generator       string `json:"generator,omitempty"`
	RequestID       string `json:"requestId,omitempty"`
	Description     string `json:"description,omitempty"`
	ArchivedURI     string `json:"archivedUri,omitempty"`
	VideoGeneration string `json:"videoGeneration,omitempty"`
	VideoRequestID  string `json:"videoRequestId,omitempty"`
	AnimationType   string `json:"animationType,omitempty"`
}

// Concept is a generated static advertisement.
type Concept struct {
	Concept     string   `json:"concept"`
	Prompt      string   `json:"prompt"`
	ImageBase64 string   `json:"imageBase64,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// VideoConcept is a static concept animated into a short video.
type VideoConcept struct {
	Concept         string   `json:"concept"`
	StaticImage     string   `json:"staticImage"`
	VideoURL        string   `json:"videoUrl"`
	AnimationPrompt string   `json:"animationPrompt"`
	Prompt          string   `json:"prompt"`
	Metadata        Metadata `json:"metadata"`
}

// conceptPrompt is the structured brief stored in Concept.Prompt.
type conceptPrompt struct {
	Concept           string   `json:"concept"`
	Headline          string   `json:"headline"`
	Subtext           string   `json:"subtext"`
	VisualDescription string   `json:"visualDescription"`
	ColorPalette      []string `json:"colorPalette,omitempty"`
	Composition       string   `json:"composition,omitempty"`
	Style             string   `json:"style,omitempty"`
	Focus             string   `json:"focus,omitempty"`
	BackgroundContext string   `json:"backgroundContext,omitempty"`
	CtaText           string   `json:"ctaText,omitempty"`
	ProductPlacement  string   `json:"productPlacement,omitempty"`
	FalPrompt         string   `json:"falPrompt,omitempty"`
	ImageGeneration   string   `json:"imageGeneration,omitempty"`
	AnimationStyle    string   `json:"animationStyle,omitempty"`
}

func (p conceptPrompt) String() string {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return p.Concept
	}
	return string(raw)
}

// Timestamp formats t the way generated metadata records it.
func Timestamp(t time.Time) string {
	return system.Timestamp(t)
}
