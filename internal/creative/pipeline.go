package creative

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/metrics"
)

var errNoVideoImage = errors.New("product image required for AI video generation")

// StaticResult is the outcome of a static creative request.
type StaticResult struct {
	Success     bool        `json:"success"`
	AdConcepts  []Concept   `json:"adConcepts"`
	ProductInfo ProductInfo `json:"productInfo"`
	Note        string      `json:"note"`
	Demo        bool        `json:"-"`
}

// VideoResult is the outcome of a video creative request.
type VideoResult struct {
	Success          bool           `json:"success"`
	StaticAdConcepts []Concept      `json:"staticAdConcepts"`
	VideoAdConcepts  []VideoConcept `json:"videoAdConcepts"`
	ProductInfo      ProductInfo    `json:"productInfo"`
	Note             string         `json:"note"`
	Demo             bool           `json:"-"`
}

// Pipeline runs creative requests and falls back to demo content so that a
// validated request always yields concepts.
type Pipeline struct {
	studio *Studio
	specs  *SpecWriter
	logger *zap.Logger
}

// NewPipeline constructs a Pipeline. specs may be nil when no text model is
// configured.
func NewPipeline(studio *Studio, specs *SpecWriter, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{studio: studio, specs: specs, logger: logger.Named("creative")}
}

// Static generates image concepts for a validated request.
func (p *Pipeline) Static(ctx context.Context, req Request) StaticResult {
	prod := Normalize(req.ProductData)
	opts := req.Options()

	concepts, err := p.studio.StaticConcepts(ctx, prod, opts)
	if err != nil {
		p.logger.Warn("image generation failed, using demo concepts", zap.String("product", prod.Title), zap.Error(err))
		metrics.ObserveFallback("generate_ad")
		return StaticResult{
			Success:     true,
			AdConcepts:  DemoConcepts(prod, opts),
			ProductInfo: prod.Info(),
			Note:        "Demo content - Fal.ai generation failed: " + err.Error(),
			Demo:        true,
		}
	}
	return StaticResult{
		Success:     true,
		AdConcepts:  concepts,
		ProductInfo: prod.Info(),
		Note:        fmt.Sprintf("Generated %d real AI advertisements using Fal.ai", len(concepts)),
	}
}

// Video generates image concepts and animates them. A video failure keeps
// the static concepts; a static failure yields demo content.
func (p *Pipeline) Video(ctx context.Context, req Request) VideoResult {
	prod := Normalize(req.ProductData)
	opts := req.Options()
	var vo VideoOptions
	if req.VideoOptions != nil {
		vo = *req.VideoOptions
	}

	static, err := p.studio.StaticConcepts(ctx, prod, opts)
	if err != nil {
		if errors.Is(err, ErrNoProductImage) {
			err = errNoVideoImage
		}
		p.logger.Warn("static generation failed, using demo video concepts", zap.String("product", prod.Title), zap.Error(err))
		metrics.ObserveFallback("generate_video_ad")
		demoStatic, demoVideo := DemoVideoConcepts(prod, opts)
		return VideoResult{
			Success:          true,
			StaticAdConcepts: demoStatic,
			VideoAdConcepts:  demoVideo,
			ProductInfo:      prod.Info(),
			Note:             "Demo content - Video generation failed: " + err.Error(),
			Demo:             true,
		}
	}

	videos, err := p.studio.VideoConcepts(ctx, static, prod, vo)
	if err != nil {
		p.logger.Warn("video generation failed, returning static concepts", zap.String("product", prod.Title), zap.Error(err))
		metrics.ObserveFallback("generate_video_ad")
		return VideoResult{
			Success:          true,
			StaticAdConcepts: static,
			VideoAdConcepts:  []VideoConcept{},
			ProductInfo:      prod.Info(),
			Note:             "Static ads generated successfully - Video generation failed: " + err.Error(),
		}
	}
	return VideoResult{
		Success:          true,
		StaticAdConcepts: static,
		VideoAdConcepts:  videos,
		ProductInfo:      prod.Info(),
		Note: fmt.Sprintf("Generated %d static + %d video advertisements using Fal.ai + Veo 3",
			len(static), len(videos)),
	}
}

// Specs writes text-model concepts, falling back to demo concepts.
func (p *Pipeline) Specs(ctx context.Context, req Request) StaticResult {
	prod := Normalize(req.ProductData)
	opts := req.Options()
	if p.specs == nil {
		return p.specsFallback(prod, opts, "text model is not configured")
	}
	concepts, err := p.specs.Concepts(ctx, prod, opts)
	if err != nil {
		p.logger.Warn("ad spec generation failed, using demo concepts", zap.String("product", prod.Title), zap.Error(err))
		return p.specsFallback(prod, opts, err.Error())
	}
	return StaticResult{
		Success:     true,
		AdConcepts:  concepts,
		ProductInfo: prod.Info(),
		Note:        fmt.Sprintf("Generated %d ad specifications with visual analysis", len(concepts)),
	}
}

func (p *Pipeline) specsFallback(prod Product, opts Options, reason string) StaticResult {
	metrics.ObserveFallback("ad_specs")
	return StaticResult{
		Success:     true,
		AdConcepts:  DemoConcepts(prod, opts),
		ProductInfo: prod.Info(),
		Note:        "Demo content - ad specification generation failed: " + reason,
		Demo:        true,
	}
}
