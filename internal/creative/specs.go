package creative

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/genai/gemini"
	"github.com/JakeFAU/adforge/internal/metrics"
)

// SpecModel writes structured ad specifications and grounds them in the
// product photo.
type SpecModel interface {
	GenerateAdSpec(ctx context.Context, in gemini.AdSpecInput) (string, error)
	AnalyzeProductImage(ctx context.Context, adSpecJSON, imageURL string) (string, error)
}

// SpecWriter produces concepts from the text model alone.
type SpecWriter struct {
	model  SpecModel
	clock  adforge.Clock
	logger *zap.Logger
}

// NewSpecWriter constructs a SpecWriter.
func NewSpecWriter(model SpecModel, clock adforge.Clock, logger *zap.Logger) *SpecWriter {
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecWriter{model: model, clock: clock, logger: logger.Named("adspec")}
}

// Concepts writes one specification per catalog concept and attaches the
// visual analysis of the product image. Concepts that fail are skipped.
func (w *SpecWriter) Concepts(ctx context.Context, p Product, opts Options) ([]Concept, error) {
	var price *float64
	if p.Price != nil {
		v := p.Price.Float64()
		price = &v
	}
	out := make([]Concept, 0, len(catalog))
	for _, bp := range catalog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec, err := w.model.GenerateAdSpec(ctx, gemini.AdSpecInput{
			Title:       p.Title,
			Description: p.Description,
			Price:       price,
			Category:    p.Category,
			Brand:       p.Brand,
			Features:    p.Features,
			Platform:    opts.Platform,
			Style:       bp.Style,
			Focus:       bp.Focus,
		})
		if err != nil {
			metrics.ObserveConcept("spec", "failure")
			w.logger.Warn("ad spec generation failed", zap.String("concept", bp.Name), zap.Error(err))
			continue
		}
		enhanced, err := w.model.AnalyzeProductImage(ctx, spec, p.Image)
		if err != nil {
			metrics.ObserveConcept("spec", "failure")
			w.logger.Warn("image analysis failed", zap.String("concept", bp.Name), zap.Error(err))
			continue
		}
		metrics.ObserveConcept("spec", "success")
		out = append(out, Concept{
			Concept:     bp.Name,
			Prompt:      spec,
			ImageBase64: enhanced,
			Metadata: Metadata{
				Platform:    opts.Platform,
				Style:       bp.Style,
				Focus:       bp.Focus,
				GeneratedAt: Timestamp(w.clock.Now()),
			},
		})
	}
	if len(out) == 0 {
		return nil, ErrAllConceptsFailed
	}
	return out, nil
}
