package copywriter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/metrics"
)

// TextModel generates text for a prompt.
type TextModel interface {
	Generate(ctx context.Context, model, prompt string, temperature float32) (string, error)
}

// Writer produces marketing copy with a text model.
type Writer struct {
	model     TextModel
	textModel string
	adModel   string
	logger    *zap.Logger
}

// NewWriter constructs a Writer. textModel serves free-form generation and
// adModel serves product ads.
func NewWriter(model TextModel, textModel, adModel string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{model: model, textModel: textModel, adModel: adModel, logger: logger.Named("copywriter")}
}

// Generate renders the prompt for req and returns the model's text.
func (w *Writer) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	prompt, err := GenerationPrompt(req)
	if err != nil {
		return "", err
	}
	content, err := w.model.Generate(ctx, w.textModel, prompt, 0)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", req.Type, err)
	}
	return content, nil
}

// GenerateAd produces an ad of adType. Image descriptions fall back to demo
// content when the model fails; other ad types return the error.
func (w *Writer) GenerateAd(ctx context.Context, adType string, p AdProduct, opts AdOptions) (Ad, error) {
	prompt, err := AdPrompt(adType, p, opts)
	if err != nil {
		return Ad{}, err
	}
	meta := AdMetadataFor(adType, opts)
	content, err := w.model.Generate(ctx, w.adModel, prompt, 0)
	if err != nil {
		if adType != AdImageDescription {
			return Ad{}, fmt.Errorf("generate %s: %w", adType, err)
		}
		w.logger.Warn("text model unavailable, using demo ad content",
			zap.String("ad_type", adType),
			zap.String("product", p.Title),
			zap.Error(err),
		)
		metrics.ObserveFallback("ads_generate")
		meta.Fallback = true
		return Ad{Type: adType, Content: DemoImageAd(p, opts), Metadata: meta}, nil
	}
	return Ad{Type: adType, Content: content, Metadata: meta}, nil
}
