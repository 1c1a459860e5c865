package creative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/assets"
	"github.com/JakeFAU/adforge/internal/clock/system"
	"github.com/JakeFAU/adforge/internal/genai/fal"
	"github.com/JakeFAU/adforge/internal/metrics"
)

// MediaGenerator edits images and animates them.
type MediaGenerator interface {
	EditImage(ctx context.Context, req fal.ImageEditRequest) (fal.ImageResult, error)
	ImageToVideo(ctx context.Context, req fal.VideoRequest) (fal.VideoResult, error)
}

// StudioConfig wires a Studio.
type StudioConfig struct {
	Generator MediaGenerator
	// HTTPClient downloads generated images for inlining.
	HTTPClient *http.Client
	// Archive is optional. When set, every generated image is copied into it.
	Archive *assets.Archive
	Clock   adforge.Clock
	Logger  *zap.Logger
}

// Studio generates static and video concepts for a product.
type Studio struct {
	gen     MediaGenerator
	client  *http.Client
	archive *assets.Archive
	clock   adforge.Clock
	logger  *zap.Logger
}

// NewStudio constructs a Studio.
func NewStudio(cfg StudioConfig) *Studio {
	s := &Studio{
		gen:     cfg.Generator,
		client:  cfg.HTTPClient,
		archive: cfg.Archive,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.clock == nil {
		s.clock = system.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("studio")
	return s
}

// StaticConcepts edits the product image once per catalog concept. Concepts
// that fail are skipped.
func (s *Studio) StaticConcepts(ctx context.Context, p Product, opts Options) ([]Concept, error) {
	if p.Image == "" {
		return nil, ErrNoProductImage
	}
	out := make([]Concept, 0, len(catalog))
	for _, bp := range catalog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := s.staticConcept(ctx, bp, p, opts)
		if err != nil {
			metrics.ObserveConcept("static", "failure")
			s.logger.Warn("concept generation failed", zap.String("concept", bp.Name), zap.Error(err))
			continue
		}
		metrics.ObserveConcept("static", "success")
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrAllConceptsFailed
	}
	return out, nil
}

func (s *Studio) staticConcept(ctx context.Context, bp Blueprint, p Product, opts Options) (Concept, error) {
	prompt := bp.ImagePrompt(p)
	res, err := s.gen.EditImage(ctx, fal.ImageEditRequest{
		Prompt:       prompt,
		ImageURLs:    []string{p.Image},
		NumImages:    1,
		OutputFormat: "jpeg",
	})
	if err != nil {
		return Concept{}, err
	}
	if len(res.Images) == 0 || res.Images[0].URL == "" {
		return Concept{}, errors.New("no images generated")
	}
	imageURL := res.Images[0].URL

	brief := conceptPrompt{
		Concept:           bp.Name,
		Headline:          fmt.Sprintf("%s %s Excellence", valueOr(p.Brand, "Premium"), bp.Name),
		Subtext:           Subtext(bp.Name),
		VisualDescription: prompt,
		Style:             bp.Style,
		Focus:             bp.Focus,
		FalPrompt:         prompt,
		ImageGeneration:   "Fal.ai nano-banana/edit",
	}
	c := Concept{
		Concept:     bp.Name,
		Prompt:      brief.String(),
		ImageBase64: imageURL,
		ImageURL:    imageURL,
		Metadata: Metadata{
			Platform:    opts.Platform,
			Style:       bp.Style,
			Focus:       bp.Focus,
			GeneratedAt: Timestamp(s.clock.Now()),
			Generator:   "fal-ai",
			RequestID:   res.RequestID,
			Description: res.Description,
		},
	}

	media, err := assets.Fetch(ctx, s.client, imageURL)
	if err != nil {
		s.logger.Warn("could not inline generated image", zap.String("concept", bp.Name), zap.Error(err))
		return c, nil
	}
	c.ImageBase64 = media.DataURI()
	if s.archive != nil {
		uri, err := s.archive.Store(ctx, bp.Name, media)
		if err != nil {
			s.logger.Warn("could not archive generated image", zap.String("concept", bp.Name), zap.Error(err))
		} else {
			c.Metadata.ArchivedURI = uri
		}
	}
	return c, nil
}

// VideoConcepts animates each static concept that carries a usable image.
func (s *Studio) VideoConcepts(ctx context.Context, static []Concept, p Product, vo VideoOptions) ([]VideoConcept, error) {
	out := make([]VideoConcept, 0, len(static))
	for _, sc := range static {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imageURL := sc.ImageURL
		if imageURL == "" && strings.HasPrefix(sc.ImageBase64, "data:image") {
			imageURL = sc.ImageBase64
		}
		if imageURL == "" {
			s.logger.Info("skipping concept without image", zap.String("concept", sc.Concept))
			continue
		}

		animation := AnimationPrompt(sc.Concept, p.Title)
		res, err := s.gen.ImageToVideo(ctx, fal.VideoRequest{
			Prompt:        animation,
			ImageURL:      imageURL,
			AspectRatio:   vo.AspectRatio,
			Duration:      "8s",
			GenerateAudio: vo.Audio(),
			Resolution:    vo.Resolution,
		})
		if err != nil {
			metrics.ObserveConcept("video", "failure")
			s.logger.Warn("video generation failed", zap.String("concept", sc.Concept), zap.Error(err))
			continue
		}
		metrics.ObserveConcept("video", "success")

		meta := sc.Metadata
		meta.VideoGeneration = "fal-ai-veo3"
		meta.VideoRequestID = res.RequestID
		meta.AnimationType = AnimationType(sc.Concept)
		meta.GeneratedAt = Timestamp(s.clock.Now())
		out = append(out, VideoConcept{
			Concept:         sc.Concept,
			StaticImage:     imageURL,
			VideoURL:        res.Video.URL,
			AnimationPrompt: animation,
			Prompt:          sc.Prompt,
			Metadata:        meta,
		})
	}
	if len(out) == 0 {
		return nil, ErrAllConceptsFailed
	}
	return out, nil
}
