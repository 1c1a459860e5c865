package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/creative"
)

// Pipeline is the synchronous creative pipeline the runner delegates to.
type Pipeline interface {
	Static(ctx context.Context, req creative.Request) creative.StaticResult
	Video(ctx context.Context, req creative.Request) creative.VideoResult
}

// CreativeRunner executes static-ads and video-ads jobs.
type CreativeRunner struct {
	pipeline Pipeline
}

// NewCreativeRunner constructs a CreativeRunner.
func NewCreativeRunner(pipeline Pipeline) *CreativeRunner {
	return &CreativeRunner{pipeline: pipeline}
}

// Run decodes the payload, runs the pipeline for kind and returns the JSON
// result.
func (r *CreativeRunner) Run(ctx context.Context, kind adforge.JobKind, payload json.RawMessage) ([]byte, error) {
	req, err := DecodeRequest(payload)
	if err != nil {
		return nil, err
	}
	var result any
	switch kind {
	case adforge.JobKindStaticAds:
		result = r.pipeline.Static(ctx, req)
	case adforge.JobKindVideoAds:
		result = r.pipeline.Video(ctx, req)
	default:
		return nil, ErrInvalidKind
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return out, nil
}
