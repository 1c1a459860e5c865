// Package detector decides when a fetched product page needs headless rendering.
package detector

import (
	"bytes"

	"github.com/JakeFAU/adforge/internal/adforge"
)

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
	// RenderedMarkers prove the page already carries server-rendered product
	// markup, which suppresses promotion.
	RenderedMarkers [][]byte
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = 2048
	}
	return &Heuristic{
		BodyLengthThreshold: threshold,
		RenderedMarkers: [][]byte{
			[]byte(`id="productTitle"`),
			[]byte(`data-automation-id="product-title"`),
		},
	}
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte(`id="root"`),
	[]byte(`id="app"`),
	[]byte("data-reactroot"),
}

// ShouldPromote decides whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(resp adforge.FetchResponse) bool {
	if resp.StatusCode != 200 || resp.UsedHeadless {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if containsAny(body, h.RenderedMarkers) {
		return false
	}
	if len(body) < h.BodyLengthThreshold && scriptShare(body) >= 25 {
		return true
	}
	return containsAny(body, spaMarkers)
}

func containsAny(body []byte, markers [][]byte) bool {
	for _, marker := range markers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptShare returns the percentage of body bytes inside <script> elements.
// Unterminated tags count to the end of the document.
func scriptShare(body []byte) int {
	lower := bytes.ToLower(body)
	total := len(lower)
	if total == 0 {
		return 0
	}
	openTag, closeTag := []byte("<script"), []byte("</script>")

	covered := 0
	for pos := 0; pos < total; {
		rel := bytes.Index(lower[pos:], openTag)
		if rel < 0 {
			break
		}
		start := pos + rel
		end := total
		if closeRel := bytes.Index(lower[start:], closeTag); closeRel >= 0 {
			end = start + closeRel + len(closeTag)
		}
		covered += end - start
		pos = end
	}
	return covered * 100 / total
}
