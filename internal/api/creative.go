package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/creative"
)

const falMissing = "Fal.ai API key not configured (set FAL_KEY environment variable)"

func (s *Server) falReady() bool {
	return s.deps.Fal != nil && s.deps.Fal.Configured()
}

// decodeCreative reads and validates a creative request. Failures are
// reported as 500 with the validation message.
func (s *Server) decodeCreative(w http.ResponseWriter, r *http.Request, fallback string) (creative.Request, bool) {
	var req creative.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return req, false
	}
	if err := req.Validate(); err != nil {
		s.logger.Warn("invalid creative request", zap.Error(err))
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		writeError(w, http.StatusInternalServerError, msg)
		return req, false
	}
	if s.deps.Creative == nil {
		unavailable(w, "creative pipeline")
		return req, false
	}
	return req, true
}

func (s *Server) generateStaticAds(w http.ResponseWriter, r *http.Request) {
	if !s.falReady() {
		writeError(w, http.StatusBadRequest, falMissing)
		return
	}
	req, ok := s.decodeCreative(w, r, "Failed to generate advertisement")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Creative.Static(r.Context(), req))
}

func (s *Server) generateVideoAds(w http.ResponseWriter, r *http.Request) {
	if !s.falReady() {
		writeError(w, http.StatusBadRequest, falMissing)
		return
	}
	req, ok := s.decodeCreative(w, r, "Failed to generate video advertisement")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Creative.Video(r.Context(), req))
}

func (s *Server) generateAdSpecs(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCreative(w, r, "Failed to generate ad specifications")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Creative.Specs(r.Context(), req))
}
