package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/analytics"
	"github.com/JakeFAU/adforge/internal/news"
)

type analyticsResponse struct {
	Success     bool             `json:"success"`
	Data        analytics.Report `json:"data"`
	TimeRange   string           `json:"timeRange"`
	GeneratedAt string           `json:"generatedAt"`
}

type trackRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type geminiHealthResponse struct {
	Success          bool   `json:"success"`
	Status           string `json:"status"`
	Model            string `json:"model,omitempty"`
	Response         string `json:"response,omitempty"`
	Error            string `json:"error,omitempty"`
	Timestamp        string `json:"timestamp"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
}

type falHealthResponse struct {
	Success          bool   `json:"success"`
	Status           string `json:"status"`
	Service          string `json:"service"`
	Model            string `json:"model,omitempty"`
	RequestID        string `json:"requestId,omitempty"`
	Error            string `json:"error,omitempty"`
	Timestamp        string `json:"timestamp"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
}

func (s *Server) searchNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		unavailable(w, "news search")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		query = news.DefaultQuery
	}
	writeJSON(w, http.StatusOK, s.deps.News.Search(r.Context(), query))
}

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	rangeLabel := r.URL.Query().Get("range")
	if rangeLabel == "" {
		rangeLabel = "7d"
	}
	now := s.deps.Clock.Now()
	writeJSON(w, http.StatusOK, analyticsResponse{
		Success:     true,
		Data:        analytics.Generate(rangeLabel, now, s.deps.Rand),
		TimeRange:   rangeLabel,
		GeneratedAt: s.now(),
	})
}

func (s *Server) trackEvent(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.logger.Warn("track event rejected", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to track event")
		return
	}
	if s.deps.Tracker != nil {
		s.deps.Tracker.Track(r.Context(), req.Event, req.Data)
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Event tracked successfully"})
}

func (s *Server) geminiHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Gemini == nil {
		writeJSON(w, http.StatusInternalServerError, geminiHealthResponse{Status: "error", Error: "gemini client not configured", Timestamp: s.now()})
		return
	}
	h := s.deps.Gemini.Health(r.Context())
	writeJSON(w, http.StatusOK, geminiHealthResponse{
		Success:          h.Status == "healthy",
		Status:           h.Status,
		Model:            h.Model,
		Response:         h.Response,
		Error:            h.Error,
		Timestamp:        s.now(),
		APIKeyConfigured: s.deps.Gemini.Configured(),
	})
}

func (s *Server) falHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fal == nil {
		writeJSON(w, http.StatusInternalServerError, falHealthResponse{Status: "error", Service: "fal-ai", Error: "fal client not configured", Timestamp: s.now()})
		return
	}
	h := s.deps.Fal.Health(r.Context())
	writeJSON(w, http.StatusOK, falHealthResponse{
		Success:          true,
		Status:           h.Status,
		Service:          h.Service,
		Model:            h.Model,
		RequestID:        h.RequestID,
		Error:            h.Error,
		Timestamp:        s.now(),
		APIKeyConfigured: s.deps.Fal.Configured(),
	})
}
