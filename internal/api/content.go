package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/copywriter"
	"github.com/JakeFAU/adforge/internal/product"
)

const geminiMissing = "Gemini API key not configured"

type contentResponse struct {
	Success   bool   `json:"success"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type adsGenerateRequest struct {
	ProductID      string            `json:"productId"`
	ProductData    json.RawMessage   `json:"productData"`
	AdType         string            `json:"adType"`
	TargetAudience string            `json:"targetAudience"`
	AdStyle        string            `json:"adStyle"`
	Platform       string            `json:"platform"`
	CustomPrompt   string            `json:"customPrompt"`
	NewsContext    []json.RawMessage `json:"newsContext"`
	MarketingHooks []string          `json:"marketingHooks"`
}

type adProductRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type adResponse struct {
	Success   bool          `json:"success"`
	Ad        copywriter.Ad `json:"ad"`
	Product   adProductRef  `json:"product"`
	Timestamp string        `json:"timestamp"`
}

func (s *Server) geminiReady() bool {
	return s.deps.Gemini != nil && s.deps.Gemini.Configured() && s.deps.Writer != nil
}

func (s *Server) generateContent(w http.ResponseWriter, r *http.Request) {
	var req copywriter.GenerationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}
	if !s.geminiReady() {
		writeError(w, http.StatusBadRequest, geminiMissing)
		return
	}
	if !copywriter.ValidGenerationType(req.Type) {
		writeError(w, http.StatusBadRequest, "Invalid generation type")
		return
	}
	content, err := s.deps.Writer.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("content generation failed", zap.String("type", req.Type), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}
	writeJSON(w, http.StatusOK, contentResponse{Success: true, Content: content, Timestamp: s.now()})
}

func (s *Server) generateTextAd(w http.ResponseWriter, r *http.Request) {
	if !s.geminiReady() {
		writeError(w, http.StatusBadRequest, geminiMissing)
		return
	}
	var req adsGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate ad")
		return
	}

	adProduct, ok := s.resolveAdProduct(r, req)
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found and no product data provided")
		return
	}
	if !copywriter.ValidAdType(req.AdType) {
		writeError(w, http.StatusBadRequest, "Invalid ad type")
		return
	}

	opts := copywriter.AdOptions{
		TargetAudience: req.TargetAudience,
		AdStyle:        req.AdStyle,
		Platform:       req.Platform,
		CustomPrompt:   req.CustomPrompt,
		NewsContext:    req.NewsContext,
		MarketingHooks: req.MarketingHooks,
	}
	ad, err := s.deps.Writer.GenerateAd(r.Context(), req.AdType, adProduct, opts)
	if err != nil {
		s.logger.Error("ad generation failed", zap.String("ad_type", req.AdType), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate ad")
		return
	}
	id := adProduct.ID
	if id == "" {
		id = req.ProductID
	}
	writeJSON(w, http.StatusOK, adResponse{
		Success:   true,
		Ad:        ad,
		Product:   adProductRef{ID: id, Title: adProduct.Title, Category: adProduct.Category},
		Timestamp: s.now(),
	})
}

// resolveAdProduct prefers the stored product and falls back to the inline
// productData.
func (s *Server) resolveAdProduct(r *http.Request, req adsGenerateRequest) (copywriter.AdProduct, bool) {
	if req.ProductID != "" && s.deps.Store != nil {
		p, err := s.deps.Store.Get(r.Context(), req.ProductID)
		if err == nil {
			return adProductFrom(p), true
		}
		s.logger.Debug("stored product unavailable, checking productData", zap.String("product_id", req.ProductID), zap.Error(err))
	}
	if len(req.ProductData) == 0 || string(req.ProductData) == "null" {
		return copywriter.AdProduct{}, false
	}
	var inline copywriter.AdProduct
	if err := json.Unmarshal(req.ProductData, &inline); err != nil {
		s.logger.Debug("productData is not a product", zap.Error(err))
		return copywriter.AdProduct{}, false
	}
	if inline.ID == "" {
		var withMongoID struct {
			ID string `json:"_id"`
		}
		if json.Unmarshal(req.ProductData, &withMongoID) == nil {
			inline.ID = withMongoID.ID
		}
	}
	return inline, true
}

func adProductFrom(p product.Product) copywriter.AdProduct {
	return copywriter.AdProduct{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category,
		Brand:          p.Brand,
		Features:       p.Features,
		TargetAudience: p.TargetAudience,
	}
}
