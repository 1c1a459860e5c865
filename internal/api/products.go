package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/product"
	"github.com/JakeFAU/adforge/internal/scraper"
)

type createProductRequest struct {
	ProductURL  string          `json:"productUrl"`
	ManualData  json.RawMessage `json:"manualData"`
	ProductData json.RawMessage `json:"productData"`
	AmazonURL   string          `json:"amazonUrl"`
}

type productResponse struct {
	Success bool            `json:"success"`
	Product product.Product `json:"product"`
	Message string          `json:"message,omitempty"`
}

type productListResponse struct {
	Success  bool              `json:"success"`
	Products []product.Product `json:"products"`
	Error    string            `json:"error,omitempty"`
}

type scrapeResponse struct {
	Success     bool            `json:"success"`
	ProductData product.Scraped `json:"productData"`
	Source      string          `json:"source"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		unavailable(w, "product store")
		return
	}
	filter := product.Filter{Category: r.URL.Query().Get("category"), Limit: product.DefaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	products, err := s.deps.Store.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, productListResponse{
			Products: []product.Product{},
			Error:    "Failed to fetch products. Please check database connection.",
		})
		return
	}
	if products == nil {
		products = []product.Product{}
	}
	writeJSON(w, http.StatusOK, productListResponse{Success: true, Products: products})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	if s.deps.Products == nil {
		unavailable(w, "product store")
		return
	}
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	var save product.SaveRequest
	switch {
	case len(req.ProductData) > 0 && req.AmazonURL != "":
		var scraped product.Scraped
		if err := json.Unmarshal(req.ProductData, &scraped); err != nil {
			writeError(w, http.StatusBadRequest, "productData is not a valid product")
			return
		}
		save = product.SaveRequest{
			Product:   product.FromScraped(scraped, req.AmazonURL, s.cfg.Scraper.KeepRaw),
			SourceURL: req.AmazonURL,
		}
	case req.ProductURL != "":
		if !strings.Contains(req.ProductURL, "amazon.") {
			writeError(w, http.StatusBadRequest, "Currently only Amazon URLs are supported")
			return
		}
		if s.deps.Scraper == nil {
			unavailable(w, "scraper")
			return
		}
		res := s.deps.Scraper.Scrape(r.Context(), req.ProductURL)
		save = product.SaveRequest{
			Product:   product.FromScraped(res.Product, req.ProductURL, s.cfg.Scraper.KeepRaw && !res.Demo),
			SourceURL: req.ProductURL,
		}
	case len(req.ManualData) > 0 && string(req.ManualData) != "null":
		var manual product.Product
		if err := json.Unmarshal(req.ManualData, &manual); err != nil {
			writeError(w, http.StatusBadRequest, "manualData is not a valid product")
			return
		}
		manual.ID = ""
		save = product.SaveRequest{Product: manual, SourceURL: manual.AmazonURL}
	default:
		writeError(w, http.StatusBadRequest, "Either productUrl, productData, or manualData is required")
		return
	}

	saved, created, err := s.deps.Products.Save(r.Context(), save)
	if err != nil {
		s.logger.Error("save product failed", zap.String("title", save.Product.Title), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "Failed to save product to database",
			Details: err.Error(),
		})
		return
	}
	msg := "Product already exists"
	if created {
		msg = "Product created successfully"
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: saved, Message: msg})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		unavailable(w, "product store")
		return
	}
	p, err := s.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: p})
}

func (s *Server) replaceProduct(w http.ResponseWriter, r *http.Request) {
	if s.deps.Products == nil {
		unavailable(w, "product store")
		return
	}
	var p product.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	updated, err := s.deps.Products.Overwrite(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeProductError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: updated})
}

func (s *Server) writeProductError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, product.ErrDuplicate):
		writeError(w, http.StatusConflict, "Another product already uses this Amazon URL")
	case errors.As(err, &verrs):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("product request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to access product", Details: err.Error()})
	}
}

func (s *Server) scrapeProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to scrape product")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if !strings.Contains(req.URL, "amazon.") && !strings.Contains(req.URL, "amzn.") {
		writeError(w, http.StatusBadRequest, "Only Amazon URLs are supported")
		return
	}
	if s.deps.Scraper == nil {
		unavailable(w, "scraper")
		return
	}
	res := s.deps.Scraper.Scrape(r.Context(), req.URL)
	if res.Source == "" {
		res.Source = scraper.SourceDemo
	}
	writeJSON(w, http.StatusOK, scrapeResponse{Success: true, ProductData: res.Product, Source: res.Source})
}
