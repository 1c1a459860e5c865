// Package fal is a client for the fal.ai queue API used for image editing
// and image-to-video generation.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/policy/retry"
	"github.com/JakeFAU/adforge/internal/vendorhttp"
)

// Defaults for the queue endpoint and models.
const (
	DefaultBaseURL    = "https://queue.fal.run"
	DefaultImageModel = "fal-ai/nano-banana/edit"
	DefaultVideoModel = "fal-ai/veo3/fast/image-to-video"
)

// Queue states reported by the status endpoint.
const (
	statusInQueue    = "IN_QUEUE"
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("fal API key is not configured")
	// ErrNoOutput is returned when a completed request carries no media.
	ErrNoOutput = errors.New("fal returned no output")
)

// Config controls the client.
type Config struct {
	APIKey       string
	BaseURL      string
	ImageModel   string
	VideoModel   string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client submits requests to the queue and polls them to completion.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Client. httpClient should carry the vendor transport.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = DefaultVideoModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Minute
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger.Named("fal")}
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// File is a generated media file.
type File struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	FileName    string `json:"file_name,omitempty"`
}

// ImageEditRequest is the input of the image edit model.
type ImageEditRequest struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls"`
	NumImages    int      `json:"num_images"`
	OutputFormat string   `json:"output_format,omitempty"`
	SyncMode     bool     `json:"sync_mode,omitempty"`
}

// ImageResult is the output of the image edit model.
type ImageResult struct {
	Images      []File `json:"images"`
	Description string `json:"description"`
	RequestID   string `json:"-"`
}

// VideoRequest is the input of the image-to-video model.
type VideoRequest struct {
	Prompt        string `json:"prompt"`
	ImageURL      string `json:"image_url"`
	AspectRatio   string `json:"aspect_ratio"`
	Duration      string `json:"duration"`
	GenerateAudio bool   `json:"generate_audio"`
	Resolution    string `json:"resolution"`
}

// VideoResult is the output of the image-to-video model.
type VideoResult struct {
	Video     *File  `json:"video"`
	RequestID string `json:"-"`
}

// EditImage runs the image edit model. NumImages defaults to 1 and the
// output format to jpeg.
func (c *Client) EditImage(ctx context.Context, req ImageEditRequest) (ImageResult, error) {
	if req.NumImages <= 0 {
		req.NumImages = 1
	}
	if req.OutputFormat == "" {
		req.OutputFormat = "jpeg"
	}
	var out ImageResult
	id, err := c.Subscribe(ctx, c.cfg.ImageModel, req, &out)
	if err != nil {
		return ImageResult{}, fmt.Errorf("fal image generation failed: %w", err)
	}
	out.RequestID = id
	c.logger.Info("image generation completed",
		zap.String("request_id", id),
		zap.Int("images", len(out.Images)),
	)
	return out, nil
}

// ImageToVideo animates an image. Aspect ratio defaults to auto, duration to
// 8s and resolution to 720p.
func (c *Client) ImageToVideo(ctx context.Context, req VideoRequest) (VideoResult, error) {
	if req.AspectRatio == "" {
		req.AspectRatio = "auto"
	}
	if req.Duration == "" {
		req.Duration = "8s"
	}
	if req.Resolution == "" {
		req.Resolution = "720p"
	}
	var out VideoResult
	id, err := c.Subscribe(ctx, c.cfg.VideoModel, req, &out)
	if err != nil {
		return VideoResult{}, fmt.Errorf("fal video generation failed: %w", err)
	}
	if out.Video == nil || out.Video.URL == "" {
		return VideoResult{}, fmt.Errorf("fal video generation failed: %w", ErrNoOutput)
	}
	out.RequestID = id
	c.logger.Info("video generation completed", zap.String("request_id", id), zap.String("video_url", out.Video.URL))
	return out, nil
}

// Health is the result of a test generation.
type Health struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Model     string `json:"model,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Health submits a small image edit and reports whether it completed.
func (c *Client) Health(ctx context.Context) Health {
	var out ImageResult
	id, err := c.Subscribe(ctx, c.cfg.ImageModel, ImageEditRequest{
		Prompt:    "test image generation",
		ImageURLs: []string{"https://via.placeholder.com/500x500.jpg"},
		NumImages: 1,
	}, &out)
	if err != nil {
		return Health{Status: "error", Service: "fal-ai", Error: err.Error()}
	}
	return Health{
		Status:    "healthy",
		Service:   "fal-ai",
		Model:     modelLabel(c.cfg.ImageModel) + " + " + modelLabel(c.cfg.VideoModel),
		RequestID: id,
	}
}

func modelLabel(model string) string {
	return strings.TrimPrefix(model, "fal-ai/")
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status string `json:"status"`
	Logs   []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

// Subscribe submits input to model, waits for the queued request to complete
// and decodes the result into out. It returns the request id.
func (c *Client) Subscribe(ctx context.Context, model string, input, out any) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}
	var submitted submitResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/"+model, body, &submitted); err != nil {
		return "", fmt.Errorf("submit %s: %w", model, err)
	}
	if submitted.RequestID == "" {
		return "", fmt.Errorf("submit %s: missing request id", model)
	}
	statusURL := submitted.StatusURL
	if statusURL == "" {
		statusURL = c.requestURL(model, submitted.RequestID) + "/status"
	}
	responseURL := submitted.ResponseURL
	if responseURL == "" {
		responseURL = c.requestURL(model, submitted.RequestID)
	}
	logger := c.logger.With(zap.String("model", model), zap.String("request_id", submitted.RequestID))
	logger.Debug("request queued")

	for {
		var status statusResponse
		if err := c.do(ctx, http.MethodGet, statusURL+"?logs=1", nil, &status); err != nil {
			return submitted.RequestID, fmt.Errorf("poll %s: %w", model, err)
		}
		switch status.Status {
		case statusCompleted:
			if err := c.do(ctx, http.MethodGet, responseURL, nil, out); err != nil {
				return submitted.RequestID, fmt.Errorf("fetch %s result: %w", model, err)
			}
			return submitted.RequestID, nil
		case statusInQueue, statusInProgress:
			if status.Status == statusInProgress && len(status.Logs) > 0 {
				logger.Debug("processing", zap.String("log", status.Logs[len(status.Logs)-1].Message))
			}
		default:
			return submitted.RequestID, fmt.Errorf("%s request %s: unexpected status %q", model, submitted.RequestID, status.Status)
		}
		if err := retry.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return submitted.RequestID, fmt.Errorf("wait for %s: %w", model, err)
		}
	}
}

// requestURL addresses a request under the model's application root, which
// is the first two path segments of the model id.
func (c *Client) requestURL(model, requestID string) string {
	parts := strings.Split(model, "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return c.cfg.BaseURL + "/" + strings.Join(parts, "/") + "/requests/" + requestID
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := vendorhttp.CheckResponse("fal", resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
