// Package gemini talks to Google's Gemini models through their
// OpenAI-compatible chat completions endpoint.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultBaseURL is Gemini's OpenAI-compatible API root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("gemini API key is not configured")
	// ErrEmptyResponse is returned when the model replies with no text.
	ErrEmptyResponse = errors.New("gemini returned an empty response")
)

// Config selects the key, endpoint and the model used for each task.
type Config struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	AdModel     string
	SpecModel   string
	VisionModel string
	HealthModel string
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TextModel == "" {
		c.TextModel = "gemini-1.5-flash"
	}
	if c.AdModel == "" {
		c.AdModel = "gemini-1.5-pro"
	}
	if c.SpecModel == "" {
		c.SpecModel = "gemini-2.5-flash"
	}
	if c.VisionModel == "" {
		c.VisionModel = "gemini-1.5-pro"
	}
	if c.HealthModel == "" {
		c.HealthModel = "gemini-2.5-flash"
	}
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the chat completions API.
type Client struct {
	api        chatCompleter
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

// New builds a Client. httpClient carries the vendor transport and is also
// used to download images for vision requests. Without an API key every call
// returns ErrNotConfigured.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		cfg:        cfg,
		httpClient: httpClient,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.Named("gemini"),
	}
	if cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		oc.HTTPClient = httpClient
		c.api = openai.NewClientWithConfig(oc)
	}
	return c
}

// Configured reports whether an API key was supplied.
func (c *Client) Configured() bool {
	return c.api != nil
}

// Models exposes the resolved model names.
func (c *Client) Models() Config {
	m := c.cfg
	m.APIKey = ""
	return m
}

// Generate sends a single user prompt and returns the first choice text.
func (c *Client) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		c.logger.Warn("chat completion failed", zap.String("model", req.Model), zap.Error(err))
		return "", fmt.Errorf("gemini %s: %w", req.Model, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	c.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.Choices[0].Message.Content, nil
}

// Health is the result of a connectivity probe.
type Health struct {
	Status   string `json:"status"`
	Model    string `json:"model,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Health sends a short prompt to the health model.
func (c *Client) Health(ctx context.Context) Health {
	text, err := c.Generate(ctx, c.cfg.HealthModel, "Test connection", 0)
	if err != nil {
		return Health{Status: "error", Error: err.Error()}
	}
	return Health{
		Status:   "healthy",
		Model:    c.cfg.HealthModel,
		Response: truncate(text, 50) + "...",
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
