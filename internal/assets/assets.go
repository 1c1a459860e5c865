// Package assets downloads generated creative media and archives copies in a
// blob store.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/adforge"
	"github.com/JakeFAU/adforge/internal/vendorhttp"
)

const maxAssetBytes = 32 << 20

// ErrEmptyURL is returned when no asset URL is given.
var ErrEmptyURL = errors.New("no image URL provided")

// Media is a downloaded asset.
type Media struct {
	URL      string
	MIMEType string
	Data     []byte
}

// DataURI renders the media as a base64 data URI.
func (m Media) DataURI() string {
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// Fetch downloads rawURL. The MIME type comes from Content-Type when it names
// an image or video, otherwise it is inferred from the URL.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (Media, error) {
	if strings.TrimSpace(rawURL) == "" {
		return Media{}, ErrEmptyURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Media{}, fmt.Errorf("build asset request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("fetch asset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := vendorhttp.CheckResponse("asset", resp); err != nil {
		return Media{}, fmt.Errorf("fetch asset: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return Media{}, fmt.Errorf("read asset: %w", err)
	}
	return Media{
		URL:      rawURL,
		MIMEType: mediaType(resp.Header.Get("Content-Type"), rawURL),
		Data:     data,
	}, nil
}

func mediaType(header, rawURL string) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil &&
			(strings.HasPrefix(mt, "image/") || strings.HasPrefix(mt, "video/")) {
			return mt
		}
	}
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, ".png"):
		return "image/png"
	case strings.Contains(lower, ".webp"):
		return "image/webp"
	case strings.Contains(lower, ".mp4"):
		return "video/mp4"
	default:
		return "image/jpeg"
	}
}

// Extension maps a MIME type to the file extension used in archive paths.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "video/mp4":
		return "mp4"
	default:
		return "jpg"
	}
}

// Slug lower-cases s and collapses everything but letters and digits into
// single dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Archive copies media into a blob store under
// creative/<concept-slug>/<sha256>.<ext>.
type Archive struct {
	store  adforge.BlobStore
	hasher adforge.Hasher
	client *http.Client
	logger *zap.Logger
}

// NewArchive constructs an Archive.
func NewArchive(store adforge.BlobStore, hasher adforge.Hasher, client *http.Client, logger *zap.Logger) (*Archive, error) {
	if store == nil {
		return nil, errors.New("blob store is required")
	}
	if hasher == nil {
		return nil, errors.New("hasher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{store: store, hasher: hasher, client: client, logger: logger.Named("assets")}, nil
}

// Store writes media and returns the blob URI.
func (a *Archive) Store(ctx context.Context, concept string, m Media) (string, error) {
	sum, err := a.hasher.Hash(m.Data)
	if err != nil {
		return "", fmt.Errorf("hash asset: %w", err)
	}
	slug := Slug(concept)
	if slug == "" {
		slug = "concept"
	}
	path := fmt.Sprintf("creative/%s/%s.%s", slug, sum, Extension(m.MIMEType))
	uri, err := a.store.PutObject(ctx, path, m.MIMEType, bytes.NewReader(m.Data))
	if err != nil {
		return "", fmt.Errorf("archive asset: %w", err)
	}
	a.logger.Debug("asset archived", zap.String("concept", concept), zap.String("uri", uri), zap.Int("bytes", len(m.Data)))
	return uri, nil
}

// Save downloads rawURL and stores it.
func (a *Archive) Save(ctx context.Context, concept, rawURL string) (string, error) {
	m, err := Fetch(ctx, a.client, rawURL)
	if err != nil {
		return "", err
	}
	return a.Store(ctx, concept, m)
}
