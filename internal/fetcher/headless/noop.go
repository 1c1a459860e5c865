package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/adforge/internal/adforge"
)

// ErrUnavailable is returned when headless rendering is disabled.
var ErrUnavailable = errors.New("headless fetcher not configured")

// Noop stands in for the chromedp fetcher when headless rendering is disabled.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always returns ErrUnavailable.
func (Noop) Fetch(_ context.Context, _ adforge.FetchRequest) (adforge.FetchResponse, error) {
	return adforge.FetchResponse{}, ErrUnavailable
}
