package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/adforge/internal/adforge"
)

const productPage = `<html><body>
<div class="a-breadcrumb"><ul>
  <li><a href="#">Electronics</a></li>
  <li><a href="#"> Headphones </a></li>
</ul></div>
<span id="productTitle">  Sony WH-1000XM4 Wireless Noise Canceling Headphones  </span>
<a id="bylineInfo">Visit the store by Sony</a>
<div id="feature-bullets"><ul>
  <li><span>Industry-leading noise canceling for home and office</span></li>
  <li><span> </span></li>
  <li><span>Make sure this fits by entering your model number.</span></li>
  <li><span>30-hour battery life with quick charging</span></li>
</ul></div>
<span class="a-price"><span class="a-offscreen">$348.00</span><span class="a-price-whole">1,299.</span></span>
<img id="landingImage" src="https://m.media-amazon.com/images/I/main._AC_SX679_.jpg">
<img data-a-image-name="thumb" src="https://m.media-amazon.com/images/I/alt1._AC_US40_.jpg">
<img data-a-image-name="thumb" data-src="https://m.media-amazon.com/images/I/alt2._SS40_.jpg">
<img data-a-image-name="thumb" src="https://m.media-amazon.com/images/I/main._AC_SX679_.jpg">
<table>
<tr class="po-color"><td><span class="po-attribute-list-label">Color:</span></td><td><span class="po-break-word">Black</span></td></tr>
</table>
<table id="productDetails_techSpec_section_1">
  <tr><td>Weight</td><td>254 g</td></tr>
  <tr><td>Same</td></tr>
</table>
</body></html>`

func TestParseProductPage(t *testing.T) {
	t.Parallel()

	got, err := Parse([]byte(productPage), "https://www.amazon.com/Sony-Headphones/dp/B0863TXGM3")
	require.NoError(t, err)

	require.Equal(t, "Sony WH-1000XM4 Wireless Noise Canceling Headphones", got.Title)
	require.Equal(t, "Industry-leading noise canceling for home and office. Make sure this fits by entering your model number.. 30-hour battery life with quick charging", got.Description)
	require.InDelta(t, 1299.0, got.Price.Float64(), 0.001)
	require.Equal(t, "USD", got.Currency)
	require.Equal(t, []string{
		"https://m.media-amazon.com/images/I/main._AC_SX679_.jpg",
		"https://m.media-amazon.com/images/I/alt1._AC_SL1500_.jpg",
		"https://m.media-amazon.com/images/I/alt2._AC_SL1500_.jpg",
	}, got.Images)
	require.Equal(t, "Headphones", got.Category)
	require.Equal(t, "Sony", got.Brand)
	require.Equal(t, []string{
		"Industry-leading noise canceling for home and office",
		"30-hour battery life with quick charging",
	}, got.Features)
	require.Equal(t, map[string]string{"Color": "Black", "Weight": "254 g"}, got.Specifications)
	require.Contains(t, got.TargetAudience, "Home Users")
	require.Contains(t, got.TargetAudience, "Business Professionals")
	require.Equal(t, "noise", got.Keywords[0])
}

func TestParseFallbacks(t *testing.T) {
	t.Parallel()

	page := `<html><body><h1>Acme Trail Backpack</h1><h1>Second</h1></body></html>`
	got, err := Parse([]byte(page), "https://www.amazon.com/hiking-backpacks/dp/B01")
	require.NoError(t, err)

	require.Equal(t, "Acme Trail Backpack", got.Title)
	require.Equal(t, "No description available", got.Description)
	require.Nil(t, got.Price)
	require.Empty(t, got.Images)
	require.Equal(t, "Hiking Backpacks", got.Category)
	require.Equal(t, "Acme", got.Brand)
	require.Empty(t, got.Features)
	require.Contains(t, got.TargetAudience, "Outdoor Enthusiasts")
}

func TestParseWithoutTitle(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`<html><body><p>Robot check</p></body></html>`), "https://www.amazon.com/dp/B01")
	require.ErrorIs(t, err, ErrNoTitle)
}

func TestResizeImage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://x/I/a._AC_SL1500_.jpg", resizeImage("https://x/I/a._SX38_SY50_.jpg"))
	require.Equal(t, "https://x/I/plain.jpg", resizeImage("https://x/I/plain.jpg"))
}

type stubFetcher struct {
	resp  adforge.FetchResponse
	err   error
	calls int
}

func (s *stubFetcher) Fetch(context.Context, adforge.FetchRequest) (adforge.FetchResponse, error) {
	s.calls++
	return s.resp, s.err
}

type stubDetector struct{ promote bool }

func (d stubDetector) ShouldPromote(adforge.FetchResponse) bool { return d.promote }

func TestHTMLTierStatic(t *testing.T) {
	t.Parallel()

	static := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(productPage)}}
	browser := &stubFetcher{}
	tier := NewHTMLTier(static, browser, stubDetector{promote: false}, nil)

	res, err := tier.Scrape(context.Background(), "https://www.amazon.com/dp/B0863TXGM3")
	require.NoError(t, err)
	require.Equal(t, SourceHTML, res.Source)
	require.Equal(t, 0, browser.calls)
}

func TestHTMLTierPromotesToHeadless(t *testing.T) {
	t.Parallel()

	static := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)}}
	browser := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(productPage), UsedHeadless: true}}
	tier := NewHTMLTier(static, browser, stubDetector{promote: true}, nil)

	res, err := tier.Scrape(context.Background(), "https://www.amazon.com/dp/B0863TXGM3")
	require.NoError(t, err)
	require.Equal(t, SourceHeadless, res.Source)
	require.Equal(t, 1, browser.calls)
}

func TestHTMLTierRetriesHeadlessWhenTitleMissing(t *testing.T) {
	t.Parallel()

	static := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<p>shell</p>`)}}
	browser := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(productPage), UsedHeadless: true}}
	tier := NewHTMLTier(static, browser, stubDetector{promote: false}, nil)

	res, err := tier.Scrape(context.Background(), "https://www.amazon.com/dp/B0863TXGM3")
	require.NoError(t, err)
	require.Equal(t, SourceHeadless, res.Source)
}

func TestHTMLTierHeadlessFailureKeepsStaticError(t *testing.T) {
	t.Parallel()

	static := &stubFetcher{resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<p>shell</p>`)}}
	browser := &stubFetcher{err: errors.New("chrome missing")}
	tier := NewHTMLTier(static, browser, stubDetector{promote: true}, nil)

	_, err := tier.Scrape(context.Background(), "https://www.amazon.com/dp/B0863TXGM3")
	require.ErrorIs(t, err, ErrNoTitle)
}

func TestHTMLTierFetchError(t *testing.T) {
	t.Parallel()

	tier := NewHTMLTier(&stubFetcher{err: errors.New("timeout")}, nil, nil, nil)
	_, err := tier.Scrape(context.Background(), "https://www.amazon.com/dp/B0863TXGM3")
	require.Error(t, err)
}
