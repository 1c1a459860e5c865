package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/adforge/internal/product"
	"github.com/JakeFAU/adforge/internal/scraper"
)

type fakeApp struct {
	ran     bool
	closed  bool
	scraped []string
}

func (f *fakeApp) Run(context.Context) error {
	f.ran = true
	return nil
}

func (f *fakeApp) Close(context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeApp) Scrape(_ context.Context, url string) scraper.Result {
	f.scraped = append(f.scraped, url)
	return scraper.Result{Product: product.Scraped{Title: "Echo Dot"}, Source: scraper.SourceDemo, Demo: true}
}

// The factory is a package variable, so these tests do not run in parallel.
func withApp(t *testing.T, app App, err error) *string {
	t.Helper()
	var gotCfg string
	prev := newApp
	newApp = func(_ context.Context, cfgFile string) (App, error) {
		gotCfg = cfgFile
		return app, err
	}
	t.Cleanup(func() { newApp = prev })
	return &gotCfg
}

func TestScrapeCommandPrintsResults(t *testing.T) {
	app := &fakeApp{}
	cfgFile := withApp(t, app, nil)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", "adforge.yaml", "scrape", "https://www.amazon.com/dp/A", " https://amzn.to/b "})
	require.NoError(t, root.ExecuteContext(context.Background()))

	require.Equal(t, "adforge.yaml", *cfgFile)
	require.Equal(t, []string{"https://www.amazon.com/dp/A", "https://amzn.to/b"}, app.scraped)
	require.True(t, app.closed)

	dec := json.NewDecoder(&out)
	var first scrapeOutput
	require.NoError(t, dec.Decode(&first))
	require.Equal(t, "demo", first.Source)
	require.Equal(t, "Echo Dot", first.ProductData.Title)
}

func TestServeCommandRunsApp(t *testing.T) {
	app := &fakeApp{}
	withApp(t, app, nil)

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.True(t, app.ran)
}

func TestFactoryErrorStopsCommand(t *testing.T) {
	withApp(t, nil, errors.New("bad config"))

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	require.ErrorContains(t, err, "bad config")
}

func TestScrapeRequiresURL(t *testing.T) {
	withApp(t, &fakeApp{}, nil)

	root := newRootCmd()
	root.SetArgs([]string{"scrape"})
	root.SetErr(&bytes.Buffer{})
	require.Error(t, root.ExecuteContext(context.Background()))
}
