// Package scraper turns a product page URL into a product.Scraped record.
//
// A Chain tries its tiers in order (the Apify API, then the HTML page itself)
// and falls back to a fixed demo product, so Scrape always returns a result.
// Successful non-demo results are cached by URL.
package scraper
