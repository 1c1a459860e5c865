// Package api hosts the HTTP server, middleware, and REST handlers. Notable
// routes:
//   - GET /healthz and /readyz for probes, GET /metrics for Prometheus.
//   - /api/products and /api/scrape-product for the product catalogue.
//   - /api/generate and /api/ads-generate for text ads.
//   - /api/generate-ad, /api/generate-video-ad and /api/ad-specs for creative
//     concepts.
//   - /api/news, /api/analytics and /api/health/* for the dashboard.
//   - /api/jobs for asynchronous creative jobs.
package api
