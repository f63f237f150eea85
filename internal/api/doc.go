// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - POST /api/extract to submit URLs for extraction.
//   - GET /api/job/{jobId} and /api/job/{jobId}/download for polling and CSV export.
//   - GET /health for liveness and the active job count.
//   - GET /metrics for Prometheus scraping.
package api
