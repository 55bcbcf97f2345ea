// Package server implements the HTTP status API for mr-release.
//
// This package provides:
//   - A JSON endpoint resolving the latest deployment of every pipeline in a release folder
//   - Per-IP rate limiting so dashboards polling the API cannot exhaust the upstream quota
//   - Health and Prometheus metrics endpoints for monitoring
//   - Structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/release: Query resolution through the Resolver interface
//   - internal/azdo: Error kinds mapped to HTTP status codes
//   - internal/view: Ordering and failed-only filtering shared with the CLI
package server
