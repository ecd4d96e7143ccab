// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, recipe and stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the HTTP layer
//     classify failures (bad request vs storage vs external tool) without
//     string matching.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across recipes.
package services
