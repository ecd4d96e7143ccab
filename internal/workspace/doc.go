// Package workspace owns the two working directories used by every job.
//
// The inbound directory caches fetched source videos keyed by job ID and is
// shared across requests; the outbound directory holds per-request
// intermediates and final outputs. Artifact paths are a pure function of the
// job ID and artifact kind, so concurrent jobs for different sources never
// collide. Requests for the same job ID serialize on an advisory file lock
// kept next to the cached source.
package workspace
