// Package server exposes clip recipes over HTTP.
//
// Each recipe is mounted at its own POST route. A request is validated into a
// job, optionally waits for an admission slot, runs through the pipeline
// controller, and on success the final artifact is streamed back with the job
// log in the X-Logs header. Failures return JSON with the same log.
package server
