// Package config loads, normalizes, and validates clipforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPFORGE_API_TOKEN and WHISPER_MODEL. The Config type centralizes every knob
// the server and CLI need, so working directories, tool binaries, and stage
// timeouts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
