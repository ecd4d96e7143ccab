// Package main hosts the clipforge CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the HTTP service, scaffolds and validates
// configuration, reports dependency and directory readiness, and maintains the
// fetched-source cache. It centralizes configuration resolution and logger
// setup so subcommands stay declarative while the work lives in internal
// packages.
package main
