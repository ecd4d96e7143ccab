// Package preflight provides readiness checks for the external tools and
// filesystem paths clipforge depends on.
//
// These checks run in two contexts:
//   - The HTTP server reports dependency availability on /api/health.
//   - The CLI "clipforge check" command renders every check as a table.
package preflight
