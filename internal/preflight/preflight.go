package preflight

import (
	"clipforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Inbound directory", cfg.Paths.InboundDir),
		CheckDirectoryAccess("Outbound directory", cfg.Paths.OutboundDir),
	}
	if results[0].Passed {
		results = append(results, CheckFreeSpace("Inbound free space", cfg.Paths.InboundDir, MinFreeBytes))
	}
	if results[1].Passed {
		results = append(results, CheckFreeSpace("Outbound free space", cfg.Paths.OutboundDir, MinFreeBytes))
	}

	// Portrait compose is the only recipe that needs the secondary asset.
	if cfg.Tools.SecondaryAsset != "" {
		results = append(results, CheckFile("Secondary asset", cfg.Tools.SecondaryAsset))
	}
	return results
}
