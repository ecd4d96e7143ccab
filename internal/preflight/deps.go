package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Requirement defines an external binary clipforge invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	VersionArg  string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

const versionProbeTimeout = 5 * time.Second

// CheckBinaries resolves each requirement on PATH. When VersionArg is set
// and ctx is non-nil, the first line of the version output is recorded.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		if ctx != nil && req.VersionArg != "" {
			status.Version = probeVersion(ctx, path, req.VersionArg)
		}
		results = append(results, status)
	}
	return results
}

func probeVersion(ctx context.Context, path, arg string) string {
	probeCtx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, path, arg).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

// Healthy reports whether every required dependency is available.
func Healthy(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Optional && !s.Available {
			return false
		}
	}
	return true
}
