package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PruneOldLogs deletes clipforge-*.log files in dir whose modification time
// is older than retentionDays, never touching keep. retentionDays <= 0
// disables pruning. It returns how many files were removed.
func PruneOldLogs(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, LogFilePrefix+"*.log"))
	if err != nil {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, path := range matches {
		if keep != "" && filepath.Base(path) == filepath.Base(keep) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "could not remove expired log", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check log_dir ownership"),
				String(FieldImpact, "expired log stays on disk"),
			)
			continue
		}
		removed++
		logger.Debug("expired log removed", String("path", path), String(FieldEventType, "log_pruned"))
	}
	return removed
}
