package workspace

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"clipforge/internal/logging"
)

// CachedArtifact describes a file in the fetch cache.
type CachedArtifact struct {
	JobID   string
	Path    string
	Size    int64
	ModTime time.Time
	InUse   bool
}

// PruneResult contains the outcome of a cache prune.
type PruneResult struct {
	Removed []string
	Skipped []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// ListCached returns cached fetch artifacts, oldest first. Partial downloads
// left by an interrupted fetch are included under their job ID.
func (m *Manager) ListCached() ([]CachedArtifact, error) {
	entries, err := os.ReadDir(m.inboundDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	artifacts := make([]CachedArtifact, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		jobID, _, _ := strings.Cut(name, ".")
		artifact := CachedArtifact{
			JobID:   jobID,
			Path:    filepath.Join(m.inboundDir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		artifact.InUse = m.lockHeld(jobID)
		artifacts = append(artifacts, artifact)
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ModTime.Before(artifacts[j].ModTime)
	})
	return artifacts, nil
}

// lockHeld reports whether a running job holds jobID's lock. A missing lock
// file means no job has run since the directory was created, so listing
// never creates one.
func (m *Manager) lockHeld(jobID string) bool {
	if _, err := os.Stat(m.lockPath(jobID)); err != nil {
		return false
	}
	lock, err := m.tryLockJob(jobID)
	if err != nil {
		return false
	}
	if lock == nil {
		return true
	}
	_ = lock.Release()
	return false
}

// PruneCache removes fetch artifacts older than maxAge. Artifacts whose job
// lock is held by a running job are skipped.
func (m *Manager) PruneCache(ctx context.Context, maxAge time.Duration, logger *slog.Logger) PruneResult {
	result := PruneResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	artifacts, err := m.ListCached()
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: m.inboundDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, artifact := range artifacts {
		if ctx.Err() != nil {
			break
		}
		if !artifact.ModTime.Before(cutoff) {
			continue
		}
		lock, err := m.tryLockJob(artifact.JobID)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: artifact.Path, Error: err})
			continue
		}
		if lock == nil {
			result.Skipped = append(result.Skipped, artifact.Path)
			logger.Info("cached source in use; skipping",
				logging.String("path", artifact.Path),
				logging.JobID(artifact.JobID),
				logging.String(logging.FieldEventType, "cache_prune_skipped"),
			)
			continue
		}
		removeErr := m.Remove(artifact.Path)
		_ = lock.Release()
		if removeErr != nil {
			result.Errors = append(result.Errors, CleanupError{Path: artifact.Path, Error: removeErr})
			logger.Warn("failed to remove cached source",
				logging.String("path", artifact.Path),
				logging.Error(removeErr),
				logging.String(logging.FieldEventType, "cache_prune_failed"),
				logging.String(logging.FieldErrorHint, "check inbound_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, artifact.Path)
		logger.Info("removed cached source",
			logging.String("path", artifact.Path),
			logging.Duration("age", time.Since(artifact.ModTime)),
			logging.String(logging.FieldEventType, "cache_pruned"),
		)
	}
	return result
}
