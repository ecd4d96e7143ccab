package workspace

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"clipforge/internal/services"
)

const lockRetryDelay = 100 * time.Millisecond

// JobLock is an exclusive advisory lock on one job ID.
type JobLock struct {
	lock *flock.Flock
}

func (m *Manager) lockPath(jobID string) string {
	return filepath.Join(m.inboundDir, "."+jobID+".lock")
}

// LockJob blocks until it holds the job lock for jobID or ctx ends.
func (m *Manager) LockJob(ctx context.Context, jobID string) (*JobLock, error) {
	fl := flock.New(m.lockPath(jobID))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrCanceled, "workspace", "lock job", jobID, err)
		}
		return nil, services.Wrap(services.ErrStorage, "workspace", "lock job", jobID, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrStorage, "workspace", "lock job", jobID+" is locked", nil)
	}
	return &JobLock{lock: fl}, nil
}

// tryLockJob takes the job lock without waiting. It returns nil when the job
// is in use.
func (m *Manager) tryLockJob(jobID string) (*JobLock, error) {
	fl := flock.New(m.lockPath(jobID))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &JobLock{lock: fl}, nil
}

// Release unlocks the job. It is safe to call more than once.
func (l *JobLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
