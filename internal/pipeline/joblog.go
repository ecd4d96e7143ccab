package pipeline

import (
	"log/slog"
	"strings"
	"sync"

	"clipforge/internal/logging"
	"clipforge/internal/stageexec"
)

// JobLog is the ordered, append-only execution log returned to the caller.
// Lines are mirrored to slog.
type JobLog struct {
	mu     sync.Mutex
	lines  []string
	logger *slog.Logger
}

// NewJobLog creates an empty log that mirrors lines to logger.
func NewJobLog(logger *slog.Logger) *JobLog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobLog{logger: logger}
}

// Add appends a line.
func (l *JobLog) Add(line string) {
	l.append(line)
	l.logger.Info(line)
}

func (l *JobLog) detail(line string) {
	l.append(line)
	l.logger.Debug(line)
}

func (l *JobLog) warn(line string, attrs ...logging.Attr) {
	l.append(line)
	logging.WarnWithContext(l.logger, line, "job_log_warning", attrs...)
}

func (l *JobLog) append(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	l.mu.Unlock()
}

// addResult folds a command result into the log.
func (l *JobLog) addResult(result stageexec.Result) {
	if result.Command == "" {
		return
	}
	l.detail("Command: " + stageexec.Command{Name: result.Command, Args: result.Args}.String())
	if out := strings.TrimSpace(result.Stdout); out != "" {
		l.detail("STDOUT: " + out)
	}
	if out := strings.TrimSpace(result.Stderr); out != "" {
		l.detail("STDERR: " + out)
	}
}

// Lines returns a copy of the log lines.
func (l *JobLog) Lines() []string {
	if l == nil {
		return []string{}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len reports the number of lines.
func (l *JobLog) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}
