package stageexec

import (
	"fmt"
	"strings"
	"time"

	"clipforge/internal/services"
)

// Kind classifies why a command failed.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindNonZeroExit Kind = "non_zero_exit"
	KindCanceled    Kind = "canceled"
	KindStart       Kind = "start"
)

const maxDiagnosticBytes = 4096

// Result is the record of one invocation. Err is nil on success and a
// *Failure otherwise; captured output is populated either way.
type Result struct {
	Command  string
	Args     []string
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
	Err      error
}

// Succeeded reports whether the invocation completed with exit status 0.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Failure describes a failed invocation.
type Failure struct {
	Kind       Kind
	Command    string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindNonZeroExit:
		return fmt.Sprintf("%s exited with status %d: %s", f.Command, f.ExitCode, f.Diagnostic)
	default:
		return fmt.Sprintf("%s %s: %s", f.Command, strings.ReplaceAll(string(f.Kind), "_", " "), f.Diagnostic)
	}
}

// Unwrap exposes both the classification marker and the underlying error.
func (f *Failure) Unwrap() []error {
	marker := services.ErrExternalTool
	switch f.Kind {
	case KindTimeout:
		marker = services.ErrTimeout
	case KindCanceled:
		marker = services.ErrCanceled
	}
	if f.Err == nil {
		return []error{marker}
	}
	return []error{marker, f.Err}
}

func diagnostic(stderr, stdout string, err error) string {
	if text := strings.TrimSpace(stderr); text != "" {
		return tail(text, maxDiagnosticBytes)
	}
	if text := strings.TrimSpace(stdout); text != "" {
		return tail(text, maxDiagnosticBytes)
	}
	if err != nil {
		return err.Error()
	}
	return "no output"
}

func tail(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[len(text)-limit:]
	if idx := strings.IndexByte(cut, '\n'); idx >= 0 && idx < len(cut)-1 {
		cut = cut[idx+1:]
	}
	return "…" + cut
}
