package pipeline

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"

	"clipforge/internal/captions"
	"clipforge/internal/job"
	"clipforge/internal/stageexec"
	"clipforge/internal/workspace"
)

// Invocation is what a command stage asks the controller to do: run Command,
// or when CopyFrom is set, copy that file to the stage output instead.
type Invocation struct {
	Command  stageexec.Command
	CopyFrom string
}

// StageSpec declares one recipe step. Exactly one of Command or Local is set.
type StageSpec struct {
	Name      string
	Output    workspace.Kind
	Timeout   time.Duration
	Cacheable bool
	Command   func(*Run) (Invocation, error)
	Local     func(context.Context, *Run) (stageexec.Result, error)
}

// Label renders the stage name for log lines ("extract-audio" → "Extract Audio").
func (s StageSpec) Label() string {
	return cases.Title(textlang.Und).String(strings.ReplaceAll(s.Name, "-", " "))
}

// Recipe is an ordered, immutable list of stages bound to an endpoint.
type Recipe struct {
	Name   string
	Route  string
	Suffix string
	Stages []StageSpec
}

// Run carries per-job state between stages.
type Run struct {
	Job        job.Job
	Workspace  *workspace.Manager
	Transcript captions.Transcript
	Filter     string

	log *JobLog
}

// Path resolves the job's artifact path for kind.
func (r *Run) Path(kind workspace.Kind) string {
	return r.Workspace.ResolvePath(r.Job.ID, kind)
}

// Note appends an informational line to the job log.
func (r *Run) Note(line string) {
	if r.log != nil {
		r.log.Add(line)
	}
}
