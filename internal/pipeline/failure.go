package pipeline

import (
	"errors"
	"fmt"

	"clipforge/internal/services"
	"clipforge/internal/stageexec"
)

// FailureKind classifies a stage failure. Executor kinds are reused as-is.
type FailureKind string

const (
	FailureTimeout       FailureKind = FailureKind(stageexec.KindTimeout)
	FailureNonZeroExit   FailureKind = FailureKind(stageexec.KindNonZeroExit)
	FailureCanceled      FailureKind = FailureKind(stageexec.KindCanceled)
	FailureStart         FailureKind = FailureKind(stageexec.KindStart)
	FailureMissingOutput FailureKind = "missing_output"
	FailurePrecondition  FailureKind = "precondition"
	FailureLocal         FailureKind = "local"
)

// StageFailure is the terminal error of a failed recipe.
type StageFailure struct {
	Stage      string
	Kind       FailureKind
	Diagnostic string
	Err        error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed (%s): %s", f.Stage, f.Kind, f.Diagnostic)
}

// Unwrap exposes the underlying error plus a marker for the kind.
func (f *StageFailure) Unwrap() []error {
	var marker error
	switch f.Kind {
	case FailureTimeout:
		marker = services.ErrTimeout
	case FailureCanceled:
		marker = services.ErrCanceled
	case FailurePrecondition:
		marker = services.ErrConfiguration
	default:
		marker = services.ErrExternalTool
	}
	if f.Err == nil {
		return []error{marker}
	}
	return []error{marker, f.Err}
}

func newStageFailure(stage string, err error) *StageFailure {
	var existing *StageFailure
	if errors.As(err, &existing) {
		return existing
	}
	var execFailure *stageexec.Failure
	if errors.As(err, &execFailure) {
		return &StageFailure{
			Stage:      stage,
			Kind:       FailureKind(execFailure.Kind),
			Diagnostic: execFailure.Diagnostic,
			Err:        err,
		}
	}
	kind := FailureLocal
	switch {
	case errors.Is(err, services.ErrTimeout):
		kind = FailureTimeout
	case errors.Is(err, services.ErrCanceled):
		kind = FailureCanceled
	}
	return &StageFailure{Stage: stage, Kind: kind, Diagnostic: err.Error(), Err: err}
}
