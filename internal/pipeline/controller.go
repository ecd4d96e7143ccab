package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"clipforge/internal/fileutil"
	"clipforge/internal/job"
	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/stageexec"
	"clipforge/internal/workspace"
)

// Executor runs one external command.
type Executor interface {
	Run(ctx context.Context, command stageexec.Command) stageexec.Result
}

// State is the position of a job in the recipe state machine.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Outcome is the result of one recipe run. On success the caller must call
// Release once the final artifact has been delivered.
type Outcome struct {
	Recipe    string
	JobID     string
	State     State
	Stage     string
	FinalPath string
	Filename  string
	Log       *JobLog

	created   []string
	lock      *workspace.JobLock
	workspace *workspace.Manager
	logger    *slog.Logger
	once      sync.Once
}

// Release removes every artifact this job created, except cached fetches,
// and unlocks the job. Safe to call more than once.
func (o *Outcome) Release() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.cleanup()
	})
}

func (o *Outcome) cleanup() {
	for i := len(o.created) - 1; i >= 0; i-- {
		path := o.created[i]
		if err := o.workspace.Remove(path); err != nil {
			o.Log.warn("Cleanup failed for "+path+": "+err.Error(),
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file manually"),
				logging.String(logging.FieldImpact, "orphaned artifact left in workspace"),
			)
		}
	}
	o.created = nil
	if err := o.lock.Release(); err != nil {
		o.logger.Warn("job lock release failed", logging.Error(err))
	}
	o.lock = nil
}

// Controller runs recipes against a workspace.
type Controller struct {
	workspace *workspace.Manager
	executor  Executor
	logger    *slog.Logger
}

// NewController builds a controller.
func NewController(ws *workspace.Manager, executor Executor, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		workspace: ws,
		executor:  executor,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes recipe for j. The returned Outcome is never nil and always
// carries the job log. On failure the error is a *StageFailure, or a storage
// or cancellation error raised before the first stage, and every artifact the
// job created has already been removed.
func (c *Controller) Run(ctx context.Context, recipe Recipe, j job.Job) (*Outcome, error) {
	ctx = services.WithJobID(ctx, j.ID)
	ctx = services.WithRecipe(ctx, recipe.Name)
	logger := logging.WithContext(ctx, c.logger)

	outcome := &Outcome{
		Recipe:    recipe.Name,
		JobID:     j.ID,
		State:     StatePending,
		Log:       NewJobLog(logger),
		workspace: c.workspace,
		logger:    logger,
	}
	fail := func(err error) (*Outcome, error) {
		outcome.State = StateFailed
		outcome.Log.Add("Error: " + err.Error())
		outcome.Release()
		return outcome, err
	}

	if err := validateRecipe(recipe); err != nil {
		return fail(err)
	}
	if err := c.workspace.EnsureDirectories(); err != nil {
		return fail(err)
	}
	lock, err := c.workspace.LockJob(ctx, j.ID)
	if err != nil {
		return fail(err)
	}
	outcome.lock = lock

	run := &Run{Job: j, Workspace: c.workspace, log: outcome.Log}
	start := time.Now()
	for _, spec := range recipe.Stages {
		outcome.State = StateRunning
		outcome.Stage = spec.Name
		if err := c.runStage(ctx, logger, spec, run, outcome); err != nil {
			failure := newStageFailure(spec.Name, err)
			logging.ErrorWithContext(logger, "stage failed", "stage_failure",
				logging.Stage(spec.Name),
				logging.String("failure_kind", string(failure.Kind)),
				logging.String("diagnostic", failure.Diagnostic),
				logging.Alert("stage_failure"),
			)
			return fail(failure)
		}
		if spec.Output != "" {
			outcome.FinalPath = run.Path(spec.Output)
		}
	}

	outcome.State = StateSucceeded
	outcome.Filename = j.ID + recipe.Suffix
	outcome.Log.Add("Processing completed.")
	logger.Info("recipe completed",
		logging.String(logging.FieldEventType, "recipe_complete"),
		logging.String("final_path", outcome.FinalPath),
		logging.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

func (c *Controller) runStage(ctx context.Context, logger *slog.Logger, spec StageSpec, run *Run, outcome *Outcome) error {
	stageCtx := services.WithStage(ctx, spec.Name)
	stageLogger := logger.With(logging.Stage(spec.Name))

	output := ""
	if spec.Output != "" {
		output = run.Path(spec.Output)
	}
	preexisting := output != "" && c.workspace.Exists(output)
	if spec.Cacheable && preexisting {
		outcome.Log.Add("Reused existing artifact " + output)
		stageLogger.Info("stage skipped",
			logging.String(logging.FieldEventType, "stage_cached"),
			logging.String("output", output),
		)
		return nil
	}

	label := spec.Label()
	outcome.Log.Add("Starting " + label + "...")
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()

	err := c.execute(stageCtx, spec, run, outcome)

	if output != "" && !preexisting && c.workspace.Exists(output) {
		// A successful fetch is a cache entry; a failed one is not.
		if !spec.Output.Fetched() || err != nil {
			outcome.created = append(outcome.created, output)
		}
	}
	if err != nil && spec.Output.Fetched() {
		for _, leftover := range c.workspace.FetchLeftovers(run.Job.ID) {
			if !slices.Contains(outcome.created, leftover) {
				outcome.created = append(outcome.created, leftover)
			}
		}
	}
	if err != nil {
		return err
	}
	if output != "" && !c.workspace.Exists(output) {
		return &StageFailure{
			Stage:      spec.Name,
			Kind:       FailureMissingOutput,
			Diagnostic: fmt.Sprintf("%s did not produce %s", label, output),
		}
	}

	elapsed := time.Since(started)
	outcome.Log.Add(fmt.Sprintf("%s completed in %s", label, elapsed.Round(time.Millisecond)))
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (c *Controller) execute(ctx context.Context, spec StageSpec, run *Run, outcome *Outcome) error {
	if spec.Local != nil {
		result, err := spec.Local(ctx, run)
		outcome.Log.addResult(result)
		return err
	}

	invocation, err := spec.Command(run)
	if err != nil {
		return err
	}
	if invocation.CopyFrom != "" {
		outcome.Log.Add("No captions to overlay; copying input")
		if _, err := fileutil.CopyVerified(invocation.CopyFrom, run.Path(spec.Output)); err != nil {
			return services.Wrap(services.ErrStorage, "pipeline", "copy artifact", invocation.CopyFrom, err)
		}
		return nil
	}

	command := invocation.Command
	if command.Timeout <= 0 {
		command.Timeout = spec.Timeout
	}
	result := c.executor.Run(ctx, command)
	outcome.Log.addResult(result)
	return result.Err
}
