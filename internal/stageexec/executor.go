package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"clipforge/internal/logging"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultOutputLimit = 64 * 1024

	// Time between SIGTERM and SIGKILL when a command is canceled.
	killGrace = time.Second
	// Grace period for pipe readers after the process exits or is killed.
	waitDelay = 2 * time.Second
)

// Options configures an Executor.
type Options struct {
	DefaultTimeout time.Duration
	OutputLimit    int
	Logger         *slog.Logger
}

// Executor runs external commands.
type Executor struct {
	defaultTimeout time.Duration
	outputLimit    int
	logger         *slog.Logger
}

// New returns an Executor, filling unset options with defaults.
func New(opts Options) *Executor {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.OutputLimit <= 0 {
		opts.OutputLimit = DefaultOutputLimit
	}
	return &Executor{
		defaultTimeout: opts.DefaultTimeout,
		outputLimit:    opts.OutputLimit,
		logger:         logging.NewComponentLogger(opts.Logger, "stageexec"),
	}
}

// Run executes command and waits for it to finish, time out, or be canceled
// through ctx.
func (e *Executor) Run(ctx context.Context, command Command) Result {
	timeout := command.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	result := Result{
		Command:  command.Name,
		Args:     append([]string(nil), command.Args...),
		ExitCode: -1,
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCappedBuffer(e.outputLimit)
	stderr := newCappedBuffer(e.outputLimit)
	cmd := exec.CommandContext(runCtx, command.Name, command.Args...) //nolint:gosec
	cmd.Dir = command.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("running command",
		logging.String("command", command.String()),
		logging.Duration("timeout", timeout),
	)

	start := time.Now()
	err := cmd.Run()
	result.Elapsed = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		err = nil
	}
	if err != nil {
		result.Err = classify(ctx, runCtx, command.Name, timeout, result, err)
	}

	logger.Debug("command finished",
		logging.String("command", command.Name),
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("elapsed", result.Elapsed),
		logging.Bool("success", result.Err == nil),
	)
	return result
}

func classify(parent, runCtx context.Context, name string, timeout time.Duration, result Result, err error) *Failure {
	failure := &Failure{Command: name, ExitCode: result.ExitCode, Err: err}
	var exitErr *exec.ExitError
	switch {
	case parent.Err() != nil:
		failure.Kind = KindCanceled
		failure.Diagnostic = fmt.Sprintf("canceled after %s: %v", result.Elapsed.Round(time.Millisecond), parent.Err())
		failure.Err = parent.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		failure.Kind = KindTimeout
		failure.Diagnostic = fmt.Sprintf("timed out after %s", timeout)
		failure.Err = context.DeadlineExceeded
	case errors.As(err, &exitErr):
		failure.Kind = KindNonZeroExit
		failure.Diagnostic = diagnostic(result.Stderr, result.Stdout, err)
	default:
		failure.Kind = KindStart
		failure.Diagnostic = err.Error()
	}
	return failure
}
