package runtime

import (
	"context"
	"errors"

	"github.com/pithecene-io/ffpkg/types"
)

// ExitCodeSuccess is the only exit code the image builder uses for success.
// Any other code is a failure; the tool defines no finer contract.
const ExitCodeSuccess = 0

// errLaunch marks a builder process that never started.
var errLaunch = errors.New("launch failed")

// Outcome classifies how a builder run ended.
type Outcome string

const (
	// OutcomeSuccess means the tool exited 0.
	OutcomeSuccess Outcome = "success"
	// OutcomeToolError means the tool ran and exited non-zero.
	OutcomeToolError Outcome = "tool_error"
	// OutcomeLaunchFailure means the tool could not be started.
	OutcomeLaunchFailure Outcome = "launch_failure"
	// OutcomeInterrupted means the build was cancelled and the tool killed.
	OutcomeInterrupted Outcome = "interrupted"
	// OutcomeCrash means the tool terminated abnormally (e.g. by a signal).
	OutcomeCrash Outcome = "crash"
)

// DetermineOutcome maps an exit code to an outcome.
func DetermineOutcome(exitCode int) Outcome {
	switch {
	case exitCode == ExitCodeSuccess:
		return OutcomeSuccess
	case exitCode > 0:
		return OutcomeToolError
	default:
		return OutcomeCrash
	}
}

// ClassifyBuildError maps an error returned by Builder.Build to an outcome.
func ClassifyBuildError(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeInterrupted
	}
	if errors.Is(err, errLaunch) {
		return OutcomeLaunchFailure
	}
	var buildErr *types.BuildError
	if errors.As(err, &buildErr) {
		return DetermineOutcome(buildErr.ExitCode)
	}
	return OutcomeCrash
}
