package runtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pithecene-io/ffpkg/types"
)

func TestDetermineOutcome(t *testing.T) {
	tests := []struct {
		code int
		want Outcome
	}{
		{0, OutcomeSuccess},
		{1, OutcomeToolError},
		{2, OutcomeToolError},
		{255, OutcomeToolError},
		{-1, OutcomeCrash},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("exit_%d", tt.code), func(t *testing.T) {
			if got := DetermineOutcome(tt.code); got != tt.want {
				t.Errorf("DetermineOutcome(%d) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifyBuildError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSuccess},
		{"exit code", &types.BuildError{ExitCode: 4}, OutcomeToolError},
		{"launch", &types.BuildError{ExitCode: -1, Err: fmt.Errorf("%w: no such file", errLaunch)}, OutcomeLaunchFailure},
		{"cancelled", &types.BuildError{ExitCode: -1, Err: fmt.Errorf("interrupted: %w", context.Canceled)}, OutcomeInterrupted},
		{"signal", &types.BuildError{ExitCode: -1, Err: errors.New("signal: killed")}, OutcomeCrash},
		{"foreign", errors.New("something else"), OutcomeCrash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBuildError(tt.err); got != tt.want {
				t.Errorf("ClassifyBuildError = %s, want %s", got, tt.want)
			}
		})
	}
}
