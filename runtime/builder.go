package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/pithecene-io/ffpkg/types"
)

// Runner executes a resolved builder invocation.
// Builder is the production implementation; tests substitute fakes.
type Runner interface {
	Build(ctx context.Context, inv types.ToolInvocation) error
}

// Builder drives the external image builder.
// The tool's output streams go straight to the console; nothing is captured.
type Builder struct {
	// Params are the filesystem flags passed to the tool.
	Params types.ImageParams
	// Stdout receives the tool's stdout. Nil means os.Stdout.
	Stdout io.Writer
	// Stderr receives the tool's stderr. Nil means os.Stderr.
	Stderr io.Writer
	// Stdin feeds the tool's stdin. Nil means os.Stdin.
	Stdin io.Reader
}

// NewBuilder creates a builder with the default image parameters,
// wired to the process's standard streams.
func NewBuilder() *Builder {
	return &Builder{Params: types.DefaultImageParams()}
}

// Invocation builds the command line for packaging sourceDir into target:
//
//	newfs -O <fs> -b <block> -f <frag> -D <source> <target>
func (b *Builder) Invocation(toolPath, sourceDir, target string) types.ToolInvocation {
	p := b.Params
	return types.ToolInvocation{
		ExecutablePath: toolPath,
		Args: []string{
			types.BuildSubcommand,
			"-O", strconv.Itoa(p.FSVersion),
			"-b", strconv.Itoa(p.BlockSize),
			"-f", strconv.Itoa(p.FragmentSize),
			"-D", sourceDir,
			target,
		},
		TargetPath: target,
	}
}

// Build runs the tool and blocks until it exits. There is no timeout;
// cancelling ctx kills the process.
//
// A non-zero exit yields *types.BuildError with the exit code. A process
// that cannot be started, or is killed, yields ExitCode -1.
func (b *Builder) Build(ctx context.Context, inv types.ToolInvocation) error {
	cmd := exec.CommandContext(ctx, inv.ExecutablePath, inv.Args...)
	cmd.Stdout = orWriter(b.Stdout, os.Stdout)
	cmd.Stderr = orWriter(b.Stderr, os.Stderr)
	if b.Stdin != nil {
		cmd.Stdin = b.Stdin
	} else {
		cmd.Stdin = os.Stdin
	}

	if err := cmd.Start(); err != nil {
		return &types.BuildError{ExitCode: -1, Err: fmt.Errorf("%w: %w", errLaunch, err)}
	}

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &types.BuildError{ExitCode: -1, Err: fmt.Errorf("interrupted: %w", ctxErr)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code >= 0 {
			return &types.BuildError{ExitCode: code}
		}
		return &types.BuildError{ExitCode: -1, Err: exitErr}
	}
	return &types.BuildError{ExitCode: -1, Err: fmt.Errorf("wait failed: %w", err)}
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
