// SPDX-License-Identifier: AGPL-3.0-or-later

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var (
	// ErrSpawn means the child process could not be started at all.
	ErrSpawn = errors.New("process spawn failed")
	// ErrTimeout means the child outlived its deadline and was killed.
	ErrTimeout = errors.New("process timed out")
)

// Invocation is a fully assembled shell line plus how to run it.
type Invocation struct {
	Line string
	// Dir is the working directory; empty inherits the parent's.
	Dir   string
	Stdin []byte
	// Timeout bounds the run; zero means no bound beyond the context.
	Timeout time.Duration
}

// Result is what a finished child produced.
type Result struct {
	// Output is stdout, with stderr merged in unless the executor separates it.
	Output   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Executor runs invocations. A non-zero exit status is reported in Result,
// not as an error.
type Executor interface {
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// ShellExecutor runs invocations through "<Shell> -c <line>".
type ShellExecutor struct {
	Shell          string
	SeparateStderr bool
}

// Execute runs inv synchronously.
func (e *ShellExecutor) Execute(ctx context.Context, inv Invocation) (Result, error) {
	shell := e.Shell
	if shell == "" {
		shell = "sh"
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, shell, "-c", inv.Line)
	cmd.Dir = inv.Dir
	cmd.Stdin = bytes.NewReader(inv.Stdin)
	// Grandchildren holding the pipes open must not block Wait past the kill.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if e.SeparateStderr {
		cmd.Stderr = &stderr
	} else {
		cmd.Stderr = &stdout
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Output:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w after %s: %s", ErrTimeout, res.Duration.Round(time.Millisecond), inv.Line)
		}
		return res, fmt.Errorf("%s: %w", inv.Line, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode >= 0 {
			return res, nil
		}
		// Killed by a signal or by cancellation of the parent context.
		return res, fmt.Errorf("%s: %w", inv.Line, err)
	}

	res.ExitCode = -1
	return res, fmt.Errorf("%w: %s: %v", ErrSpawn, shell, err)
}
