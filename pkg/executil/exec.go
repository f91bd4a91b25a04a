// Package executil provides process execution utilities for invoking
// external automation and status-check commands.
package executil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the outcome of a completed command invocation.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Combined returns stdout followed by stderr, for log artifacts.
func (r Result) Combined() []byte {
	out := make([]byte, 0, len(r.Stdout)+len(r.Stderr))
	out = append(out, r.Stdout...)
	out = append(out, r.Stderr...)
	return out
}

// Runner executes external commands. A non-zero exit status is reported via
// Result.ExitCode, not as an error; the error return is reserved for
// invocation failures (command not found, context cancelled, and the like).
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// RealRunner executes commands via os/exec.
type RealRunner struct {
	// Dir is the working directory for commands. Empty inherits the
	// process cwd.
	Dir string
}

// Run executes a command and captures its output.
func (r *RealRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	c := exec.CommandContext(ctx, name, args...)
	if r.Dir != "" {
		c.Dir = r.Dir
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("exec %s: %w", name, err)
	}

	return res, nil
}
