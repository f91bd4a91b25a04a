package executil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Name string
	Args []string
}

// RecordingRunner captures commands for testing. Configure Results and
// Errors by command name to control return values; unconfigured commands
// return an invocation error, surfacing missing stubs loudly.
type RecordingRunner struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Results maps command names to their result.
	Results map[string]Result

	// Errors maps command names to an invocation error.
	Errors map[string]error
}

// Run records the command and returns the configured result or error.
func (r *RecordingRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Commands = append(r.Commands, RecordedCommand{
		Name: name,
		Args: append([]string(nil), args...),
	})

	if r.Errors != nil {
		if err, ok := r.Errors[name]; ok {
			return Result{}, err
		}
	}
	if r.Results != nil {
		if res, ok := r.Results[name]; ok {
			return res, nil
		}
	}

	return Result{}, fmt.Errorf("no stub for command %s %s", name, strings.Join(args, " "))
}

// Reset clears recorded commands.
func (r *RecordingRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = nil
}
