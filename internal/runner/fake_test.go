package runner

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner records commands and fails those whose string starts with a
// configured prefix
type fakeRunner struct {
	mu       sync.Mutex
	calls    []Command
	failures map[string]error
	stdout   map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{failures: map[string]error{}, stdout: map[string]string{}}
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)
	s := cmd.String()
	for prefix, err := range f.failures {
		if strings.HasPrefix(s, prefix) {
			return &Result{ExitCode: 1}, &ExternalCommandError{Command: s, ExitCode: 1, Err: err}
		}
	}
	return &Result{Stdout: f.stdout[cmd.Name]}, nil
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}
