package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/runner"
)

// fakeRunner records commands; failures and stdout are keyed by command prefix
type fakeRunner struct {
	mu       sync.Mutex
	calls    []runner.Command
	failures map[string]error
	stdout   map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{failures: map[string]error{}, stdout: map[string]string{}}
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (*runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)

	line := cmd.String()
	for prefix, err := range f.failures {
		if strings.HasPrefix(line, prefix) {
			return &runner.Result{ExitCode: 1}, &runner.ExternalCommandError{Command: line, ExitCode: 1, Err: err}
		}
	}
	return &runner.Result{Stdout: f.stdout[cmd.Name]}, nil
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

// testApp returns an app rooted at a fresh temp directory
func testApp(t *testing.T) (*app, *fakeRunner, string) {
	t.Helper()
	dir := t.TempDir()
	f := newFakeRunner()

	a := &app{
		fs:     afero.NewOsFs(),
		runner: f,
		logger: zap.NewNop(),
		getwd:  func() (string, error) { return dir, nil },
		now:    func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		secret: func() string { return "s3cret" },
		ask: func([]*survey.Question, interface{}, ...survey.AskOpt) error {
			return errors.New("unexpected prompt")
		},
	}
	return a, f, dir
}

// execute runs the command line and returns everything written to stdout and stderr
func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--no-color"))

	err := root.Execute()
	if err != nil {
		reportError(&out, err, true)
	}
	return out.String(), err
}

// newProject creates a project without installing or committing and points
// the app at it
func newProject(t *testing.T, a *app, dir string, extra ...string) string {
	t.Helper()
	args := append([]string{"new", "shop", "--no-install", "--no-git", "--database", "sqlite"}, extra...)
	_, err := execute(t, a, args...)
	require.NoError(t, err)

	root := filepath.Join(dir, "shop")
	a.getwd = func() (string, error) { return root, nil }
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
