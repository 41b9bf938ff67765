// Package runner executes the external tools a generated project needs:
// the Node package manager, git and the version probes used by doctor.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/logging"
)

const (
	// DefaultTimeout bounds a command that sets no timeout of its own
	DefaultTimeout = 5 * time.Minute
	// DefaultOutputLimit caps each captured stream
	DefaultOutputLimit = 10 << 20
)

var (
	// ErrTimeout means the command was killed after its timeout
	ErrTimeout = errors.New("command timed out")
	// ErrOutputLimit means a stream exceeded the capture limit
	ErrOutputLimit = errors.New("command output exceeded limit")
)

// Command is one external process invocation
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are added to the current environment
	Env     []string
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of a command
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExternalCommandError reports a command that failed to start, timed out,
// overflowed its output or exited non-zero
type ExternalCommandError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExternalCommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if detail := lastLine(e.Stderr); detail != "" {
		msg += ": " + detail
	}
	return msg
}

func (e *ExternalCommandError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Timeout     time.Duration
	OutputLimit int
	logger      *zap.Logger
}

// NewExecRunner creates a runner with the default timeout and output limit
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{
		Timeout:     DefaultTimeout,
		OutputLimit: DefaultOutputLimit,
		logger:      logging.OrNop(logger),
	}
}

// Run executes cmd and waits for it. A non-nil Result is returned whenever
// the process started.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := r.OutputLimit
	if limit <= 0 {
		limit = DefaultOutputLimit
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	stdout := &limitedBuffer{limit: limit}
	stderr := &limitedBuffer{limit: limit}
	c.Stdout = stdout
	c.Stderr = stderr

	r.logger.Debug("running command", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))

	start := time.Now()
	runErr := c.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	r.logger.Debug("command finished",
		zap.String("cmd", cmd.String()),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration))

	fail := func(err error) (*Result, error) {
		return result, &ExternalCommandError{
			Command:  cmd.String(),
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fail(fmt.Errorf("%w after %s", ErrTimeout, timeout))
	case stdout.overflow || stderr.overflow:
		return fail(fmt.Errorf("%w of %d bytes", ErrOutputLimit, limit))
	case runErr != nil:
		if c.ProcessState == nil {
			return nil, &ExternalCommandError{Command: cmd.String(), ExitCode: -1, Err: runErr}
		}
		return fail(runErr)
	}
	return result, nil
}

// limitedBuffer keeps the first limit bytes and drops the rest, so a chatty
// process is never blocked on a full pipe
type limitedBuffer struct {
	buf      strings.Builder
	limit    int
	overflow bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if len(p) > room {
		b.overflow = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
