package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/logging"
)

const (
	DefaultBranch        = "main"
	DefaultCommitMessage = "Initial commit from sargen"
)

// GitOptions controls repository setup
type GitOptions struct {
	Remote  string
	Branch  string
	Message string
	Push    bool
}

// GitResult records what Setup did. Warnings explain remote steps that
// were skipped or failed.
type GitResult struct {
	Committed   bool
	RemoteAdded bool
	Pushed      bool
	Warnings    []string
}

// Git initializes repositories for generated projects
type Git struct {
	runner Runner
	logger *zap.Logger
}

// NewGit creates a Git helper on top of r
func NewGit(r Runner, logger *zap.Logger) *Git {
	return &Git{runner: r, logger: logging.OrNop(logger)}
}

// Setup initializes a repository in dir and makes the first commit. Adding
// the remote and pushing are best effort: failures become warnings and the
// repository stays local.
func (g *Git) Setup(ctx context.Context, dir string, opts GitOptions) (*GitResult, error) {
	if opts.Branch == "" {
		opts.Branch = DefaultBranch
	}
	if opts.Message == "" {
		opts.Message = DefaultCommitMessage
	}

	result := &GitResult{}

	required := [][]string{
		{"init"},
		{"checkout", "-B", opts.Branch},
		{"add", "-A"},
		{"commit", "-m", opts.Message},
	}
	for _, args := range required {
		if _, err := g.git(ctx, dir, args...); err != nil {
			return result, fmt.Errorf("git setup: %w", err)
		}
	}
	result.Committed = true

	if opts.Remote == "" {
		if opts.Push {
			result.Warnings = append(result.Warnings, "no remote configured, skipping push")
		}
		return result, nil
	}

	if _, err := g.git(ctx, dir, "remote", "add", "origin", opts.Remote); err != nil {
		g.logger.Debug("remote add failed", zap.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not add remote %s: %v", opts.Remote, err))
		return result, nil
	}
	result.RemoteAdded = true

	if !opts.Push {
		return result, nil
	}
	if _, err := g.git(ctx, dir, "push", "-u", "origin", opts.Branch); err != nil {
		g.logger.Debug("push failed", zap.Error(err))
		result.Warnings = append(result.Warnings, fmt.Sprintf("push to %s failed, repository is local only: %v", opts.Remote, err))
		return result, nil
	}
	result.Pushed = true

	return result, nil
}

func (g *Git) git(ctx context.Context, dir string, args ...string) (*Result, error) {
	return g.runner.Run(ctx, Command{Name: "git", Args: args, Dir: dir})
}
