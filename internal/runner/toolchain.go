package runner

import (
	"context"
	"strings"
	"time"
)

// DefaultTools are probed by doctor when no tools are named
var DefaultTools = []string{"node", "npm", "git", "docker"}

const probeTimeout = 10 * time.Second

// ToolStatus is the outcome of probing one tool
type ToolStatus struct {
	Name    string
	Version string
	Err     error
}

// Available reports whether the tool answered its version probe
func (s ToolStatus) Available() bool {
	return s.Err == nil
}

// Toolchain probes installed tools
type Toolchain struct {
	Runner Runner
}

// Probe runs `<tool> --version` for each tool, in order
func (t Toolchain) Probe(ctx context.Context, tools ...string) []ToolStatus {
	if len(tools) == 0 {
		tools = DefaultTools
	}

	statuses := make([]ToolStatus, 0, len(tools))
	for _, name := range tools {
		status := ToolStatus{Name: name}
		res, err := t.Runner.Run(ctx, Command{Name: name, Args: []string{"--version"}, Timeout: probeTimeout})
		if err != nil {
			status.Err = err
		} else {
			status.Version = firstLine(res.Stdout)
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
