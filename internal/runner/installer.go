package runner

import (
	"context"
	"fmt"
	"time"
)

// Installer adds npm packages to a project with the configured package manager
type Installer struct {
	Runner         Runner
	PackageManager string
	// Timeout bounds each install command; zero uses the runner default
	Timeout time.Duration
}

// Args returns the package manager arguments for installing pkgs
func (i Installer) Args(pkgs []string, dev bool) ([]string, error) {
	var args []string
	switch i.PackageManager {
	case "npm", "":
		args = []string{"install"}
		if dev {
			args = append(args, "--save-dev")
		}
	case "yarn":
		args = []string{"add"}
		if dev {
			args = append(args, "--dev")
		}
	case "pnpm":
		args = []string{"add"}
		if dev {
			args = append(args, "--save-dev")
		}
	default:
		return nil, fmt.Errorf("unsupported package manager %q", i.PackageManager)
	}
	return append(args, pkgs...), nil
}

// Install installs pkgs in dir. An empty list does nothing.
func (i Installer) Install(ctx context.Context, dir string, pkgs []string, dev bool) error {
	if len(pkgs) == 0 {
		return nil
	}

	args, err := i.Args(pkgs, dev)
	if err != nil {
		return err
	}

	name := i.PackageManager
	if name == "" {
		name = "npm"
	}
	if _, err := i.Runner.Run(ctx, Command{Name: name, Args: args, Dir: dir, Timeout: i.Timeout}); err != nil {
		return fmt.Errorf("install dependencies: %w", err)
	}
	return nil
}
