package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejusoni55/sargenjs/internal/cli/config"
	"github.com/tejusoni55/sargenjs/internal/cli/ui"
	"github.com/tejusoni55/sargenjs/internal/dbcheck"
	"github.com/tejusoni55/sargenjs/internal/runner"
)

// requiredTools must be present for generated projects to run
var requiredTools = map[string]bool{"node": true, "npm": true}

func newDoctorCommand(a *app) *cobra.Command {
	var skipDB bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local toolchain and database connection",
		Long: `Check that node, npm, git and docker are installed and, inside a
sargen project, that the database in DATABASE_URL answers a ping.

Only node and npm are required; missing optional tools are reported as
warnings. Migrations are never run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			problems := a.checkToolchain(cmd)
			if !skipDB {
				problems += a.checkDatabase(cmd)
			}

			fmt.Fprintln(a.stdout)
			if problems > 0 {
				return fmt.Errorf("doctor found %d problem(s)", problems)
			}
			ui.WriteSuccess(a.stdout, "Everything looks good", a.noColor)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipDB, "skip-db", false, "Skip the database check")
	return cmd
}

func (a *app) checkToolchain(cmd *cobra.Command) int {
	ui.Header(a.stdout, "Toolchain", a.noColor)

	problems := 0
	table := ui.NewTable(a.stdout, a.noColor, "TOOL", "VERSION")
	for _, status := range (runner.Toolchain{Runner: a.runner}).Probe(cmd.Context()) {
		switch {
		case status.Available():
			table.AddRow("✓ "+status.Name, status.Version)
		case requiredTools[status.Name]:
			problems++
			table.AddRow("✗ "+status.Name, "not found (required)")
		default:
			table.AddRow("- "+status.Name, "not found (optional)")
		}
	}
	table.Render()
	return problems
}

func (a *app) checkDatabase(cmd *cobra.Command) int {
	fmt.Fprintln(a.stdout)
	ui.Header(a.stdout, "Database", a.noColor)

	wd, err := a.getwd()
	if err != nil {
		fmt.Fprint(a.stdout, ui.Warning(err.Error(), nil, a.noColor))
		return 1
	}
	root, err := config.FindProjectRoot(wd)
	if err != nil {
		fmt.Fprint(a.stdout, ui.Info("Not inside a sargen project, skipping database check", a.noColor))
		return 0
	}

	target, err := dbcheck.NewChecker(a.open, a.logger).CheckProject(cmd.Context(), root)
	switch {
	case err == nil:
		ui.WriteSuccess(a.stdout, target.Dialect+" database is reachable", a.noColor)
		return 0
	case errors.Is(err, dbcheck.ErrNoDatabaseURL):
		fmt.Fprint(a.stdout, ui.Warning("DATABASE_URL is not set in .env or the environment", nil, a.noColor))
		return 1
	case errors.Is(err, dbcheck.ErrUnsupported):
		fmt.Fprint(a.stdout, ui.Info(fmt.Sprintf("Skipping check: %v", err), a.noColor))
		return 0
	default:
		ui.WriteError(a.stdout, ui.ErrorOptions{
			Level:        ui.ErrorLevelError,
			Context:      "database unreachable",
			Problem:      err.Error(),
			HelpCommands: []string{"Check DATABASE_URL in " + root + "/.env"},
			NoColor:      a.noColor,
		})
		return 1
	}
}
