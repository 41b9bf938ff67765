package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tejusoni55/sargenjs/internal/cli/ui"
	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/project"
)

// NewTemplateCommand creates the template command
func NewTemplateCommand() *cobra.Command {
	return newTemplateCommand(defaultApp())
}

func newTemplateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Inspect project presets",
		Long: `Inspect the presets available to 'sargen new --template'.

A preset selects the middleware a new project starts with and whether
Docker files are generated. Flags passed to 'sargen new' add to it.

Examples:
  sargen template list
  sargen template show api
  sargen new shop --template api`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available project presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.runTemplateList()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <preset>",
		Short: "Show what a preset generates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTemplateShow(args[0])
		},
	})

	return cmd
}

func (a *app) runTemplateList() {
	presets := project.BuiltinPresets().List()

	fmt.Fprintln(a.stdout)
	ui.Header(a.stdout, "Available Presets", a.noColor)
	fmt.Fprintln(a.stdout)

	table := ui.NewTable(a.stdout, a.noColor, "NAME", "DOCKER", "MIDDLEWARE", "DESCRIPTION")
	for _, p := range presets {
		table.AddRow(p.Name, yesNo(p.Docker), strings.Join(p.Middleware, ", "), p.Description)
	}
	table.Render()

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "Middleware you can add with --middleware: %s\n", strings.Join(generator.BuiltinMiddleware(), ", "))
}

func (a *app) runTemplateShow(name string) error {
	registry := project.BuiltinPresets()
	preset, err := registry.Get(name)
	if err != nil {
		return &generator.ValidationError{Field: "template", Value: name, Msg: "unknown preset"}
	}

	opts := project.Options{Name: "app", Template: preset.Name}.Defaults()
	opts, err = registry.Apply(opts)
	if err != nil {
		return err
	}
	deps := opts.Dependencies()

	ui.Header(a.stdout, preset.Name, a.noColor)
	kv := ui.NewKeyValueTable(a.stdout, a.noColor)
	kv.AddRow("Description", preset.Description)
	kv.AddRow("Middleware", strings.Join(preset.Middleware, ", "))
	kv.AddRow("Docker", yesNo(preset.Docker))
	kv.AddRow("Dependencies", strings.Join(deps.Runtime, " "))
	kv.AddRow("Dev dependencies", strings.Join(deps.Dev, " "))
	kv.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
