package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tejusoni55/sargenjs/internal/attrs"
	"github.com/tejusoni55/sargenjs/internal/cli/config"
	"github.com/tejusoni55/sargenjs/internal/cli/ui"
	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/patch"
	"github.com/tejusoni55/sargenjs/internal/structure"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	return newGenerateCommand(defaultApp())
}

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Generate modules, migrations and middleware",
		Long: `Generate code inside an existing sargen project.

Attributes use name:type pairs separated by commas:
  string number integer bool float date
  enum(a|b|c)        fixed set of values, separated by | (commas are rejected)
  ref(users)         foreign key column referencing another table

Examples:
  sargen generate module user --attrs "name:string,email:string,age:integer" --crud
  sargen generate module order --attrs "status:enum(new|paid),userId:ref(users)" --migration
  sargen generate migration product --attrs "title:string,price:float"
  sargen generate middleware requestId --register`,
	}

	cmd.AddCommand(newGenerateModuleCommand(a))
	cmd.AddCommand(newGenerateMigrationCommand(a))
	cmd.AddCommand(newGenerateMiddlewareCommand(a))

	return cmd
}

type moduleFlags struct {
	attrs       string
	crud        bool
	noModel     bool
	force       bool
	migration   bool
	interactive bool
}

func newGenerateModuleCommand(a *app) *cobra.Command {
	f := &moduleFlags{}

	cmd := &cobra.Command{
		Use:   "module [name]",
		Short: "Generate a controller, route, service and model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerateModule(args, f)
		},
	}

	cmd.Flags().StringVarP(&f.attrs, "attrs", "a", "", "Model attributes, e.g. \"name:string,age:integer\"")
	cmd.Flags().BoolVar(&f.crud, "crud", false, "Generate CRUD handlers and routes")
	cmd.Flags().BoolVar(&f.noModel, "no-model", false, "Skip the Sequelize model")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Overwrite an existing module")
	cmd.Flags().BoolVar(&f.migration, "migration", false, "Also generate a create-table migration")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Prompt for missing values")

	return cmd
}

// loadProject finds the enclosing project and its configuration
func (a *app) loadProject() (*config.Config, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadProject(wd)
	if errors.Is(err, config.ErrNotInProject) {
		return nil, &notInProjectError{dir: wd}
	}
	if err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}

type moduleAnswers struct {
	Name  string `survey:"name"`
	Attrs string `survey:"attrs"`
	CRUD  bool   `survey:"crud"`
}

func (a *app) promptModule(name string, f *moduleFlags) (string, error) {
	questions := []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Module name:", Default: name},
			Validate: validateWith(generator.ValidateModuleName),
		},
		{
			Name: "attrs",
			Prompt: &survey.Input{
				Message: "Attributes:",
				Default: f.attrs,
				Help:    "Comma separated name:type pairs, empty for none",
			},
			Validate: validateWith(func(s string) error {
				_, err := attrs.Parse(s)
				return err
			}),
		},
		{
			Name:   "crud",
			Prompt: &survey.Confirm{Message: "Generate CRUD handlers?", Default: f.crud},
		},
	}

	var answers moduleAnswers
	if err := a.ask(questions, &answers); err != nil {
		return "", err
	}
	f.attrs = answers.Attrs
	f.crud = answers.CRUD
	return answers.Name, nil
}

func (a *app) runGenerateModule(args []string, f *moduleFlags) error {
	var name string
	if len(args) > 0 {
		name = args[0]
	}

	cfg, err := a.loadProject()
	if err != nil {
		return err
	}

	if f.interactive || name == "" {
		if name, err = a.promptModule(name, f); err != nil {
			return err
		}
	}

	// Everything that can be rejected is rejected before the first write
	list, err := attrs.Parse(f.attrs)
	if err != nil {
		return err
	}

	gen := a.generator(cfg.GeneratorLayout())
	if !f.force {
		if err := gen.EnsureNew(cfg.Root, name); err != nil {
			return err
		}
	}

	plan, err := gen.Plan(name, list, generator.Options{
		CRUD:         f.crud,
		IncludeModel: !f.noModel,
		Force:        f.force,
	})
	if err != nil {
		return err
	}
	if f.migration {
		m, err := gen.Migration(name, list)
		if err != nil {
			return err
		}
		plan = append(plan, m)
	}

	reg, err := gen.RouteRegistration(cfg.Root, name)
	if err != nil {
		return err
	}
	patcher := a.patcher()
	if err := patcher.Check(reg); err != nil {
		return a.registrationFailed(cfg.Root, err, reg)
	}

	result, err := a.resolver().Materialize(cfg.Root, plan)
	if err != nil {
		return err
	}
	a.printResult(result)

	outcome, err := patcher.Apply(reg)
	if err != nil {
		return a.registrationFailed(cfg.Root, err, reg)
	}
	a.printPatch(cfg.Root, reg, outcome)

	ui.WriteSuccess(a.stdout, fmt.Sprintf("Generated module '%s'", name), a.noColor)
	return nil
}

func newGenerateMigrationCommand(a *app) *cobra.Command {
	var attrList string

	cmd := &cobra.Command{
		Use:   "migration <module>",
		Short: "Generate a create-table migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadProject()
			if err != nil {
				return err
			}
			list, err := attrs.Parse(attrList)
			if err != nil {
				return err
			}

			d, err := a.generator(cfg.GeneratorLayout()).Migration(args[0], list)
			if err != nil {
				return err
			}
			result, err := a.resolver().Materialize(cfg.Root, []structure.Descriptor{d})
			if err != nil {
				return err
			}
			a.printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&attrList, "attrs", "a", "", "Column attributes, e.g. \"title:string,price:float\"")
	return cmd
}

func newGenerateMiddlewareCommand(a *app) *cobra.Command {
	var register, force bool

	cmd := &cobra.Command{
		Use:   "middleware <name>",
		Short: "Generate a middleware file",
		Long: fmt.Sprintf(`Generate a middleware file in the project's middleware directory.

Built-in middleware: %s
Any other name gets an empty (req, res, next) skeleton.

With --register, global middleware is imported and mounted in the
application file; the error handler is mounted last. Route-level
middleware (auth, validate) is never mounted globally.`, strings.Join(generator.BuiltinMiddleware(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerateMiddleware(args[0], register, force)
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "Mount the middleware in the application file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func (a *app) runGenerateMiddleware(name string, register, force bool) error {
	cfg, err := a.loadProject()
	if err != nil {
		return err
	}
	gen := a.generator(cfg.GeneratorLayout())

	d, err := gen.Middleware(name, force)
	if err != nil {
		return err
	}
	m, _ := generator.ResolveMiddleware(name)
	if m.Kind == generator.MiddlewareCustom {
		if best := ui.FindBestMatch(name, generator.BuiltinMiddleware(), &ui.FuzzyMatchOptions{MaxDistance: 2}); best != "" {
			fmt.Fprint(a.stdout, ui.Info(fmt.Sprintf(
				"%s is not a built-in middleware, generating a custom skeleton (did you mean %s?)", name, best), a.noColor))
		}
	}

	var reqs []patch.Request
	patcher := a.patcher()
	if register {
		if reqs, err = gen.MiddlewareRegistration(cfg.Root, name); err != nil {
			return err
		}
		if err := patcher.Check(reqs...); err != nil {
			return a.registrationFailed(cfg.Root, err, reqs...)
		}
	}

	result, err := a.resolver().Materialize(cfg.Root, []structure.Descriptor{d})
	if err != nil {
		return err
	}
	a.printResult(result)

	for _, req := range reqs {
		outcome, err := patcher.Apply(req)
		if err != nil {
			return a.registrationFailed(cfg.Root, err, req)
		}
		a.printPatch(cfg.Root, req, outcome)
	}

	if register && len(reqs) == 0 {
		fmt.Fprint(a.stdout, ui.Info(fmt.Sprintf(
			"%s is route-level middleware; add it to a route, e.g. router.get('/', %s, handler)", m.Name, m.Var), a.noColor))
	}
	return nil
}

// registrationFailed prints the lines the user has to add by hand
func (a *app) registrationFailed(root string, err error, reqs ...patch.Request) error {
	lines := make([]string, len(reqs))
	for i, req := range reqs {
		lines[i] = req.Insertion
	}
	fmt.Fprint(a.stderr, ui.RegistrationError(a.rel(root, reqs[0].Target), strings.Join(lines, "\n"), err, a.noColor))
	return reported(err)
}

func (a *app) printResult(r *structure.Result) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	for _, p := range r.Created {
		green.Fprintf(a.stdout, "  create     %s\n", p)
	}
	for _, p := range r.Overwritten {
		yellow.Fprintf(a.stdout, "  overwrite  %s\n", p)
	}
	for _, p := range r.Skipped {
		yellow.Fprintf(a.stdout, "  skip       %s\n", p)
	}
}

func (a *app) printPatch(root string, req patch.Request, outcome patch.Outcome) {
	target := a.rel(root, req.Target)
	if outcome == patch.Skipped {
		color.New(color.FgYellow).Fprintf(a.stdout, "  unchanged  %s\n", target)
		return
	}
	color.New(color.FgCyan).Fprintf(a.stdout, "  update     %s\n", target)
}

func (a *app) rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
