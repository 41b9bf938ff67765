package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tejusoni55/sargenjs/internal/cli/config"
	"github.com/tejusoni55/sargenjs/internal/cli/ui"
	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/project"
	"github.com/tejusoni55/sargenjs/internal/runner"
)

type newFlags struct {
	interactive    bool
	database       string
	port           int
	template       string
	middleware     []string
	docker         bool
	noGit          bool
	noInstall      bool
	remote         string
	push           bool
	packageManager string
}

func newNewCommand(a *app) *cobra.Command {
	f := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new [project-name]",
		Short: "Create a new Express/Sequelize project",
		Long: `Create a new project with directory structure, configuration and
starter files, then install dependencies and initialize git.

If no project name is provided, you will be prompted for every option.

Presets:
  basic - Express app with error handling
  api   - REST API with logging, CORS, JWT auth and validation
  full  - api plus rate limiting and Docker

Examples:
  sargen new shop
  sargen new shop --template api --database sqlite
  sargen new shop --middleware cors,logger --docker --no-install
  sargen new --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNew(cmd, args, f)
		},
	}

	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "Interactive project setup with prompts")
	cmd.Flags().StringVar(&f.database, "database", "postgres", "Database (postgres, mysql, sqlite)")
	cmd.Flags().IntVar(&f.port, "port", project.DefaultPort, "Default server port")
	cmd.Flags().StringVarP(&f.template, "template", "t", project.DefaultPreset, "Project preset (basic, api, full)")
	cmd.Flags().StringSliceVarP(&f.middleware, "middleware", "m", nil, "Additional middleware to generate")
	cmd.Flags().BoolVar(&f.docker, "docker", false, "Add Dockerfile and docker-compose.yml")
	cmd.Flags().BoolVar(&f.noGit, "no-git", false, "Skip git initialization")
	cmd.Flags().BoolVar(&f.noInstall, "no-install", false, "Skip dependency installation")
	cmd.Flags().StringVar(&f.remote, "remote", "", "Git remote URL to add as origin")
	cmd.Flags().BoolVar(&f.push, "push", false, "Push the initial commit to the remote")
	cmd.Flags().StringVar(&f.packageManager, "package-manager", project.DefaultPackageManager, "Package manager (npm, yarn, pnpm)")

	return cmd
}

func (a *app) runNew(cmd *cobra.Command, args []string, f *newFlags) error {
	infoColor := color.New(color.FgCyan)

	db, err := project.ParseDatabase(f.database)
	if err != nil {
		return err
	}

	opts := project.Options{
		Database:       db,
		Port:           f.port,
		Template:       f.template,
		Middleware:     f.middleware,
		Docker:         f.docker,
		Git:            !f.noGit,
		Install:        !f.noInstall,
		Remote:         f.remote,
		PackageManager: f.packageManager,
	}
	if len(args) > 0 {
		opts.Name = args[0]
	}

	composer := project.NewComposer(a.generator(generator.DefaultLayout()), nil, a.secret, a.logger)

	if f.interactive || opts.Name == "" {
		if opts, err = a.promptNew(opts, composer.Presets()); err != nil {
			return err
		}
	}

	opts, err = composer.Resolve(opts)
	if err != nil {
		return err
	}

	wd, err := a.getwd()
	if err != nil {
		return err
	}
	dir := filepath.Join(wd, opts.Name)
	if exists, _ := afero.Exists(a.fs, dir); exists {
		return fmt.Errorf("directory '%s' already exists", opts.Name)
	}

	plan, err := composer.Plan(opts)
	if err != nil {
		return err
	}

	total := 1
	if opts.Install {
		total++
	}
	if opts.Git {
		total++
	}
	steps := ui.NewSteps(a.stdout, total, a.noColor)

	steps.Next("Creating project files")
	result, err := a.resolver().Materialize(dir, plan)
	if err != nil {
		return err
	}
	infoColor.Fprintf(a.stdout, "  %d directories, %d files\n", len(result.CreatedDirs), len(result.Created))

	if opts.Install {
		steps.Next("Installing dependencies")
		if err := a.installDependencies(cmd, dir, opts); err != nil {
			fmt.Fprint(a.stderr, ui.CommandFailedError("dependency installation", err,
				fmt.Sprintf("cd %s && %s install", opts.Name, opts.PackageManager), a.noColor))
			return reported(err)
		}
	}

	if opts.Git {
		steps.Next("Initializing git repository")
		res, err := runner.NewGit(a.runner, a.logger).Setup(cmd.Context(), dir, runner.GitOptions{
			Remote: opts.Remote,
			Push:   f.push,
		})
		if err != nil {
			fmt.Fprint(a.stdout, ui.Warning(fmt.Sprintf("git setup failed, project left without a repository: %v", err), nil, a.noColor))
			res = &runner.GitResult{}
		}
		for _, w := range res.Warnings {
			fmt.Fprint(a.stdout, ui.Warning(w, nil, a.noColor))
		}
	}

	fmt.Fprintln(a.stdout)
	ui.WriteSuccess(a.stdout, fmt.Sprintf("Created project '%s' (%s, %s)", opts.Name, opts.Template, opts.Database), a.noColor)
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(a.stdout, "Next steps:")
	infoColor.Fprintf(a.stdout, "  cd %s\n", opts.Name)
	if !opts.Install {
		infoColor.Fprintf(a.stdout, "  %s install\n", opts.PackageManager)
	}
	if opts.Docker {
		infoColor.Fprintln(a.stdout, "  docker compose up")
	} else {
		infoColor.Fprintf(a.stdout, "  %s run dev\n", opts.PackageManager)
	}

	return nil
}

func (a *app) installDependencies(cmd *cobra.Command, dir string, opts project.Options) error {
	deps := opts.Dependencies()
	inst := runner.Installer{Runner: a.runner, PackageManager: opts.PackageManager}
	if cfg, err := config.Load(dir); err == nil {
		inst.Timeout = cfg.Commands.Timeout
	}

	spinner := ui.NewSpinner(a.stdout, ui.SpinnerOptions{Message: "Installing dependencies", NoColor: a.noColor})
	spinner.Start()
	defer spinner.Stop()

	if err := inst.Install(cmd.Context(), dir, deps.Runtime, false); err != nil {
		spinner.Error("Installing dependencies failed")
		return err
	}
	spinner.UpdateMessage("Installing dev dependencies")
	if err := inst.Install(cmd.Context(), dir, deps.Dev, true); err != nil {
		spinner.Error("Installing dev dependencies failed")
		return err
	}
	spinner.Success(fmt.Sprintf("Installed %d dependencies, %d dev dependencies", len(deps.Runtime), len(deps.Dev)))
	return nil
}

type newAnswers struct {
	Name       string   `survey:"name"`
	Template   string   `survey:"template"`
	Database   string   `survey:"database"`
	Port       string   `survey:"port"`
	Middleware []string `survey:"middleware"`
	Docker     bool     `survey:"docker"`
	Git        bool     `survey:"git"`
	Install    bool     `survey:"install"`
}

// promptNew asks for every option, using opts as the defaults
func (a *app) promptNew(opts project.Options, presets *project.Registry) (project.Options, error) {
	questions := []*survey.Question{
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Project name:", Default: opts.Name},
			Validate: validateWith(project.ValidateName),
		},
		{
			Name: "template",
			Prompt: &survey.Select{
				Message: "Preset:",
				Options: presets.Names(),
				Default: opts.Defaults().Template,
			},
		},
		{
			Name: "database",
			Prompt: &survey.Select{
				Message: "Database:",
				Options: project.Databases(),
				Default: opts.Database.String(),
			},
		},
		{
			Name:     "port",
			Prompt:   &survey.Input{Message: "Server port:", Default: strconv.Itoa(opts.Defaults().Port)},
			Validate: validateWith(validatePort),
		},
		{
			Name: "middleware",
			Prompt: &survey.MultiSelect{
				Message: "Extra middleware (the preset adds its own):",
				Options: generator.BuiltinMiddleware(),
				Default: opts.Middleware,
			},
		},
		{
			Name:   "docker",
			Prompt: &survey.Confirm{Message: "Add Docker support?", Default: opts.Docker},
		},
		{
			Name:   "git",
			Prompt: &survey.Confirm{Message: "Initialize a git repository?", Default: opts.Git},
		},
		{
			Name:   "install",
			Prompt: &survey.Confirm{Message: "Install dependencies now?", Default: opts.Install},
		},
	}

	var answers newAnswers
	if err := a.ask(questions, &answers); err != nil {
		return opts, err
	}

	db, err := project.ParseDatabase(answers.Database)
	if err != nil {
		return opts, err
	}
	port, err := strconv.Atoi(answers.Port)
	if err != nil {
		return opts, &generator.ValidationError{Field: "port", Value: answers.Port, Msg: "must be a number"}
	}

	opts.Name = answers.Name
	opts.Template = answers.Template
	opts.Database = db
	opts.Port = port
	opts.Middleware = answers.Middleware
	opts.Docker = answers.Docker
	opts.Git = answers.Git
	opts.Install = answers.Install
	return opts, nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

// validateWith adapts a string check to a survey validator
func validateWith(check func(string) error) survey.Validator {
	return func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("expected text input")
		}
		return check(s)
	}
}
