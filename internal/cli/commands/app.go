package commands

import (
	"io"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/dbcheck"
	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/logging"
	"github.com/tejusoni55/sargenjs/internal/patch"
	"github.com/tejusoni55/sargenjs/internal/project"
	"github.com/tejusoni55/sargenjs/internal/runner"
	"github.com/tejusoni55/sargenjs/internal/structure"
	"github.com/tejusoni55/sargenjs/internal/templates"
)

// askFunc matches survey.Ask
type askFunc func(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error

// app carries the collaborators shared by every command
type app struct {
	fs     afero.Fs
	runner runner.Runner
	open   dbcheck.Opener
	ask    askFunc
	getwd  func() (string, error)
	now    func() time.Time
	secret project.SecretFunc

	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	verbose bool
	noColor bool

	sources  templates.Sources
	renderer *templates.Renderer
}

func defaultApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		ask:    survey.Ask,
		getwd:  os.Getwd,
		now:    time.Now,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// init fills collaborators that depend on global flags
func (a *app) init() {
	if a.logger == nil {
		a.logger = logging.New(a.verbose)
	}
	if a.runner == nil {
		a.runner = runner.NewExecRunner(a.logger)
	}
	if a.sources == nil {
		a.sources = templates.Builtin()
	}
	if a.renderer == nil {
		a.renderer = templates.NewRenderer(templates.NewCache())
	}
}

func (a *app) generator(layout generator.Layout) *generator.Generator {
	return generator.New(a.fs, a.sources, a.renderer,
		generator.WithLayout(layout),
		generator.WithClock(a.now))
}

func (a *app) resolver() *structure.Resolver {
	return structure.NewResolver(a.fs, a.sources, a.renderer, a.logger)
}

func (a *app) patcher() *patch.Patcher {
	return patch.NewPatcher(a.fs, a.logger)
}
