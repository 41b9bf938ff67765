package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/tejusoni55/sargenjs/internal/attrs"
	"github.com/tejusoni55/sargenjs/internal/cli/config"
	"github.com/tejusoni55/sargenjs/internal/cli/ui"
	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/project"
	"github.com/tejusoni55/sargenjs/internal/runner"
	str "github.com/tejusoni55/sargenjs/internal/util/strings"
)

// reportedError has already been shown to the user
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// notInProjectError remembers where the lookup started
type notInProjectError struct{ dir string }

func (e *notInProjectError) Error() string { return config.ErrNotInProject.Error() }
func (e *notInProjectError) Unwrap() error { return config.ErrNotInProject }

// configError is a sargen.yaml that could not be read or is invalid
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// reportError prints err the way the user should see it
func reportError(w io.Writer, err error, noColor bool) {
	var rep *reportedError
	if errors.As(err, &rep) {
		return
	}
	if msg := explain(err, noColor); msg != "" {
		fmt.Fprint(w, msg)
		return
	}
	errorColor := color.New(color.FgRed, color.Bold)
	if noColor {
		errorColor.DisableColor()
	}
	errorColor.Fprintf(w, "Error: %v\n", err)
}

// explain maps typed errors to formatted messages. It returns "" for errors
// without a dedicated format.
func explain(err error, noColor bool) string {
	var (
		nip  *notInProjectError
		cfg  *configError
		perr *attrs.ParseError
		verr *generator.ValidationError
		cerr *runner.ExternalCommandError
	)

	switch {
	case errors.As(err, &nip):
		return ui.NotInProjectError(nip.dir, noColor)
	case errors.As(err, &cfg):
		return ui.ConfigError(cfg.Error(), nil, noColor)
	case errors.As(err, &perr):
		return ui.InvalidInputError("attributes", perr.Error(), "sargen generate module --help", noColor)
	case errors.As(err, &verr):
		switch verr.Field {
		case "template":
			return ui.UnknownNameError("PRESET", verr.Value, project.BuiltinPresets().Names(), "sargen template list", noColor)
		case "database":
			return ui.UnknownNameError("DATABASE", verr.Value, project.Databases(), "", noColor)
		}
		return ui.InvalidInputError(verr.Field, str.Capitalize(verr.Error())+".", "sargen --help", noColor)
	case errors.As(err, &cerr):
		return ui.CommandFailedError(cerr.Command, cerr.Err, "", noColor)
	}
	return ""
}
