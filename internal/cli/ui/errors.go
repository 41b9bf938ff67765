package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel is the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

type levelStyle struct {
	symbol string
	attr   color.Attribute
}

var levelStyles = map[ErrorLevel]levelStyle{
	ErrorLevelError:   {symbol: "❌", attr: color.FgRed},
	ErrorLevelWarning: {symbol: "⚠️", attr: color.FgYellow},
	ErrorLevelInfo:    {symbol: "ℹ️", attr: color.FgCyan},
}

// ErrorOptions configures a formatted message
type ErrorOptions struct {
	Level ErrorLevel
	// Context is a short upper-case heading such as "INVALID MODULE NAME"
	Context     string
	Problem     string
	Consequence string
	// Snippet is shown verbatim, e.g. a line the user should add by hand
	Snippet      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a message with optional suggestions and follow-up commands.
//
//	❌ UNKNOWN PRESET: ap
//	   No preset named 'ap'.
//
//	   Did you mean: api?
//
//	   → List presets: sargen template list
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	style := levelStyles[opts.Level]
	header := color.New(style.attr, color.Bold)
	body := color.New(style.attr)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{header, body, yellow, cyan} {
			c.DisableColor()
		}
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", style.symbol, strings.ToUpper(opts.Context))
		if opts.Problem != "" {
			body.Fprintf(&b, "   %s\n", opts.Problem)
		}
	} else {
		header.Fprintf(&b, "%s %s\n", style.symbol, opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if opts.Snippet != "" {
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(opts.Snippet, "\n"), "\n") {
			fmt.Fprintf(&b, "       %s\n", line)
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted message to w
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success line to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// UnknownNameError reports a preset, middleware or database name that does
// not exist, suggesting close matches from known
func UnknownNameError(kind, name string, known []string, listCommand string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "UNKNOWN " + kind,
		Problem:     fmt.Sprintf("No %s named '%s'.", strings.ToLower(kind), name),
		Suggestions: FindSimilar(name, known, nil),
		NoColor:     noColor,
	}
	if listCommand != "" {
		opts.HelpCommands = []string{"See what is available: " + listCommand}
	}
	return FormatError(opts)
}

// InvalidInputError reports a rejected name, attribute list or flag value
func InvalidInputError(field, message, helpCommand string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "INVALID " + field,
		Problem:      message,
		HelpCommands: []string{"Get help: " + helpCommand},
		NoColor:      noColor,
	})
}

// RegistrationError reports generated files that could not be wired into an
// existing file, with the line to add manually
func RegistrationError(target, line string, cause error, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "REGISTRATION FAILED",
		Problem:     fmt.Sprintf("Could not update %s: %v", target, cause),
		Consequence: fmt.Sprintf("Files were generated but not registered. Add this to %s:", target),
		Snippet:     line,
		NoColor:     noColor,
	})
}

// CommandFailedError reports an external command (npm, git) that failed
func CommandFailedError(command string, cause error, retry string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "COMMAND FAILED",
		Problem: fmt.Sprintf("%s: %v", command, cause),
		NoColor: noColor,
	}
	if retry != "" {
		opts.HelpCommands = []string{"Retry manually: " + retry}
	}
	return FormatError(opts)
}

// NotInProjectError reports a project command run outside a sargen project
func NotInProjectError(dir string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "NOT A SARGEN PROJECT",
		Problem: fmt.Sprintf("No sargen.yaml found in %s or any parent directory.", dir),
		HelpCommands: []string{
			"Create a project: sargen new <name>",
			"Get help: sargen --help",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a configuration error
func ConfigError(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CONFIGURATION ERROR",
		Problem:     message,
		Suggestions: suggestions,
		HelpCommands: []string{
			"View config: cat sargen.yaml",
			"Get help: sargen --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelWarning,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     noColor,
	})
}

// Info creates an info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
