// Package project plans the tree of a new Express + Sequelize backend.
package project

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tejusoni55/sargenjs/internal/generator"
)

const (
	DefaultPort           = 3000
	DefaultPackageManager = "npm"
	DefaultPreset         = "basic"
)

var projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// PackageManagers lists the supported Node package managers
var PackageManagers = []string{"npm", "yarn", "pnpm"}

// Options describes the project to create
type Options struct {
	Name     string
	Database Database
	Port     int
	// Template names a preset from the registry
	Template   string
	Middleware []string
	Docker     bool
	Git        bool
	Install    bool
	// Remote is an optional git remote URL
	Remote         string
	PackageManager string
}

// Defaults fills zero values. Applying it twice is harmless.
func (o Options) Defaults() Options {
	o.Name = strings.TrimSpace(o.Name)
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.PackageManager == "" {
		o.PackageManager = DefaultPackageManager
	}
	if o.Template == "" {
		o.Template = DefaultPreset
	}
	return o
}

// Validate checks the options after defaults have been applied
func (o Options) Validate() error {
	if err := ValidateName(o.Name); err != nil {
		return err
	}
	if !o.Database.valid() {
		return &generator.ValidationError{Field: "database", Value: o.Database.String(), Msg: "unsupported database"}
	}
	if o.Port < 1 || o.Port > 65535 {
		return &generator.ValidationError{Field: "port", Value: fmt.Sprint(o.Port), Msg: "must be between 1 and 65535"}
	}
	if !isPackageManager(o.PackageManager) {
		return &generator.ValidationError{Field: "package manager", Value: o.PackageManager,
			Msg: "must be one of " + strings.Join(PackageManagers, ", ")}
	}
	for _, name := range o.Middleware {
		if _, err := generator.ResolveMiddleware(name); err != nil {
			return err
		}
	}
	return nil
}

// ValidateName checks a project name. It becomes a directory name, so
// separators and dots are refused.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) == 0 || len(name) > 100 {
		return &generator.ValidationError{Field: "project name", Value: name, Msg: "must be 1-100 characters"}
	}
	if filepath.IsAbs(name) {
		return &generator.ValidationError{Field: "project name", Value: name, Msg: "cannot be an absolute path"}
	}
	if !projectNamePattern.MatchString(name) {
		return &generator.ValidationError{Field: "project name", Value: name,
			Msg: "can only contain letters, numbers, dashes, and underscores"}
	}
	return nil
}

func isPackageManager(pm string) bool {
	for _, p := range PackageManagers {
		if p == pm {
			return true
		}
	}
	return false
}

// databaseName derives a database identifier from the project name
func databaseName(project string) string {
	return strings.ToLower(strings.ReplaceAll(project, "-", "_"))
}
