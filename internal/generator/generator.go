// Package generator plans the files for a backend module (controller, route,
// service, model), its create-table migration, and middleware, and builds
// the patch requests that register them in an existing project.
package generator

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/tejusoni55/sargenjs/internal/attrs"
	"github.com/tejusoni55/sargenjs/internal/patch"
	"github.com/tejusoni55/sargenjs/internal/structure"
	"github.com/tejusoni55/sargenjs/internal/templates"
	str "github.com/tejusoni55/sargenjs/internal/util/strings"
)

// MaxModuleNameLength caps module names
const MaxModuleNameLength = 20

const timestampLayout = "20060102150405"

var modulePattern = regexp.MustCompile(`^[a-z][a-zA-Z_]*$`)

var enumEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// reservedAttributes are columns every generated table already has
var reservedAttributes = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
}

// Layout locates the files of a generated project, relative to its root
type Layout struct {
	SrcDir           string
	RoutesIndex      string
	RouteAnchor      string
	AppFile          string
	MiddlewareAnchor string
	MigrationsDir    string
}

// DefaultLayout matches the tree produced by `sargen new`
func DefaultLayout() Layout {
	return Layout{
		SrcDir:           "src",
		RoutesIndex:      "src/routes/index.js",
		RouteAnchor:      "module.exports = router;",
		AppFile:          "src/app.js",
		MiddlewareAnchor: "// sargen:middleware",
		MigrationsDir:    "migrations",
	}
}

// Options controls module generation
type Options struct {
	CRUD         bool
	IncludeModel bool
	// Force overwrites files that already exist
	Force bool
}

// Column is an attribute as the model and migration templates see it
type Column struct {
	Name      string
	Type      string
	Reference *attrs.Reference
}

// Generator plans module, migration and middleware files
type Generator struct {
	fs       afero.Fs
	sources  templates.Sources
	renderer *templates.Renderer
	layout   Layout
	now      func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithLayout overrides DefaultLayout
func WithLayout(l Layout) Option {
	return func(g *Generator) { g.layout = l }
}

// WithClock fixes the time used for migration timestamps
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a generator. fs is only read, for duplicate checks.
func New(fs afero.Fs, sources templates.Sources, renderer *templates.Renderer, opts ...Option) *Generator {
	if renderer == nil {
		renderer = templates.NewRenderer(nil)
	}
	g := &Generator{
		fs:       fs,
		sources:  sources,
		renderer: renderer,
		layout:   DefaultLayout(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Layout returns the layout the generator writes into
func (g *Generator) Layout() Layout {
	return g.layout
}

// ValidateModuleName checks a module name against the naming rules
func ValidateModuleName(name string) error {
	if name == "" {
		return &ValidationError{Field: "module name", Msg: "cannot be empty"}
	}
	if len(name) > MaxModuleNameLength {
		return &ValidationError{Field: "module name", Value: name,
			Msg: fmt.Sprintf("must be at most %d characters", MaxModuleNameLength)}
	}
	if !modulePattern.MatchString(name) {
		return &ValidationError{Field: "module name", Value: name,
			Msg: "must start with a lowercase letter and contain only letters and underscores"}
	}
	return nil
}

func validateAttributes(list []attrs.Attribute) error {
	for _, a := range list {
		if reservedAttributes[a.Name] {
			return &ValidationError{Field: "attribute", Value: a.Name,
				Msg: "is generated automatically and cannot be declared"}
		}
	}
	return nil
}

// Plan returns one file descriptor per module artifact: controller, route,
// service and, when opts.IncludeModel is set, the model
func (g *Generator) Plan(moduleName string, list []attrs.Attribute, opts Options) ([]structure.Descriptor, error) {
	if err := ValidateModuleName(moduleName); err != nil {
		return nil, err
	}
	if err := validateAttributes(list); err != nil {
		return nil, err
	}

	data := g.moduleData(moduleName, list, opts)
	if opts.CRUD {
		if err := g.renderFragments(data); err != nil {
			return nil, err
		}
	}

	plan := []structure.Descriptor{
		structure.Template(g.modulePath("controllers", moduleName, "controller"), "module/controller.js", data),
		structure.Template(g.modulePath("routes", moduleName, "routes"), "module/route.js", data),
		structure.Template(g.modulePath("services", moduleName, "service"), "module/service.js", data),
	}
	if opts.IncludeModel {
		plan = append(plan, structure.Template(g.modulePath("models", moduleName, "model"), "module/model.js", data))
	}

	if opts.Force {
		for i := range plan {
			plan[i] = plan[i].Forced()
		}
	}
	return plan, nil
}

func (g *Generator) modulePath(dir, moduleName, suffix string) string {
	return path.Join(g.layout.SrcDir, dir, moduleName+"."+suffix+".js")
}

func (g *Generator) moduleData(moduleName string, list []attrs.Attribute, opts Options) map[string]any {
	return map[string]any{
		"ModuleName":       moduleName,
		"ModuleNameCap":    str.Capitalize(moduleName),
		"TableName":        str.ToSnakeCase(moduleName),
		"ServiceVar":       str.ToCamelCase(moduleName) + "Service",
		"ServiceImport":    "../services/" + moduleName + ".service",
		"ControllerImport": "../controllers/" + moduleName + ".controller",
		"ModelImport":      "../models",
		"Attributes":       list,
		"Columns":          Columns(list),
		"HasAttributes":    len(list) > 0,
		"UsesModel":        len(list) > 0 && opts.IncludeModel,
		"CRUD":             opts.CRUD,
	}
}

// renderFragments pre-renders the CRUD bodies spliced into the module templates
func (g *Generator) renderFragments(data map[string]any) error {
	fragments := []struct {
		key string
		ref string
	}{
		{"ControllerMethods", "crud/controller.js"},
		{"ServiceMethods", "crud/service.js"},
		{"RouteRegistrations", "crud/routes.js"},
	}

	for _, f := range fragments {
		source, err := g.sources.Source(f.ref)
		if err != nil {
			return fmt.Errorf("load %s: %w", f.ref, err)
		}
		out, err := g.renderer.Render(source, data)
		if err != nil {
			return fmt.Errorf("render %s: %w", f.ref, err)
		}
		data[f.key] = out
	}
	return nil
}

// Columns maps attributes to their column definitions
func Columns(list []attrs.Attribute) []Column {
	cols := make([]Column, 0, len(list))
	for _, a := range list {
		cols = append(cols, Column{
			Name:      a.Name,
			Type:      columnType(a),
			Reference: a.Reference,
		})
	}
	return cols
}

func columnType(a attrs.Attribute) string {
	switch a.Kind {
	case attrs.KindEnum:
		quoted := make([]string, len(a.EnumValues))
		for i, v := range a.EnumValues {
			quoted[i] = "'" + enumEscaper.Replace(v) + "'"
		}
		return "ENUM(" + strings.Join(quoted, ", ") + ")"
	case attrs.KindString, attrs.KindNumber, attrs.KindInteger, attrs.KindBoolean,
		attrs.KindFloat, attrs.KindDate, attrs.KindReference:
		return a.Kind.StorageType()
	default:
		return a.StorageType
	}
}

// Migration returns the descriptor of a create-table migration named
// <YYYYMMDDHHMMSS>-create-<module>.js
func (g *Generator) Migration(moduleName string, list []attrs.Attribute) (structure.Descriptor, error) {
	if err := ValidateModuleName(moduleName); err != nil {
		return structure.Descriptor{}, err
	}
	if err := validateAttributes(list); err != nil {
		return structure.Descriptor{}, err
	}

	ts := g.now().UTC().Format(timestampLayout)
	name := fmt.Sprintf("%s-create-%s.js", ts, moduleName)

	return structure.Template(path.Join(g.layout.MigrationsDir, name), "migration/create-table.js", map[string]any{
		"ModuleName": moduleName,
		"TableName":  str.ToSnakeCase(moduleName),
		"Columns":    Columns(list),
	}), nil
}

// RouteRegistration returns the request that mounts the module's router in
// the routes index
func (g *Generator) RouteRegistration(root, moduleName string) (patch.Request, error) {
	if err := ValidateModuleName(moduleName); err != nil {
		return patch.Request{}, err
	}
	return patch.Request{
		Target:        filepath.Join(root, filepath.FromSlash(g.layout.RoutesIndex)),
		Insertion:     fmt.Sprintf("router.use('/%s', require('./%s.routes'));", moduleName, moduleName),
		Position:      patch.BeforeAnchor,
		Anchor:        g.layout.RouteAnchor,
		SkipIfPresent: true,
	}, nil
}

// EnsureNew fails when the module's route file already exists under root
func (g *Generator) EnsureNew(root, moduleName string) error {
	if err := ValidateModuleName(moduleName); err != nil {
		return err
	}
	routeFile := filepath.Join(root, filepath.FromSlash(g.modulePath("routes", moduleName, "routes")))
	exists, err := afero.Exists(g.fs, routeFile)
	if err != nil {
		return fmt.Errorf("check %s: %w", routeFile, err)
	}
	if exists {
		return &ValidationError{Field: "module name", Value: moduleName, Msg: "module already exists (use --force to overwrite)"}
	}
	return nil
}
