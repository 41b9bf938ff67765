package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/generator"
	"github.com/tejusoni55/sargenjs/internal/logging"
	"github.com/tejusoni55/sargenjs/internal/structure"
)

// Directories created in every project
var Directories = []string{
	"src/controllers",
	"src/routes",
	"src/services",
	"src/models",
	"src/middleware",
	"src/config",
	"migrations",
	"seeders",
	"tests",
}

// middlewarePackages are the npm packages each built-in middleware requires
var middlewarePackages = map[generator.MiddlewareKind][]string{
	generator.MiddlewareAuth:      {"jsonwebtoken"},
	generator.MiddlewareLogger:    {"morgan"},
	generator.MiddlewareRateLimit: {"express-rate-limit"},
	generator.MiddlewareCors:      {"cors"},
}

// Dependencies are the npm packages a project needs
type Dependencies struct {
	Runtime []string
	Dev     []string
}

// Dependencies lists the packages for the resolved options
func (o Options) Dependencies() Dependencies {
	deps := Dependencies{
		Runtime: []string{"express", "sequelize", "dotenv"},
		Dev:     []string{"nodemon", "sequelize-cli"},
	}
	deps.Runtime = append(deps.Runtime, o.Database.Drivers()...)

	seen := make(map[string]bool)
	for _, name := range o.Middleware {
		m, err := generator.ResolveMiddleware(name)
		if err != nil {
			continue
		}
		for _, pkg := range middlewarePackages[m.Kind] {
			if !seen[pkg] {
				seen[pkg] = true
				deps.Runtime = append(deps.Runtime, pkg)
			}
		}
	}
	return deps
}

// SecretFunc produces the JWT secret written to .env
type SecretFunc func() string

// RandomSecret returns 64 random hex characters
func RandomSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// Composer plans new project trees
type Composer struct {
	gen     *generator.Generator
	presets *Registry
	secret  SecretFunc
	logger  *zap.Logger
}

// NewComposer creates a composer. A nil secret uses RandomSecret.
func NewComposer(gen *generator.Generator, presets *Registry, secret SecretFunc, logger *zap.Logger) *Composer {
	if presets == nil {
		presets = BuiltinPresets()
	}
	if secret == nil {
		secret = RandomSecret
	}
	return &Composer{
		gen:     gen,
		presets: presets,
		secret:  secret,
		logger:  logging.OrNop(logger),
	}
}

// Presets returns the preset registry
func (c *Composer) Presets() *Registry {
	return c.presets
}

// Resolve applies defaults and the selected preset, then validates
func (c *Composer) Resolve(opts Options) (Options, error) {
	opts = opts.Defaults()
	resolved, err := c.presets.Apply(opts)
	if err != nil {
		return opts, &generator.ValidationError{Field: "template", Value: opts.Template, Msg: "unknown preset"}
	}
	if err := resolved.Validate(); err != nil {
		return opts, err
	}
	return resolved, nil
}

type appImport struct {
	Var  string
	File string
}

// Plan returns the descriptors for a new project rooted at the project
// directory. Options are resolved first.
func (c *Composer) Plan(opts Options) ([]structure.Descriptor, error) {
	opts, err := c.Resolve(opts)
	if err != nil {
		return nil, err
	}

	middleware := make([]generator.Middleware, 0, len(opts.Middleware))
	for _, name := range opts.Middleware {
		m, err := generator.ResolveMiddleware(name)
		if err != nil {
			return nil, err
		}
		middleware = append(middleware, m)
	}

	pkg, err := packageJSON(opts)
	if err != nil {
		return nil, err
	}

	dialect := opts.Database.Dialect()
	plan := []structure.Descriptor{
		structure.Dirs(Directories...),
		structure.File("package.json", pkg),
		structure.Template("src/app.js", "project/app.js", appData(middleware)),
		structure.Template("src/server.js", "project/server.js", map[string]any{
			"Port":        opts.Port,
			"ProjectName": opts.Name,
		}),
		structure.Template("src/config/database.js", "project/database.js", map[string]any{"Dialect": dialect}),
		structure.Template("src/models/index.js", "project/models-index.js", nil),
		structure.Template("src/routes/index.js", "project/routes-index.js", nil),
		structure.Template(".sequelizerc", "project/sequelizerc", nil),
		structure.Template(".env", "project/env", envData(opts, middleware, c.secret())),
		structure.Template(".env.example", "project/env", envData(opts, middleware, "change-me")),
		structure.Template(".gitignore", "project/gitignore", nil),
		structure.Template("README.md", "project/readme.md", map[string]any{
			"ProjectName":    opts.Name,
			"PackageManager": opts.PackageManager,
			"Port":           opts.Port,
			"Docker":         opts.Docker,
		}),
		structure.Template("sargen.yaml", "project/sargen.yaml", map[string]any{
			"ProjectName":    opts.Name,
			"PackageManager": opts.PackageManager,
			"Dialect":        dialect,
		}),
	}

	for _, m := range middleware {
		d, err := c.gen.Middleware(m.Name, false)
		if err != nil {
			return nil, err
		}
		plan = append(plan, d)
	}

	if opts.Docker {
		compose, err := composeYAML(opts)
		if err != nil {
			return nil, err
		}
		plan = append(plan,
			structure.Template("Dockerfile", "project/dockerfile", map[string]any{"Port": opts.Port}),
			structure.Template(".dockerignore", "project/dockerignore", nil),
			structure.File("docker-compose.yml", compose),
		)
	}

	c.logger.Debug("planned project",
		zap.String("name", opts.Name),
		zap.String("preset", opts.Template),
		zap.Stringer("database", opts.Database),
		zap.Strings("middleware", opts.Middleware),
		zap.Int("entries", len(plan)))
	return plan, nil
}

func appData(middleware []generator.Middleware) map[string]any {
	imports := []appImport{}
	global := []string{}
	errorHandler := ""

	for _, m := range middleware {
		switch m.Mount {
		case generator.MountGlobal:
			imports = append(imports, appImport{Var: m.Var, File: m.Stem})
			global = append(global, m.Var)
		case generator.MountTerminal:
			imports = append(imports, appImport{Var: m.Var, File: m.Stem})
			errorHandler = m.Var
		case generator.MountRoute:
		}
	}

	return map[string]any{
		"Imports":      imports,
		"Global":       global,
		"ErrorHandler": errorHandler,
	}
}

func envData(opts Options, middleware []generator.Middleware, secret string) map[string]any {
	data := map[string]any{
		"Port":          opts.Port,
		"Dialect":       opts.Database.Dialect(),
		"DatabaseURL":   opts.Database.URL(databaseName(opts.Name)),
		"HasAuth":       false,
		"HasCors":       false,
		"HasRateLimit":  false,
		"SessionSecret": "",
	}
	for _, m := range middleware {
		switch m.Kind {
		case generator.MiddlewareAuth:
			data["HasAuth"] = true
			data["SessionSecret"] = secret
		case generator.MiddlewareCors:
			data["HasCors"] = true
		case generator.MiddlewareRateLimit:
			data["HasRateLimit"] = true
		}
	}
	return data
}

type packageManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Main            string            `json:"main"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// packageJSON renders package.json. Versions are left to the installer,
// which pins whatever it resolves.
func packageJSON(opts Options) (string, error) {
	deps := opts.Dependencies()
	manifest := packageManifest{
		Name:    strings.ToLower(opts.Name),
		Version: "1.0.0",
		Private: true,
		Main:    "src/server.js",
		Scripts: map[string]string{
			"start":        "node src/server.js",
			"dev":          "nodemon src/server.js",
			"migrate":      "sequelize-cli db:migrate",
			"migrate:undo": "sequelize-cli db:migrate:undo",
		},
		Dependencies:    latest(deps.Runtime),
		DevDependencies: latest(deps.Dev),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(manifest); err != nil {
		return "", fmt.Errorf("encode package.json: %w", err)
	}
	return buf.String(), nil
}

func latest(pkgs []string) map[string]string {
	m := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		m[p] = "latest"
	}
	return m
}
