package generator

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tejusoni55/sargenjs/internal/patch"
	"github.com/tejusoni55/sargenjs/internal/structure"
	str "github.com/tejusoni55/sargenjs/internal/util/strings"
)

// MaxMiddlewareNameLength caps custom middleware names
const MaxMiddlewareNameLength = 30

var middlewarePattern = regexp.MustCompile(`^[a-z][a-zA-Z_]*$`)

// identifiers already bound in the generated app.js
var reservedMiddleware = map[string]bool{"express": true, "app": true, "routes": true}

// MiddlewareKind enumerates the built-in middleware
type MiddlewareKind int

const (
	MiddlewareAuth MiddlewareKind = iota
	MiddlewareLogger
	MiddlewareRateLimit
	MiddlewareCors
	MiddlewareErrorHandler
	MiddlewareValidate
	// MiddlewareCustom is any other valid name; it gets an empty skeleton
	MiddlewareCustom
)

// Mount says how a middleware is wired into the application
type Mount int

const (
	// MountGlobal runs for every request, right after the body parsers
	MountGlobal Mount = iota
	// MountTerminal is registered after all routes, as an error handler
	MountTerminal
	// MountRoute is applied per route by hand and never registered in app.js
	MountRoute
)

type middlewareInfo struct {
	name  string
	stem  string
	ident string
	mount Mount
}

var middlewareTable = map[MiddlewareKind]middlewareInfo{
	MiddlewareAuth:         {name: "auth", stem: "auth", ident: "auth", mount: MountRoute},
	MiddlewareLogger:       {name: "logger", stem: "logger", ident: "logger", mount: MountGlobal},
	MiddlewareRateLimit:    {name: "rateLimit", stem: "rate-limit", ident: "limiter", mount: MountGlobal},
	MiddlewareCors:         {name: "cors", stem: "cors", ident: "corsMiddleware", mount: MountGlobal},
	MiddlewareErrorHandler: {name: "errorHandler", stem: "error-handler", ident: "errorHandler", mount: MountTerminal},
	MiddlewareValidate:     {name: "validate", stem: "validate", ident: "validate", mount: MountRoute},
}

func (k MiddlewareKind) String() string {
	if info, ok := middlewareTable[k]; ok {
		return info.name
	}
	if k == MiddlewareCustom {
		return "custom"
	}
	return fmt.Sprintf("MiddlewareKind(%d)", int(k))
}

// BuiltinMiddleware lists the built-in middleware names, sorted
func BuiltinMiddleware() []string {
	names := make([]string, 0, len(middlewareTable))
	for _, info := range middlewareTable {
		names = append(names, info.name)
	}
	sort.Strings(names)
	return names
}

// Middleware is a resolved middleware name
type Middleware struct {
	Kind MiddlewareKind
	Name string
	// Stem is the file name under src/middleware without the .js extension
	Stem string
	// Var is the identifier the module exports
	Var         string
	Mount       Mount
	TemplateRef string
}

// File returns the middleware file name
func (m Middleware) File() string {
	return m.Stem + ".js"
}

// ResolveMiddleware maps a name to a built-in middleware, or validates it
// as a custom one. Built-ins also match by their file stem, e.g. "rate-limit".
func ResolveMiddleware(name string) (Middleware, error) {
	for kind, info := range middlewareTable {
		if name == info.name || name == info.stem {
			return Middleware{
				Kind:        kind,
				Name:        info.name,
				Stem:        info.stem,
				Var:         info.ident,
				Mount:       info.mount,
				TemplateRef: "middleware/" + info.stem + ".js",
			}, nil
		}
	}

	if name == "" {
		return Middleware{}, &ValidationError{Field: "middleware name", Msg: "cannot be empty"}
	}
	if len(name) > MaxMiddlewareNameLength {
		return Middleware{}, &ValidationError{Field: "middleware name", Value: name,
			Msg: fmt.Sprintf("must be at most %d characters", MaxMiddlewareNameLength)}
	}
	if !middlewarePattern.MatchString(name) {
		return Middleware{}, &ValidationError{Field: "middleware name", Value: name,
			Msg: "must start with a lowercase letter and contain only letters and underscores"}
	}
	if reservedMiddleware[name] {
		return Middleware{}, &ValidationError{Field: "middleware name", Value: name, Msg: "is reserved"}
	}

	return Middleware{
		Kind:        MiddlewareCustom,
		Name:        name,
		Stem:        str.ToKebabCase(name),
		Var:         str.ToCamelCase(name),
		Mount:       MountGlobal,
		TemplateRef: "middleware/custom.js",
	}, nil
}

// Middleware returns the descriptor of the middleware file
func (g *Generator) Middleware(name string, force bool) (structure.Descriptor, error) {
	m, err := ResolveMiddleware(name)
	if err != nil {
		return structure.Descriptor{}, err
	}

	d := structure.Template(path.Join(g.layout.SrcDir, "middleware", m.File()), m.TemplateRef, map[string]any{
		"Name": m.Name,
		"Var":  m.Var,
	})
	if force {
		d = d.Forced()
	}
	return d, nil
}

// MiddlewareRegistration returns the requests that import and mount the
// middleware in the application file. Route-level middleware returns none.
func (g *Generator) MiddlewareRegistration(root, name string) ([]patch.Request, error) {
	m, err := ResolveMiddleware(name)
	if err != nil {
		return nil, err
	}
	if m.Mount == MountRoute {
		return nil, nil
	}

	target := filepath.Join(root, filepath.FromSlash(g.layout.AppFile))
	use := fmt.Sprintf("app.use(%s);", m.Var)

	reqs := []patch.Request{{
		Target:        target,
		Insertion:     fmt.Sprintf("const %s = require('./middleware/%s');", m.Var, m.Stem),
		Position:      patch.AfterAnchor,
		Anchor:        "const express = require(",
		SkipIfPresent: true,
	}}

	switch m.Mount {
	case MountGlobal:
		reqs = append(reqs, patch.Request{
			Target:        target,
			Insertion:     use,
			Position:      patch.AfterAnchor,
			Anchor:        g.layout.MiddlewareAnchor,
			SkipIfPresent: true,
		})
	case MountTerminal:
		reqs = append(reqs, patch.Request{
			Target:        target,
			Insertion:     use,
			Position:      patch.BeforeAnchor,
			Anchor:        "module.exports = app;",
			SkipIfPresent: true,
		})
	}
	return reqs, nil
}

// MiddlewareNames splits a comma separated list, dropping blanks
func MiddlewareNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}
