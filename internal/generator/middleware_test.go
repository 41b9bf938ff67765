package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejusoni55/sargenjs/internal/patch"
	"github.com/tejusoni55/sargenjs/internal/structure"
	"github.com/tejusoni55/sargenjs/internal/templates"
)

func TestResolveMiddleware(t *testing.T) {
	tests := []struct {
		input     string
		wantKind  MiddlewareKind
		wantStem  string
		wantVar   string
		wantMount Mount
	}{
		{"auth", MiddlewareAuth, "auth", "auth", MountRoute},
		{"rateLimit", MiddlewareRateLimit, "rate-limit", "limiter", MountGlobal},
		{"rate-limit", MiddlewareRateLimit, "rate-limit", "limiter", MountGlobal},
		{"errorHandler", MiddlewareErrorHandler, "error-handler", "errorHandler", MountTerminal},
		{"validate", MiddlewareValidate, "validate", "validate", MountRoute},
		{"requestId", MiddlewareCustom, "request-id", "requestId", MountGlobal},
		{"audit_trail", MiddlewareCustom, "audit-trail", "auditTrail", MountGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m, err := ResolveMiddleware(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, m.Kind)
			assert.Equal(t, tt.wantStem, m.Stem)
			assert.Equal(t, tt.wantVar, m.Var)
			assert.Equal(t, tt.wantMount, m.Mount)
		})
	}
}

func TestResolveMiddlewareInvalid(t *testing.T) {
	for _, name := range []string{"", "Auth", "my-thing", "x1", "app", strings.Repeat("a", 31)} {
		_, err := ResolveMiddleware(name)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), name)
	}
}

func TestMiddlewareKindString(t *testing.T) {
	assert.Equal(t, "rateLimit", MiddlewareRateLimit.String())
	assert.Equal(t, "custom", MiddlewareCustom.String())
	assert.Equal(t, "MiddlewareKind(42)", MiddlewareKind(42).String())
}

func TestBuiltinMiddleware(t *testing.T) {
	assert.Equal(t, []string{"auth", "cors", "errorHandler", "logger", "rateLimit", "validate"}, BuiltinMiddleware())
}

func TestMiddlewareDescriptor(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newTestGenerator(fs)

	builtin, err := g.Middleware("cors", false)
	require.NoError(t, err)
	assert.Equal(t, "src/middleware/cors.js", builtin.Path)

	custom, err := g.Middleware("requestId", true)
	require.NoError(t, err)
	assert.True(t, custom.Force)

	files := materialize(t, fs, []structure.Descriptor{builtin, custom})
	assert.Contains(t, files["src/middleware/cors.js"], "require('cors')")
	assert.Contains(t, files["src/middleware/request-id.js"], "const requestId = (req, res, next) => {")
	assert.Contains(t, files["src/middleware/request-id.js"], "module.exports = requestId;")
}

func renderApp(t *testing.T, fs afero.Fs) {
	t.Helper()
	materialize(t, fs, []structure.Descriptor{
		structure.Template("src/app.js", "project/app.js", map[string]any{
			"Imports":      []any{},
			"Global":       []string{},
			"ErrorHandler": "",
		}),
	})
}

func applyAll(t *testing.T, fs afero.Fs, reqs []patch.Request) {
	t.Helper()
	p := patch.NewPatcher(fs, nil)
	require.NoError(t, p.Check(reqs...))
	for _, r := range reqs {
		_, err := p.Apply(r)
		require.NoError(t, err)
	}
}

func TestMiddlewareRegistrationGlobal(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newTestGenerator(fs)
	renderApp(t, fs)

	reqs, err := g.MiddlewareRegistration("/proj", "logger")
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	applyAll(t, fs, reqs)
	applyAll(t, fs, reqs)

	b, err := afero.ReadFile(fs, "/proj/src/app.js")
	require.NoError(t, err)
	app := string(b)

	assert.Contains(t, app, "const express = require('express');\nconst logger = require('./middleware/logger');\n")
	assert.Contains(t, app, "// sargen:middleware\napp.use(logger);\n")
	assert.Equal(t, 1, strings.Count(app, "app.use(logger);"))
}

func TestMiddlewareRegistrationTerminal(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := newTestGenerator(fs)
	renderApp(t, fs)

	reqs, err := g.MiddlewareRegistration("/proj", "errorHandler")
	require.NoError(t, err)
	applyAll(t, fs, reqs)

	b, err := afero.ReadFile(fs, "/proj/src/app.js")
	require.NoError(t, err)
	app := string(b)

	assert.True(t, strings.HasSuffix(app, "app.use(errorHandler);\nmodule.exports = app;\n"))
	assert.Less(t, strings.Index(app, "app.use('/api', routes);"), strings.Index(app, "app.use(errorHandler);"))
}

func TestMiddlewareRegistrationRouteLevel(t *testing.T) {
	g := newTestGenerator(afero.NewMemMapFs())

	reqs, err := g.MiddlewareRegistration("/proj", "validate")
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestMiddlewareRegistrationMissingApp(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := New(fs, templates.Builtin(), nil)

	reqs, err := g.MiddlewareRegistration("/proj", "cors")
	require.NoError(t, err)

	err = patch.NewPatcher(fs, nil).Check(reqs...)
	assert.True(t, errors.Is(err, patch.ErrTargetMissing))
}

func TestMiddlewareNames(t *testing.T) {
	assert.Equal(t, []string{"auth", "cors"}, MiddlewareNames(" auth, ,cors,"))
	assert.Nil(t, MiddlewareNames(""))
}
