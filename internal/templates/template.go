// Package templates renders text templates for generated project files.
//
// Sources are Go text/template documents. Compiled templates are cached by
// their exact source text, so rendering the same source repeatedly only
// parses it once per Renderer cache.
package templates

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	utilstrings "github.com/tejusoni55/sargenjs/internal/util/strings"
)

// TemplateError reports a template that failed to compile or execute
type TemplateError struct {
	// Phase is "parse" or "execute"
	Phase string
	Err   error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s failed: %v", e.Phase, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Cache holds compiled templates keyed by source text.
// There is no eviction; the number of distinct sources is small and fixed.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*template.Template
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*template.Template)}
}

func (c *Cache) get(source string) (*template.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tmpl, ok := c.entries[source]
	return tmpl, ok
}

func (c *Cache) put(source string, tmpl *template.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[source] = tmpl
}

// Len returns the number of compiled templates held
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every compiled template
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*template.Template)
}

// Renderer compiles and executes templates
type Renderer struct {
	cache *Cache
	funcs template.FuncMap
}

// NewRenderer creates a renderer backed by cache. A nil cache gets a fresh one.
func NewRenderer(cache *Cache) *Renderer {
	if cache == nil {
		cache = NewCache()
	}
	return &Renderer{
		cache: cache,
		funcs: Funcs(),
	}
}

// Cache returns the renderer's compiled template cache
func (r *Renderer) Cache() *Cache {
	return r.cache
}

// Render compiles source (or reuses the cached compilation) and executes it
// against data. Map keys missing from data are an error.
func (r *Renderer) Render(source string, data any) (string, error) {
	tmpl, err := r.compile(source)
	if err != nil {
		return "", err
	}

	if data == nil {
		data = map[string]any{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &TemplateError{Phase: "execute", Err: err}
	}

	return buf.String(), nil
}

func (r *Renderer) compile(source string) (*template.Template, error) {
	if tmpl, ok := r.cache.get(source); ok {
		return tmpl, nil
	}

	tmpl, err := template.New("sargen").
		Funcs(r.funcs).
		Option("missingkey=error").
		Parse(source)
	if err != nil {
		return nil, &TemplateError{Phase: "parse", Err: err}
	}

	r.cache.put(source, tmpl)
	return tmpl, nil
}

// Funcs returns the helper functions available to every template
func Funcs() template.FuncMap {
	return template.FuncMap{
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"capitalize": utilstrings.Capitalize,
		"pascal":     utilstrings.ToPascalCase,
		"camel":      utilstrings.ToCamelCase,
		"snake":      utilstrings.ToSnakeCase,
		"kebab":      utilstrings.ToKebabCase,
		"plural":     utilstrings.Pluralize,
		"join":       strings.Join,
		"quote":      jsQuote,
		"quoteAll":   jsQuoteAll,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
	}
}

// jsQuote renders s as a single-quoted JavaScript string literal
func jsQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// jsQuoteAll quotes each value and joins them with ", "
func jsQuoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = jsQuote(v)
	}
	return strings.Join(quoted, ", ")
}
