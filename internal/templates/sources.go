package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed sources
var builtinFS embed.FS

const sourceExt = ".tmpl"

// ErrTemplateNotFound is returned when a template reference has no source
var ErrTemplateNotFound = errors.New("template not found")

// Sources resolves a template reference such as "module/controller.js" to
// its source text
type Sources interface {
	Source(ref string) (string, error)
}

// FSSources reads template sources from a filesystem rooted at a directory.
// Reference "a/b.js" maps to file "<root>/a/b.js.tmpl".
type FSSources struct {
	fsys fs.FS
	root string
}

// NewFSSources creates a source set over fsys
func NewFSSources(fsys fs.FS, root string) *FSSources {
	return &FSSources{fsys: fsys, root: root}
}

// Builtin returns the template sources compiled into the binary
func Builtin() *FSSources {
	return NewFSSources(builtinFS, "sources")
}

// Source implements Sources
func (s *FSSources) Source(ref string) (string, error) {
	clean := path.Clean(ref)
	if ref == "" || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, ref)
	}

	content, err := fs.ReadFile(s.fsys, path.Join(s.root, clean+sourceExt))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, ref)
		}
		return "", fmt.Errorf("failed to read template %q: %w", ref, err)
	}

	return string(content), nil
}

// List returns every template reference available, sorted
func (s *FSSources) List() ([]string, error) {
	var refs []string
	err := fs.WalkDir(s.fsys, s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, sourceExt) {
			return nil
		}
		rel := strings.TrimPrefix(p, s.root+"/")
		refs = append(refs, strings.TrimSuffix(rel, sourceExt))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(refs)
	return refs, nil
}

// MapSources is an in-memory Sources, mostly useful in tests
type MapSources map[string]string

// Source implements Sources
func (m MapSources) Source(ref string) (string, error) {
	src, ok := m[ref]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, ref)
	}
	return src, nil
}
