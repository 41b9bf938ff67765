// Package structure turns a declarative plan of directories and files into
// filesystem writes. Existing files are left untouched unless an entry is
// forced, so running the same plan twice is safe.
package structure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/logging"
	"github.com/tejusoni55/sargenjs/internal/templates"
)

// EntryType distinguishes directory entries from file entries
type EntryType int

const (
	EntryDir EntryType = iota
	EntryFile
)

func (t EntryType) String() string {
	switch t {
	case EntryDir:
		return "dir"
	case EntryFile:
		return "file"
	default:
		return fmt.Sprintf("EntryType(%d)", int(t))
	}
}

// Descriptor is one unit of planned filesystem work.
// Dir entries use Paths; file entries use the remaining fields.
type Descriptor struct {
	Type  EntryType
	Paths []string

	Path         string
	Content      string
	TemplateRef  string
	TemplateData map[string]any
	Force        bool
}

// Dirs plans the creation of each path
func Dirs(paths ...string) Descriptor {
	return Descriptor{Type: EntryDir, Paths: paths}
}

// File plans a file with literal content
func File(path, content string) Descriptor {
	return Descriptor{Type: EntryFile, Path: path, Content: content}
}

// Template plans a file rendered from a template source
func Template(path, ref string, data map[string]any) Descriptor {
	return Descriptor{Type: EntryFile, Path: path, TemplateRef: ref, TemplateData: data}
}

// Forced returns a copy of d that overwrites an existing file
func (d Descriptor) Forced() Descriptor {
	d.Force = true
	return d
}

// IOError reports a filesystem failure while materializing a plan
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ErrOutsideBase is returned for paths that resolve outside the base directory
var ErrOutsideBase = errors.New("path escapes the project directory")

// Result records what a Materialize call did
type Result struct {
	CreatedDirs []string
	Created     []string
	Skipped     []string
	Overwritten []string
}

// Resolver materializes plans
type Resolver struct {
	fs       afero.Fs
	sources  templates.Sources
	renderer *templates.Renderer
	logger   *zap.Logger
}

// NewResolver creates a resolver writing to fs and rendering templates from sources
func NewResolver(fs afero.Fs, sources templates.Sources, renderer *templates.Renderer, logger *zap.Logger) *Resolver {
	if renderer == nil {
		renderer = templates.NewRenderer(nil)
	}
	return &Resolver{
		fs:       fs,
		sources:  sources,
		renderer: renderer,
		logger:   logging.OrNop(logger),
	}
}

// Materialize creates every directory entry in plan order, then writes every
// file entry in plan order. The first failure aborts the remaining plan;
// entries already written stay on disk.
func (r *Resolver) Materialize(basePath string, plan []Descriptor) (*Result, error) {
	if err := Validate(plan); err != nil {
		return nil, err
	}

	result := &Result{}

	for _, d := range plan {
		if d.Type != EntryDir {
			continue
		}
		for _, p := range d.Paths {
			full, err := resolvePath(basePath, p)
			if err != nil {
				return result, err
			}
			created, err := r.ensureDir(full)
			if err != nil {
				return result, &IOError{Op: "create directory", Path: p, Err: err}
			}
			if created {
				result.CreatedDirs = append(result.CreatedDirs, p)
				r.logger.Debug("created directory", zap.String("path", p))
			}
		}
	}

	for _, d := range plan {
		if d.Type != EntryFile {
			continue
		}
		if err := r.writeFile(basePath, d, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (r *Resolver) writeFile(basePath string, d Descriptor, result *Result) error {
	full, err := resolvePath(basePath, d.Path)
	if err != nil {
		return err
	}

	exists, err := afero.Exists(r.fs, full)
	if err != nil {
		return &IOError{Op: "stat", Path: d.Path, Err: err}
	}
	if exists && !d.Force {
		result.Skipped = append(result.Skipped, d.Path)
		r.logger.Debug("file exists, skipping", zap.String("path", d.Path))
		return nil
	}

	content := d.Content
	if d.TemplateRef != "" {
		source, err := r.sources.Source(d.TemplateRef)
		if err != nil {
			return &IOError{Op: "load template", Path: d.TemplateRef, Err: err}
		}
		content, err = r.renderer.Render(source, d.TemplateData)
		if err != nil {
			return fmt.Errorf("render %s for %s: %w", d.TemplateRef, d.Path, err)
		}
	}

	if _, err := r.ensureDir(filepath.Dir(full)); err != nil {
		return &IOError{Op: "create directory", Path: filepath.Dir(d.Path), Err: err}
	}
	if err := afero.WriteFile(r.fs, full, []byte(content), 0o644); err != nil {
		return &IOError{Op: "write", Path: d.Path, Err: err}
	}

	if exists {
		result.Overwritten = append(result.Overwritten, d.Path)
		r.logger.Debug("overwrote file", zap.String("path", d.Path))
	} else {
		result.Created = append(result.Created, d.Path)
		r.logger.Debug("created file", zap.String("path", d.Path), zap.String("template", d.TemplateRef))
	}
	return nil
}

// ensureDir creates dir if missing and reports whether it had to
func (r *Resolver) ensureDir(dir string) (bool, error) {
	info, err := r.fs.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// Validate checks a plan without touching the filesystem
func Validate(plan []Descriptor) error {
	for i, d := range plan {
		switch d.Type {
		case EntryDir:
			for _, p := range d.Paths {
				if err := checkRelative(p); err != nil {
					return &IOError{Op: "plan", Path: p, Err: err}
				}
			}
		case EntryFile:
			if d.Path == "" {
				return &IOError{Op: "plan", Path: fmt.Sprintf("entry %d", i), Err: errors.New("file entry has no path")}
			}
			if err := checkRelative(d.Path); err != nil {
				return &IOError{Op: "plan", Path: d.Path, Err: err}
			}
		default:
			return &IOError{Op: "plan", Path: fmt.Sprintf("entry %d", i), Err: fmt.Errorf("unknown entry type %s", d.Type)}
		}
	}
	return nil
}

func checkRelative(p string) error {
	clean := filepath.Clean(p)
	if p == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return ErrOutsideBase
	}
	return nil
}

func resolvePath(basePath, p string) (string, error) {
	if err := checkRelative(p); err != nil {
		return "", &IOError{Op: "resolve", Path: p, Err: err}
	}
	return filepath.Join(basePath, filepath.Clean(p)), nil
}
