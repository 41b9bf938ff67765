// Package patch inserts text into existing generated files at a marker,
// without re-rendering the whole file.
package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/tejusoni55/sargenjs/internal/logging"
)

// Position selects where an insertion lands relative to the anchor
type Position int

const (
	// BeforeAnchor inserts immediately above the last occurrence of the anchor
	BeforeAnchor Position = iota
	// AfterAnchor inserts a line below the first line starting with the anchor
	AfterAnchor
	// EndOfFile appends the insertion as-is
	EndOfFile
)

var positionNames = map[Position]string{
	BeforeAnchor: "before-anchor",
	AfterAnchor:  "after-anchor",
	EndOfFile:    "end-of-file",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition parses "before-anchor", "after-anchor" or "end-of-file"
func ParsePosition(s string) (Position, error) {
	for p, name := range positionNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown patch position %q", s)
}

// Request describes one insertion
type Request struct {
	Target    string
	Insertion string
	Position  Position
	Anchor    string
	// SkipIfPresent leaves the file alone when it already contains Insertion
	SkipIfPresent bool
}

// Outcome reports whether a request changed the file
type Outcome int

const (
	Applied Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "applied"
}

var (
	// ErrTargetMissing means the file to patch does not exist
	ErrTargetMissing = errors.New("target file does not exist")
	// ErrAnchorNotFound means the anchor text could not be located
	ErrAnchorNotFound = errors.New("anchor not found")
	// ErrAnchorRequired means an anchored position was given an empty anchor
	ErrAnchorRequired = errors.New("anchor text is required")
)

// PatchError reports a failed patch
type PatchError struct {
	Target string
	Anchor string
	Err    error
}

func (e *PatchError) Error() string {
	if e.Anchor != "" {
		return fmt.Sprintf("patch %s (anchor %q): %v", e.Target, e.Anchor, e.Err)
	}
	return fmt.Sprintf("patch %s: %v", e.Target, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// Patcher applies requests against a filesystem
type Patcher struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewPatcher creates a patcher over fs
func NewPatcher(fs afero.Fs, logger *zap.Logger) *Patcher {
	return &Patcher{fs: fs, logger: logging.OrNop(logger)}
}

// Apply performs a single request. It is not idempotent unless
// SkipIfPresent is set.
func (p *Patcher) Apply(req Request) (Outcome, error) {
	content, err := p.read(req)
	if err != nil {
		return Applied, err
	}

	if req.SkipIfPresent && strings.Contains(content, req.Insertion) {
		p.logger.Debug("insertion already present", zap.String("target", req.Target))
		return Skipped, nil
	}

	updated, err := insert(content, req)
	if err != nil {
		return Applied, err
	}

	if err := afero.WriteFile(p.fs, req.Target, []byte(updated), 0o644); err != nil {
		return Applied, &PatchError{Target: req.Target, Err: err}
	}

	p.logger.Debug("patched file",
		zap.String("target", req.Target),
		zap.Stringer("position", req.Position))
	return Applied, nil
}

// Check verifies that every request could be applied, without writing.
// Callers that need all-or-nothing batches check first and then apply.
func (p *Patcher) Check(reqs ...Request) error {
	for _, req := range reqs {
		content, err := p.read(req)
		if err != nil {
			return err
		}
		if _, err := insert(content, req); err != nil {
			return err
		}
	}
	return nil
}

func (p *Patcher) read(req Request) (string, error) {
	exists, err := afero.Exists(p.fs, req.Target)
	if err != nil {
		return "", &PatchError{Target: req.Target, Err: err}
	}
	if !exists {
		return "", &PatchError{Target: req.Target, Err: ErrTargetMissing}
	}

	b, err := afero.ReadFile(p.fs, req.Target)
	if err != nil {
		return "", &PatchError{Target: req.Target, Err: err}
	}
	return string(b), nil
}

// insert computes the patched content
func insert(content string, req Request) (string, error) {
	switch req.Position {
	case BeforeAnchor:
		if req.Anchor == "" {
			return "", &PatchError{Target: req.Target, Err: ErrAnchorRequired}
		}
		idx := strings.LastIndex(content, req.Anchor)
		if idx < 0 {
			return "", &PatchError{Target: req.Target, Anchor: req.Anchor, Err: ErrAnchorNotFound}
		}
		return content[:idx] + "\n" + req.Insertion + "\n" + content[idx:], nil

	case AfterAnchor:
		if req.Anchor == "" {
			return "", &PatchError{Target: req.Target, Err: ErrAnchorRequired}
		}
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			if !strings.HasPrefix(strings.TrimSpace(line), req.Anchor) {
				continue
			}
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i+1]...)
			out = append(out, req.Insertion)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), nil
		}
		return "", &PatchError{Target: req.Target, Anchor: req.Anchor, Err: ErrAnchorNotFound}

	case EndOfFile:
		return content + req.Insertion, nil

	default:
		return "", &PatchError{Target: req.Target, Err: fmt.Errorf("unknown position %s", req.Position)}
	}
}
