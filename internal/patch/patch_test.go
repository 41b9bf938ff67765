package patch

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesIndex = `const express = require('express');

const router = express.Router();

module.exports = router;
`

func setup(t *testing.T, content string) (afero.Fs, *Patcher) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/p/index.js", []byte(content), 0o644))
	return fs, NewPatcher(fs, nil)
}

func read(t *testing.T, fs afero.Fs) string {
	t.Helper()
	b, err := afero.ReadFile(fs, "/p/index.js")
	require.NoError(t, err)
	return string(b)
}

func TestBeforeAnchor(t *testing.T) {
	fs, p := setup(t, routesIndex)

	out, err := p.Apply(Request{
		Target:    "/p/index.js",
		Insertion: "router.use('/orders', require('./orders.routes'));",
		Position:  BeforeAnchor,
		Anchor:    "module.exports = router;",
	})
	require.NoError(t, err)
	assert.Equal(t, Applied, out)

	want := `const express = require('express');

const router = express.Router();


router.use('/orders', require('./orders.routes'));
module.exports = router;
`
	assert.Equal(t, want, read(t, fs))
}

func TestBeforeAnchorUsesLastOccurrence(t *testing.T) {
	fs, p := setup(t, "// END\nbody\n// END\n")

	_, err := p.Apply(Request{Target: "/p/index.js", Insertion: "X", Position: BeforeAnchor, Anchor: "// END"})
	require.NoError(t, err)
	assert.Equal(t, "// END\nbody\n\nX\n// END\n", read(t, fs))
}

func TestBeforeAnchorTwiceKeepsAnchorLast(t *testing.T) {
	fs, p := setup(t, "a\nEXPORT\n")
	req := Request{Target: "/p/index.js", Insertion: "ins", Position: BeforeAnchor, Anchor: "EXPORT"}

	_, err := p.Apply(req)
	require.NoError(t, err)
	_, err = p.Apply(req)
	require.NoError(t, err)

	assert.Equal(t, "a\n\nins\n\nins\nEXPORT\n", read(t, fs))
}

func TestAfterAnchorFirstPrefixLine(t *testing.T) {
	fs, p := setup(t, "app.use(json);\n  // sargen:middleware hook\napp.use(routes);\n// sargen:middleware\n")

	_, err := p.Apply(Request{
		Target:    "/p/index.js",
		Insertion: "app.use(logger);",
		Position:  AfterAnchor,
		Anchor:    "// sargen:middleware",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"app.use(json);\n  // sargen:middleware hook\napp.use(logger);\napp.use(routes);\n// sargen:middleware\n",
		read(t, fs))
}

func TestAfterAnchorRequiresLinePrefix(t *testing.T) {
	_, p := setup(t, "x = 1; // sargen:middleware\n")

	_, err := p.Apply(Request{Target: "/p/index.js", Insertion: "y", Position: AfterAnchor, Anchor: "// sargen:middleware"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnchorNotFound))
}

func TestEndOfFileAppendsRaw(t *testing.T) {
	fs, p := setup(t, "line1\n")

	_, err := p.Apply(Request{Target: "/p/index.js", Insertion: "line2", Position: EndOfFile})
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", read(t, fs))
}

func TestMissingTarget(t *testing.T) {
	p := NewPatcher(afero.NewMemMapFs(), nil)

	_, err := p.Apply(Request{Target: "/nope.js", Insertion: "x", Position: EndOfFile})
	require.Error(t, err)

	var pe *PatchError
	require.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, ErrTargetMissing))
}

func TestMissingAnchorLeavesFileUntouched(t *testing.T) {
	fs, p := setup(t, routesIndex)

	_, err := p.Apply(Request{Target: "/p/index.js", Insertion: "x", Position: BeforeAnchor, Anchor: "export default"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnchorNotFound))
	assert.Equal(t, routesIndex, read(t, fs))
}

func TestEmptyAnchor(t *testing.T) {
	_, p := setup(t, routesIndex)

	_, err := p.Apply(Request{Target: "/p/index.js", Insertion: "x", Position: AfterAnchor})
	assert.True(t, errors.Is(err, ErrAnchorRequired))
}

func TestSkipIfPresent(t *testing.T) {
	fs, p := setup(t, routesIndex)
	req := Request{
		Target:        "/p/index.js",
		Insertion:     "router.use('/a', require('./a.routes'));",
		Position:      BeforeAnchor,
		Anchor:        "module.exports = router;",
		SkipIfPresent: true,
	}

	out, err := p.Apply(req)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	once := read(t, fs)

	out, err = p.Apply(req)
	require.NoError(t, err)
	assert.Equal(t, Skipped, out)
	assert.Equal(t, once, read(t, fs))
}

func TestCheckDoesNotWrite(t *testing.T) {
	fs, p := setup(t, routesIndex)

	err := p.Check(
		Request{Target: "/p/index.js", Insertion: "a", Position: BeforeAnchor, Anchor: "module.exports"},
		Request{Target: "/p/index.js", Insertion: "b", Position: BeforeAnchor, Anchor: "missing anchor"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAnchorNotFound))
	assert.Equal(t, routesIndex, read(t, fs))

	require.NoError(t, p.Check(Request{Target: "/p/index.js", Insertion: "a", Position: EndOfFile}))
	assert.Equal(t, routesIndex, read(t, fs))
}

func TestPartialBatchIsNotRolledBack(t *testing.T) {
	fs, p := setup(t, routesIndex)
	reqs := []Request{
		{Target: "/p/index.js", Insertion: "first", Position: BeforeAnchor, Anchor: "module.exports"},
		{Target: "/p/other.js", Insertion: "second", Position: EndOfFile},
	}

	var err error
	for _, r := range reqs {
		if _, err = p.Apply(r); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.Contains(t, read(t, fs), "first")
}

func TestParsePosition(t *testing.T) {
	for _, pos := range []Position{BeforeAnchor, AfterAnchor, EndOfFile} {
		got, err := ParsePosition(pos.String())
		require.NoError(t, err)
		assert.Equal(t, pos, got)
	}

	_, err := ParsePosition("middle")
	assert.Error(t, err)
	assert.Equal(t, "Position(9)", Position(9).String())
}
