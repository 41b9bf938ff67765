package project

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&Preset{Name: "tiny"}))
	assert.Error(t, r.Register(&Preset{Name: "tiny"}), "duplicates are rejected")
	assert.Error(t, r.Register(&Preset{}), "name is required")
}

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Preset{Name: "tiny", Description: "d"}))

	got, err := r.Get("tiny")
	require.NoError(t, err)
	assert.Equal(t, "d", got.Description)

	_, err = r.Get("missing")
	assert.Error(t, err)
	assert.False(t, r.Exists("missing"))
	assert.True(t, r.Exists("tiny"))
}

func TestBuiltinPresets(t *testing.T) {
	r := BuiltinPresets()

	assert.Equal(t, []string{"api", "basic", "full"}, r.Names())

	full, err := r.Get("full")
	require.NoError(t, err)
	assert.True(t, full.Docker)
	assert.Contains(t, full.Middleware, "rateLimit")
}

func TestRegistryApply(t *testing.T) {
	r := BuiltinPresets()

	opts, err := r.Apply(Options{Template: "api", Middleware: []string{"auth", "requestId"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"logger", "cors", "auth", "validate", "errorHandler", "requestId"}, opts.Middleware)
	assert.False(t, opts.Docker)

	opts, err = r.Apply(Options{Template: "full"})
	require.NoError(t, err)
	assert.True(t, opts.Docker)

	again, err := r.Apply(opts)
	require.NoError(t, err)
	assert.Equal(t, opts, again, "applying twice is stable")

	_, err = r.Apply(Options{Template: "nope"})
	assert.Error(t, err)
}

func TestRegistryConcurrency(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			assert.NoError(t, r.Register(&Preset{Name: fmt.Sprintf("p%d", n)}))
			_ = r.List()
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.List(), 10)
}
