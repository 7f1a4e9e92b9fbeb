package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	id       int
	released bool
}

func TestCacheHitMissAccounting(t *testing.T) {
	compiled := 0
	cache := NewCache(func(name, source string, shaderType ShaderType) (*fakeModule, error) {
		compiled++
		return &fakeModule{id: compiled}, nil
	}, func(m *fakeModule) { m.released = true })

	a, err := cache.Get("a", "fn main() {}", ShaderTypeCompute)
	require.NoError(t, err)
	b, err := cache.Get("renamed", "fn main() {}", ShaderTypeCompute)
	require.NoError(t, err)
	c, err := cache.Get("a", "fn main() {}", ShaderTypeRender)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, compiled)
	assert.Equal(t, 1, cache.Hits())
	assert.Equal(t, 2, cache.Misses())
	assert.Equal(t, 2, cache.Len())

	cache.Release()
	assert.True(t, a.released)
	assert.True(t, c.released)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 1, cache.Hits())
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	fail := true
	cache := NewCache(func(name, source string, shaderType ShaderType) (int, error) {
		if fail {
			return 0, errors.New("device rejected module")
		}
		return 7, nil
	}, nil)

	_, err := cache.Get("bad", "src", ShaderTypeCompute)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.Contains(t, err.Error(), "device rejected module")
	assert.Equal(t, 0, cache.Len())

	fail = false
	m, err := cache.Get("bad", "src", ShaderTypeCompute)
	require.NoError(t, err)
	assert.Equal(t, 7, m)
	assert.Equal(t, 2, cache.Misses())
}

func TestKeyDependsOnSourceAndType(t *testing.T) {
	assert.Equal(t, Key("x", ShaderTypeRender), Key("x", ShaderTypeRender))
	assert.NotEqual(t, Key("x", ShaderTypeRender), Key("x", ShaderTypeCompute))
	assert.NotEqual(t, Key("x", ShaderTypeRender), Key("y", ShaderTypeRender))
	assert.Len(t, Key("x", ShaderTypeRender), 64)
}
