package shader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

// CompileFunc turns preprocessed WGSL into a device module.
type CompileFunc[M any] func(name, source string, shaderType ShaderType) (M, error)

// ReleaseFunc frees a module produced by a CompileFunc.
type ReleaseFunc[M any] func(M)

// Cache is a content-addressed module cache. Two Get calls with identical
// source text and shader type share one compiled module, whatever their names.
// Failed compiles are not cached.
type Cache[M any] struct {
	mu *sync.Mutex

	compile CompileFunc[M]
	release ReleaseFunc[M]

	modules map[string]M
	hits    int
	misses  int
}

// NewCache creates an empty cache.
//
// Parameters:
//   - compile: builds a module on a miss
//   - release: frees a module on Release, may be nil
//
// Returns:
//   - *Cache[M]: the cache
func NewCache[M any](compile CompileFunc[M], release ReleaseFunc[M]) *Cache[M] {
	return &Cache[M]{
		mu:      &sync.Mutex{},
		compile: compile,
		release: release,
		modules: make(map[string]M),
	}
}

// Key returns the content address of a source and shader type.
func Key(source string, shaderType ShaderType) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0, byte(shaderType)})
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the module for source, compiling it on the first request.
//
// Parameters:
//   - name: label for the module and for errors
//   - source: preprocessed WGSL
//   - shaderType: the pipeline kind the module serves
//
// Returns:
//   - M: the cached or newly compiled module
//   - error: *CompileError wrapping ErrShaderCompile
func (c *Cache[M]) Get(name, source string, shaderType ShaderType) (M, error) {
	key := Key(source, shaderType)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.modules[key]; ok {
		c.hits++
		return m, nil
	}
	c.misses++

	m, err := c.compile(name, source, shaderType)
	if err != nil {
		var zero M
		var ce *CompileError
		if errors.As(err, &ce) {
			return zero, err
		}
		return zero, &CompileError{Name: name, Msg: fmt.Sprintf("compile: %v", err), Err: err}
	}
	c.modules[key] = m
	return m, nil
}

// Hits returns how many Get calls were served from the cache.
func (c *Cache[M]) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Misses returns how many Get calls had to compile.
func (c *Cache[M]) Misses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// Len returns the number of cached modules.
func (c *Cache[M]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.modules)
}

// Release frees every cached module and empties the cache. Counters are kept.
func (c *Cache[M]) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.release != nil {
		for _, m := range c.modules {
			c.release(m)
		}
	}
	clear(c.modules)
}
