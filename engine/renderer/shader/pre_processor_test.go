package shader

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary(files map[string]string) Library {
	fsys := fstest.MapFS{}
	for name, src := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(src)}
	}
	return NewLibrary(fsys, WithValidation(false))
}

func TestIncludeOnce(t *testing.T) {
	lib := testLibrary(map[string]string{
		"common.wgsl": "struct Common { x: f32, };",
		"a.wgsl":      "#include \"common.wgsl\"\nfn a() {}",
		"root.wgsl":   "#include \"common.wgsl\"\n#include \"a.wgsl\"\nfn root() {}",
	})

	src, err := lib.Load("root.wgsl")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(src, "struct Common"))
	assert.Less(t, strings.Index(src, "fn a()"), strings.Index(src, "fn root()"))
}

func TestIncludeCycle(t *testing.T) {
	lib := testLibrary(map[string]string{
		"a.wgsl": "#include \"b.wgsl\"",
		"b.wgsl": "#include \"a.wgsl\"",
	})

	_, err := lib.Load("a.wgsl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncludeCycle)
	assert.Contains(t, err.Error(), "a.wgsl -> b.wgsl -> a.wgsl")
	assert.Contains(t, err.Error(), "b.wgsl:1")
}

func TestIncludeSelf(t *testing.T) {
	lib := testLibrary(map[string]string{"a.wgsl": "fn a() {}\n#include \"a.wgsl\""})

	_, err := lib.Load("a.wgsl")
	assert.ErrorIs(t, err, ErrIncludeCycle)
}

func TestIncludeMissing(t *testing.T) {
	lib := testLibrary(map[string]string{"a.wgsl": "\n\n#include \"nope.wgsl\""})

	_, err := lib.Load("a.wgsl")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "a.wgsl:3")
}

func TestDefineSubstitutesWholeWords(t *testing.T) {
	lib := testLibrary(map[string]string{
		"a.wgsl": "#define GROUP 3\n@group(GROUP) @binding(0) var<uniform> GROUPED: f32;",
	})

	src, err := lib.Load("a.wgsl")
	require.NoError(t, err)
	assert.Contains(t, src, "@group(3)")
	assert.Contains(t, src, "GROUPED")
	assert.NotContains(t, src, "#define")
}

func TestCallerDefines(t *testing.T) {
	lib := testLibrary(map[string]string{
		"a.wgsl": "#ifdef AOV\nlet aov = 1;\n#else\nlet plain = 1;\n#endif\nlet n = COUNT;",
	})

	with, err := lib.Load("a.wgsl", Define{Name: "AOV"}, Define{Name: "COUNT", Value: "4"})
	require.NoError(t, err)
	assert.Contains(t, with, "aov")
	assert.NotContains(t, with, "plain")
	assert.Contains(t, with, "let n = 4;")

	without, err := lib.Load("a.wgsl")
	require.NoError(t, err)
	assert.NotContains(t, without, "aov")
	assert.Contains(t, without, "plain")
}

func TestNestedConditionals(t *testing.T) {
	lib := testLibrary(map[string]string{
		"a.wgsl": strings.Join([]string{
			"#ifndef OUTER",
			"#ifdef INNER",
			"inner_only",
			"#endif",
			"#include \"b.wgsl\"",
			"#endif",
		}, "\n"),
		"b.wgsl": "from_b",
	})

	src, err := lib.Load("a.wgsl", Define{Name: "INNER"})
	require.NoError(t, err)
	assert.Contains(t, src, "inner_only")
	assert.Contains(t, src, "from_b")

	src, err = lib.Load("a.wgsl", Define{Name: "OUTER"}, Define{Name: "INNER"})
	require.NoError(t, err)
	assert.NotContains(t, src, "inner_only")
	assert.NotContains(t, src, "from_b")
}

func TestDirectiveErrorsCarryLocation(t *testing.T) {
	cases := map[string]string{
		"unterminated": "fn a() {}\n#ifdef X\nfn b() {}",
		"stray else":   "\n#else",
		"stray endif":  "\n\n#endif",
		"unknown":      "#pragma once",
		"bad include":  "#include common.wgsl",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			lib := testLibrary(map[string]string{"a.wgsl": src})
			_, err := lib.Load("a.wgsl")
			require.Error(t, err)
			assert.Regexp(t, `^a\.wgsl:\d+: `, err.Error())
		})
	}
}

func TestVirtualFilesShadowFilesystem(t *testing.T) {
	lib := testLibrary(map[string]string{
		"gen.wgsl":  "from_disk",
		"root.wgsl": "#include \"gen.wgsl\"",
	})
	lib.Register("gen.wgsl", "from_memory")

	src, err := lib.Load("root.wgsl")
	require.NoError(t, err)
	assert.Contains(t, src, "from_memory")
	assert.NotContains(t, src, "from_disk")
}

func TestBuildWrapsLoadErrors(t *testing.T) {
	lib := testLibrary(map[string]string{
		"a.wgsl": "#include \"b.wgsl\"",
		"b.wgsl": "#include \"a.wgsl\"",
	})

	_, err := lib.Build("a.wgsl", ShaderTypeCompute)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShaderCompile)
	assert.ErrorIs(t, err, ErrIncludeCycle)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "a.wgsl", ce.Name)
}
