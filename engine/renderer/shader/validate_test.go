package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedSource(t *testing.T) {
	src := `
struct Params {
    scale: f32,
};

@group(0) @binding(0) var<uniform> params: Params;

@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let x = f32(gid.x) * params.scale;
}
`
	assert.NoError(t, Validate("ok.wgsl", src))
}

func TestValidateReportsSyntaxErrors(t *testing.T) {
	src := "fn main() {\n    let x = ;\n}\n"

	err := Validate("broken.wgsl", src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShaderCompile)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken.wgsl", ce.Name)
	assert.NotEmpty(t, ce.Msg)
}
