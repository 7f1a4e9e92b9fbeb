package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOBJ(t *testing.T, src string) *objParserImpl {
	t.Helper()
	p := newOBJParser().(*objParserImpl)
	require.NoError(t, p.Parse(strings.NewReader(src)))
	return p
}

func TestOBJTriangle(t *testing.T) {
	p := parseOBJ(t, `# a comment
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`)
	m := p.Mesh("fallback")
	assert.Equal(t, "tri", m.Name)
	assert.Len(t, m.Positions, 3)
	assert.Equal(t, [][3]uint32{{0, 1, 2}}, m.Indices)
	assert.False(t, m.HasNormals())
	require.NoError(t, m.Validate())
}

func TestOBJPolygonFanTriangulation(t *testing.T) {
	p := parseOBJ(t, `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
f 1 2 3 4 5
`)
	m := p.Mesh("pentagon")
	assert.Equal(t, "pentagon", m.Name)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, m.Indices)
}

func TestOBJNegativeIndices(t *testing.T) {
	p := parseOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
v 5 5 5
f -4 -1 -2
`)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 3, 2}}, p.Mesh("").Indices)
}

func TestOBJMatchingNormalsAreKept(t *testing.T) {
	p := parseOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
f 1/1/1 2/1/2 3/1/3
`)
	m := p.Mesh("tri")
	require.True(t, m.HasNormals())
	assert.Equal(t, [3]float32{0, 0, 1}, m.Normals[2])
}

func TestOBJMismatchedNormalsAreDropped(t *testing.T) {
	p := parseOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vn 0 0 -1
vn 1 0 0
f 1//1 2//3 3//2
`)
	assert.False(t, p.Mesh("tri").HasNormals())
}

func TestOBJPartialNormalsAreDropped(t *testing.T) {
	p := parseOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
f 1//1 2//2 3
`)
	assert.False(t, p.Mesh("tri").HasNormals())
}

func TestOBJErrors(t *testing.T) {
	cases := map[string]string{
		"out of range":  "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n",
		"zero index":    "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n",
		"too few":       "v 0 0 0\nv 1 0 0\nf 1 2\n",
		"bad float":     "v 0 zero 0\n",
		"short vertex":  "v 0 0\n",
		"bad normal":    "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n",
		"extra slashes": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1/1/1 2 3\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			err := newOBJParser().Parse(strings.NewReader(src))
			assert.ErrorIs(t, err, errMalformedOBJ)
		})
	}
}

func TestOBJErrorReportsLine(t *testing.T) {
	err := newOBJParser().Parse(strings.NewReader("v 0 0 0\n\nf 1 2 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

// triangleBuffer packs three VEC3 positions followed by three uint16 indices
// padded to a four byte boundary.
func triangleBuffer() []byte {
	var b bytes.Buffer
	for _, v := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		_ = binary.Write(&b, binary.LittleEndian, math.Float32bits(v))
	}
	for _, i := range []uint16{0, 1, 2, 0} {
		_ = binary.Write(&b, binary.LittleEndian, i)
	}
	return b.Bytes()
}

const triangleDocument = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "root", "translation": [0, 2, 0], "children": [1]}, {"mesh": 0, "scale": [2, 2, 2]}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"name": "red", "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "metallicFactor": 0, "roughnessFactor": 0.5}}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{%s"byteLength": 44}]
}`

func TestGLTFDataURI(t *testing.T) {
	uri := `"uri": "data:application/octet-stream;base64,` + base64.StdEncoding.EncodeToString(triangleBuffer()) + `", `
	doc := fmt.Sprintf(triangleDocument, uri)

	imported, err := newGLTFLoaderBackend().LoadReader("tri", strings.NewReader(doc), FormatGLTF)
	require.NoError(t, err)
	require.Len(t, imported.Meshes, 1)

	m := imported.Meshes[0].Mesh
	assert.Equal(t, "tri_0", m.Name)
	assert.Equal(t, [][3]uint32{{0, 1, 2}}, m.Indices)
	assert.InDeltaSlice(t, []float32{2, 2, 0}, m.Positions[1][:], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 4, 0}, m.Positions[2][:], 1e-6)
	assert.False(t, m.HasNormals())

	mat := imported.Meshes[0].Material
	assert.Equal(t, "red", mat.Name())
	assert.Equal(t, [3]float32{1, 0, 0}, mat.BaseColor())
	assert.InDelta(t, 0.5, mat.Roughness(), 1e-6)
	assert.Equal(t, 1, imported.TriangleCount())
}

func TestGLB(t *testing.T) {
	jsonChunk := []byte(fmt.Sprintf(triangleDocument, ""))
	for len(jsonChunk)%4 != 0 {
		jsonChunk = append(jsonChunk, ' ')
	}
	binChunk := triangleBuffer()

	var glb bytes.Buffer
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON})
	glb.Write(jsonChunk)
	_ = binary.Write(&glb, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(binChunk)), ChunkType: gltfGLBChunkBIN})
	glb.Write(binChunk)

	imported, err := NewLoader().LoadReader("glb", &glb, FormatGLB)
	require.NoError(t, err)
	require.Len(t, imported.Meshes, 1)
	assert.Len(t, imported.Meshes[0].Mesh.Positions, 3)
}

func TestGLBRejectsBadMagic(t *testing.T) {
	err := newGLTFParser().ParseReader(bytes.NewReader(make([]byte, 20)), true)
	assert.ErrorIs(t, err, errInvalidGLBMagic)
}

func TestGLTFRejectsVersion1(t *testing.T) {
	err := newGLTFParser().ParseReader(strings.NewReader(`{"asset": {"version": "1.0"}}`), false)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)
}

func TestGLTFAccessorOutOfBounds(t *testing.T) {
	buf := base64.StdEncoding.EncodeToString(make([]byte, 12))
	doc := `{
  "asset": {"version": "2.0"},
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 12}],
  "buffers": [{"uri": "data:application/octet-stream;base64,` + buf + `", "byteLength": 12}]
}`
	p := newGLTFParser()
	require.NoError(t, p.ParseReader(strings.NewReader(doc), false))

	_, err := p.ReadVec3Accessor(0)
	assert.ErrorIs(t, err, errAccessorOutOfBounds)

	_, err = p.ReadVec3Accessor(1)
	assert.Error(t, err)
}

func TestGLTFMirroredNodeFlipsWinding(t *testing.T) {
	uri := `"uri": "data:application/octet-stream;base64,` + base64.StdEncoding.EncodeToString(triangleBuffer()) + `", `
	doc := strings.Replace(fmt.Sprintf(triangleDocument, uri), `"scale": [2, 2, 2]`, `"scale": [-1, 1, 1]`, 1)

	imported, err := newGLTFLoaderBackend().LoadReader("mirror", strings.NewReader(doc), FormatGLTF)
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{0, 2, 1}}, imported.Meshes[0].Mesh.Indices)
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("models/Bunny.OBJ")
	require.NoError(t, err)
	assert.Equal(t, FormatOBJ, f)

	f, err = FormatFromPath("a.glb")
	require.NoError(t, err)
	assert.Equal(t, FormatGLB, f)

	_, err = FormatFromPath("scene.fbx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoaderCachesByPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"), 0o644))

	l := NewLoader()
	first, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "quad", first.Name)
	assert.Equal(t, 2, first.TriangleCount())

	require.NoError(t, os.Remove(path))
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, l.Models(), 1)
}

func TestLoaderRejectsEmptyGeometry(t *testing.T) {
	_, err := NewLoader().LoadReader("empty", strings.NewReader("v 0 0 0\n"), FormatOBJ)
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestWithModelPrepopulatesCache(t *testing.T) {
	m := &ImportedModel{Name: "pre"}
	l := NewLoader(WithModel("pre", m))
	assert.Same(t, m, l.Get("pre"))
	assert.Nil(t, l.Get("missing"))
}
