package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/mesh"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"

	"github.com/go-gl/mathgl/mgl32"
)

// maxNodeDepth bounds the node hierarchy walk so that a cyclic document fails
// instead of recursing forever.
const maxNodeDepth = 64

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser    gltfParser
	materials []material.Material
}

// gltfMeshExtractor turns the triangle primitives of a parsed document into
// world space TriangleMeshes.
type gltfMeshExtractor interface {
	// ExtractScene walks the default scene and emits one mesh per triangle
	// primitive with node transforms baked into positions and normals.
	// Documents without scenes emit every mesh untransformed.
	//
	// Returns:
	//   - []ImportedMesh: the extracted meshes in traversal order
	//   - error: error if an accessor cannot be read
	ExtractScene() ([]ImportedMesh, error)

	// ExtractMesh extracts the primitives of a single mesh in its local space.
	//
	// Parameters:
	//   - meshIndex: the index into the document's meshes
	//   - transform: the model matrix baked into the vertices
	//
	// Returns:
	//   - []ImportedMesh: one entry per triangle primitive
	//   - error: error if an accessor cannot be read
	ExtractMesh(meshIndex int, transform mgl32.Mat4) ([]ImportedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	e := &gltfMeshExtractorImpl{parser: parser}
	for _, m := range parser.Document().Materials {
		e.materials = append(e.materials, gltfMaterialFrom(m))
	}
	return e
}

func (e *gltfMeshExtractorImpl) ExtractScene() ([]ImportedMesh, error) {
	doc := e.parser.Document()

	if len(doc.Scenes) == 0 {
		var out []ImportedMesh
		for i := range doc.Meshes {
			meshes, err := e.ExtractMesh(i, mgl32.Ident4())
			if err != nil {
				return nil, err
			}
			out = append(out, meshes...)
		}
		return out, nil
	}

	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex < 0 || sceneIndex >= len(doc.Scenes) {
		return nil, fmt.Errorf("default scene %d out of range", sceneIndex)
	}

	var out []ImportedMesh
	for _, root := range doc.Scenes[sceneIndex].Nodes {
		if err := e.walkNode(root, mgl32.Ident4(), 0, &out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *gltfMeshExtractorImpl) walkNode(nodeIndex int, parent mgl32.Mat4, depth int, out *[]ImportedMesh) error {
	doc := e.parser.Document()
	if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", nodeIndex)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d, possible cycle at node %d", maxNodeDepth, nodeIndex)
	}

	node := &doc.Nodes[nodeIndex]
	world := parent.Mul4(gltfNodeMatrix(node))

	if node.Mesh != nil {
		meshes, err := e.ExtractMesh(*node.Mesh, world)
		if err != nil {
			return fmt.Errorf("node %d: %w", nodeIndex, err)
		}
		for i := range meshes {
			if node.Name != "" {
				meshes[i].Mesh.Name = node.Name + "/" + meshes[i].Mesh.Name
			}
		}
		*out = append(*out, meshes...)
	}

	for _, child := range node.Children {
		if err := e.walkNode(child, world, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int, transform mgl32.Mat4) ([]ImportedMesh, error) {
	doc := e.parser.Document()
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	gm := &doc.Meshes[meshIndex]
	name := gm.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", meshIndex)
	}

	var out []ImportedMesh
	for i := range gm.Primitives {
		prim := &gm.Primitives[i]
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			continue
		}

		tm, err := e.extractPrimitive(prim, fmt.Sprintf("%s_%d", name, i))
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", name, i, err)
		}
		applyTransform(tm, transform)

		out = append(out, ImportedMesh{Mesh: tm, Material: e.materialFor(prim)})
	}
	return out, nil
}

// extractPrimitive reads POSITION, the optional NORMAL and the indices of one
// primitive. Non-indexed primitives get sequential indices.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, name string) (*mesh.TriangleMesh, error) {
	posAccessor, ok := prim.Attributes[gltfAttributePosition]
	if !ok {
		return nil, fmt.Errorf("primitive has no %s attribute", gltfAttributePosition)
	}

	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	tm := &mesh.TriangleMesh{Name: name, Positions: positions}

	if normAccessor, ok := prim.Attributes[gltfAttributeNormal]; ok {
		normals, err := e.parser.ReadVec3Accessor(normAccessor)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		if len(normals) == len(positions) {
			tm.Normals = normals
		}
	}

	var flat []uint32
	if prim.Indices != nil {
		flat, err = e.parser.ReadIndicesAccessor(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
	} else {
		flat = make([]uint32, len(positions))
		for i := range flat {
			flat[i] = uint32(i)
		}
	}
	if len(flat)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(flat))
	}

	tm.Indices = make([][3]uint32, len(flat)/3)
	for i := range tm.Indices {
		tm.Indices[i] = [3]uint32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return tm, nil
}

func (e *gltfMeshExtractorImpl) materialFor(prim *gltfPrimitive) material.Material {
	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(e.materials) {
		return e.materials[*prim.Material]
	}
	return material.NewMaterial()
}

// gltfMaterialFrom keeps the metallic-roughness factors. Absent factors fall
// back to the glTF defaults of white, fully metallic and fully rough.
func gltfMaterialFrom(m gltfMaterial) material.Material {
	opts := []material.MaterialBuilderOption{
		material.WithName(m.Name),
		material.WithBaseColor([3]float32{1, 1, 1}),
		material.WithMetallic(1),
		material.WithRoughness(1),
	}

	if pbr := m.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			c := *pbr.BaseColorFactor
			opts = append(opts, material.WithBaseColor([3]float32{c[0], c[1], c[2]}))
		}
		if pbr.MetallicFactor != nil {
			opts = append(opts, material.WithMetallic(*pbr.MetallicFactor))
		}
		if pbr.RoughnessFactor != nil {
			opts = append(opts, material.WithRoughness(*pbr.RoughnessFactor))
		}
	}
	return material.NewMaterial(opts...)
}

// gltfNodeMatrix returns the local transform of a node, either its matrix or
// its composed translation * rotation * scale.
func gltfNodeMatrix(node *gltfNode) mgl32.Mat4 {
	if node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	m := mgl32.Ident4()
	if t := node.Translation; t != nil {
		m = mgl32.Translate3D(t[0], t[1], t[2])
	}
	if r := node.Rotation; r != nil {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		m = m.Mul4(q.Mat4())
	}
	if s := node.Scale; s != nil {
		m = m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	}
	return m
}

// applyTransform bakes a model matrix into a mesh. Normals use the inverse
// transpose of the upper 3x3 and are renormalised.
func applyTransform(tm *mesh.TriangleMesh, m mgl32.Mat4) {
	if m == mgl32.Ident4() {
		return
	}

	for i, p := range tm.Positions {
		tm.Positions[i] = [3]float32(m.Mul4x1(mgl32.Vec3(p).Vec4(1)).Vec3())
	}

	// Mirroring transforms flip the winding.
	if m.Mat3().Det() < 0 {
		for i, tri := range tm.Indices {
			tm.Indices[i] = [3]uint32{tri[0], tri[2], tri[1]}
		}
	}

	if len(tm.Normals) == 0 {
		return
	}
	nm := m.Mat3().Inv().Transpose()
	for i, n := range tm.Normals {
		v := nm.Mul3x1(mgl32.Vec3(n))
		if l := v.Len(); l > 0 {
			v = v.Mul(1 / l)
		}
		tm.Normals[i] = [3]float32(v)
	}
}
