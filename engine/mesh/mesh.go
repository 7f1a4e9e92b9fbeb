// Package mesh holds CPU-side triangle meshes and their GPU vertex layout.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidMesh is wrapped by every TriangleMesh.Validate failure.
var ErrInvalidMesh = errors.New("invalid mesh")

// TriangleMesh is an indexed triangle list with optional per-vertex normals.
type TriangleMesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Indices   [][3]uint32
}

// HasNormals reports whether every position has a normal.
func (m *TriangleMesh) HasNormals() bool {
	return len(m.Positions) > 0 && len(m.Normals) == len(m.Positions)
}

// Validate checks that normals, when present, match positions one to one and
// that every index addresses an existing position.
//
// Returns:
//   - error: wraps ErrInvalidMesh describing the first violation
func (m *TriangleMesh) Validate() error {
	if len(m.Positions) == 0 {
		return fmt.Errorf("%w: %q has no positions", ErrInvalidMesh, m.Name)
	}
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return fmt.Errorf("%w: %q has %d normals for %d positions", ErrInvalidMesh, m.Name, len(m.Normals), len(m.Positions))
	}
	n := uint32(len(m.Positions))
	for f, tri := range m.Indices {
		for _, idx := range tri {
			if idx >= n {
				return fmt.Errorf("%w: %q face %d references vertex %d of %d", ErrInvalidMesh, m.Name, f, idx, n)
			}
		}
	}
	return nil
}

// ComputeNormals replaces Normals with the renormalised average of the unit
// normals of each vertex's incident faces. Faces are not area weighted.
// Degenerate faces contribute nothing and unreferenced vertices get the zero vector.
// Indices must be in range; call Validate first for untrusted input.
func (m *TriangleMesh) ComputeNormals() {
	sums := make([]mgl32.Vec3, len(m.Positions))
	for _, tri := range m.Indices {
		p0 := mgl32.Vec3(m.Positions[tri[0]])
		p1 := mgl32.Vec3(m.Positions[tri[1]])
		p2 := mgl32.Vec3(m.Positions[tri[2]])
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.Len() < 1e-12 {
			continue
		}
		n = n.Normalize()
		for _, idx := range tri {
			sums[idx] = sums[idx].Add(n)
		}
	}

	m.Normals = make([][3]float32, len(m.Positions))
	for i, s := range sums {
		if s.Len() > 1e-12 {
			m.Normals[i] = s.Normalize()
		}
	}
}

// Translate offsets every position.
func (m *TriangleMesh) Translate(dx, dy, dz float32) {
	for i := range m.Positions {
		m.Positions[i][0] += dx
		m.Positions[i][1] += dy
		m.Positions[i][2] += dz
	}
}

// Bounds returns the axis-aligned bounding box of the positions.
func (m *TriangleMesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for a := range 3 {
			lo[a] = min(lo[a], p[a])
			hi[a] = max(hi[a], p[a])
		}
	}
	return lo, hi
}

// Vertices interleaves positions and normals. Missing normals are written as zero.
func (m *TriangleMesh) Vertices() []GPUVertex {
	out := make([]GPUVertex, len(m.Positions))
	for i, p := range m.Positions {
		out[i].Position = p
		if i < len(m.Normals) {
			out[i].Normal = m.Normals[i]
		}
	}
	return out
}

// FlatIndices returns the index list as a flat uint32 slice for an index buffer.
func (m *TriangleMesh) FlatIndices() []uint32 {
	out := make([]uint32, 0, len(m.Indices)*3)
	for _, tri := range m.Indices {
		out = append(out, tri[0], tri[1], tri[2])
	}
	return out
}

// Clone returns a deep copy so callers may transform geometry shared through a cache.
func (m *TriangleMesh) Clone() *TriangleMesh {
	return &TriangleMesh{
		Name:      m.Name,
		Positions: append([][3]float32(nil), m.Positions...),
		Normals:   append([][3]float32(nil), m.Normals...),
		Indices:   append([][3]uint32(nil), m.Indices...),
	}
}
