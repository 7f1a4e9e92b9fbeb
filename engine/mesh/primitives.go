package mesh

// Cube returns an 8 vertex, 12 triangle unit cube centred on the origin with
// outward facing counter-clockwise winding. Normals are left for ComputeNormals.
func Cube() *TriangleMesh {
	const h = 0.5
	return &TriangleMesh{
		Name: "cube",
		Positions: [][3]float32{
			{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
			{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		},
		Indices: [][3]uint32{
			{4, 5, 6}, {4, 6, 7}, // +Z
			{1, 0, 3}, {1, 3, 2}, // -Z
			{5, 1, 2}, {5, 2, 6}, // +X
			{0, 4, 7}, {0, 7, 3}, // -X
			{7, 6, 2}, {7, 2, 3}, // +Y
			{0, 1, 5}, {0, 5, 4}, // -Y
		},
	}
}

// Plane returns a square in the XZ plane facing +Y with the given side length.
func Plane(size float32) *TriangleMesh {
	h := size / 2
	return &TriangleMesh{
		Name: "plane",
		Positions: [][3]float32{
			{-h, 0, -h}, {h, 0, -h}, {h, 0, h}, {-h, 0, h},
		},
		Normals: [][3]float32{
			{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0},
		},
		Indices: [][3]uint32{
			{0, 3, 2}, {0, 2, 1},
		},
	}
}
