package material

// material is the implementation of the Material interface.
type material struct {
	name      string
	baseColor [3]float32
	metallic  float32
	roughness float32
}

// Material defines the surface parameters the G-buffer pass writes per mesh.
//
// Materials are immutable once built. Each GPU mesh uploads its material once
// into a uniform buffer; changing a surface means building a new mesh.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the linear albedo of the material.
	//
	// Returns:
	//   - [3]float32: the base color as RGB values
	BaseColor() [3]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Uniform packs the material for a mesh with the given id.
	//
	// Parameters:
	//   - meshID: small integer written to the AOV target
	//
	// Returns:
	//   - GPUMaterial: the packed uniform
	Uniform(meshID uint32) GPUMaterial
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [3]float32{0.8, 0.8, 0.8},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [3]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Uniform(meshID uint32) GPUMaterial {
	return GPUMaterial{
		BaseColor: m.baseColor,
		Metallic:  m.metallic,
		Roughness: m.roughness,
		MeshID:    meshID,
	}
}
