package loader

import "io"

// loaderBackend is implemented once per file format. Backends are stateless and
// safe for concurrent use; every call builds its own parser.
type loaderBackend interface {
	// Load imports the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *ImportedModel: the imported meshes and materials
	//   - error: error if reading or parsing fails
	Load(path string) (*ImportedModel, error)

	// LoadReader imports a model from a stream.
	//
	// Parameters:
	//   - name: the model name used when the stream carries none
	//   - r: the reader providing model data
	//   - format: the concrete format of the stream
	//
	// Returns:
	//   - *ImportedModel: the imported meshes and materials
	//   - error: error if parsing fails
	LoadReader(name string, r io.Reader, format Format) (*ImportedModel, error)
}
