package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel pre-populates the model cache, for example with procedurally built geometry.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model *ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
