package loader

// LoaderBuilderOption configures a Loader during construction.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the number of concurrent decode workers.
//
// Parameters:
//   - workers: the worker count; must be > 0
//
// Returns:
//   - LoaderBuilderOption: the option
func WithWorkers(workers int) LoaderBuilderOption {
	return func(l *loader) {
		if workers <= 0 {
			panic("loader: worker count must be positive")
		}
		l.workers = workers
	}
}

// WithMaxDimension caps decoded surface dimensions; larger surfaces are
// rescaled to fit before upload, preserving aspect ratio.
//
// Parameters:
//   - maxDimension: the per-axis texel cap; must be > 0
//
// Returns:
//   - LoaderBuilderOption: the option
func WithMaxDimension(maxDimension int) LoaderBuilderOption {
	return func(l *loader) {
		if maxDimension <= 0 {
			panic("loader: max dimension must be positive")
		}
		l.maxDimension = maxDimension
	}
}
